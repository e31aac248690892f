package recipe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// copyRule copies files matching pattern below src (relative to the source
// tree) into dst (relative to the package tree).
type copyRule struct {
	pattern  string
	src      string
	dst      string
	keepPath bool
}

var windowsRules = []copyRule{
	{pattern: "*.h", src: "libxslt", dst: "include/libxslt", keepPath: true},
	{pattern: "*.h", src: "libexslt", dst: "include/libexslt", keepPath: true},
	{pattern: "*.dll", src: ".", dst: "bin"},
	{pattern: "*.lib", src: ".", dst: "lib"},
}

// Package populates the package tree. Outside Windows, make install has
// already done so and Package does nothing.
func (r *Recipe) Package(ctx context.Context) error {
	if !r.Settings.IsWindows() {
		return nil
	}
	srcFS := r.Project.SourceFS()
	g, ctx := errgroup.WithContext(ctx)
	for _, rule := range windowsRules {
		g.Go(func() error {
			n, err := rule.apply(ctx, srcFS, r.Project.PackageDir)
			if err != nil {
				return fmt.Errorf("package %s from %s: %w", rule.pattern, rule.src, err)
			}
			r.logger().Debug("packaged", "pattern", rule.pattern, "dst", rule.dst, "files", n)
			return nil
		})
	}
	return g.Wait()
}

func (c copyRule) apply(ctx context.Context, srcFS fs.FS, pkgDir string) (int, error) {
	if _, err := fs.Stat(srcFS, c.src); errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	n := 0
	err := fs.WalkDir(srcFS, c.src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := path.Match(c.pattern, d.Name()); !ok {
			return nil
		}
		rel := d.Name()
		if c.keepPath {
			rel = p
			if c.src != "." {
				rel = p[len(c.src)+1:]
			}
		}
		dst := filepath.Join(pkgDir, filepath.FromSlash(c.dst), filepath.FromSlash(rel))
		if err := copyFile(srcFS, p, dst); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

func copyFile(srcFS fs.FS, name, dst string) error {
	in, err := srcFS.Open(name)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", name, err)
	}
	return out.Close()
}
