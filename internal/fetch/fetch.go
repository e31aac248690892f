// Package fetch downloads and unpacks source archives.
package fetch

import (
	"archive/tar"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	neturl "net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

var (
	// ErrStatus is returned when the server answers with a non-200 status.
	ErrStatus = errors.New("unexpected HTTP status")
	// ErrChecksum is returned when a download does not match its digest.
	ErrChecksum = errors.New("checksum mismatch")
	// ErrUnsafePath is returned for archive entries outside the target dir.
	ErrUnsafePath = errors.New("archive entry escapes target directory")
)

// Fetcher downloads archives over HTTP.
type Fetcher struct {
	Client *http.Client
	Logger *log.Logger
}

// New returns a Fetcher with a default client.
func New(logger *log.Logger) *Fetcher {
	return &Fetcher{
		Client: &http.Client{Timeout: 10 * time.Minute},
		Logger: logger,
	}
}

func (f *Fetcher) logger() *log.Logger {
	if f.Logger == nil {
		return log.New(io.Discard)
	}
	return f.Logger
}

func (f *Fetcher) client() *http.Client {
	if f.Client == nil {
		return http.DefaultClient
	}
	return f.Client
}

// Fetch downloads url into dir, checks it against sha256sum when non-empty,
// extracts it into dir and removes the archive.
func (f *Fetcher) Fetch(ctx context.Context, url, dir, sha256sum string) error {
	name, err := archiveName(url)
	if err != nil {
		return err
	}
	archive := filepath.Join(dir, name)
	if err := f.Download(ctx, url, archive); err != nil {
		return err
	}
	if sha256sum != "" {
		if err := Verify(archive, sha256sum); err != nil {
			return err
		}
	}
	if err := Extract(archive, dir); err != nil {
		return err
	}
	f.logger().Debug("removing archive", "path", archive)
	return os.Remove(archive)
}

// archiveName returns the file name of the archive at rawURL, ignoring any
// query or fragment.
func archiveName(rawURL string) (string, error) {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing source url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return "", fmt.Errorf("source url %s names no file", rawURL)
	}
	return name, nil
}

// Download writes the body of url to dst.
func (f *Fetcher) Download(ctx context.Context, url, dst string) error {
	f.logger().Info("downloading", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := f.client().Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: %w: %s", url, ErrStatus, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	f.logger().Debug("downloaded", "path", dst, "bytes", n)
	return nil
}

// Verify checks the SHA-256 digest of the file at p.
func Verify(p, want string) error {
	file, err := os.Open(p)
	if err != nil {
		return err
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return fmt.Errorf("hashing %s: %w", p, err)
	}
	got := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(got, want) {
		return fmt.Errorf("%s: %w: expected %s, got %s", filepath.Base(p), ErrChecksum, want, got)
	}
	return nil
}

// Extract unpacks a .tar.gz, .tgz or .tar.xz archive into dir.
func Extract(archive, dir string) error {
	file, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer file.Close()

	var r io.Reader
	switch {
	case strings.HasSuffix(archive, ".tar.gz"), strings.HasSuffix(archive, ".tgz"):
		gz, err := gzip.NewReader(file)
		if err != nil {
			return fmt.Errorf("creating gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(archive, ".tar.xz"):
		xr, err := xz.NewReader(file)
		if err != nil {
			return fmt.Errorf("creating xz reader: %w", err)
		}
		r = xr
	default:
		return fmt.Errorf("unsupported archive format: %s", filepath.Base(archive))
	}
	return untar(tar.NewReader(r), dir)
}

func untar(tr *tar.Reader, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return err
	}
	defer root.Close()

	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}

		name, err := entryName(header.Name)
		if err != nil {
			return err
		}
		if err := checkParents(root, header.Name, name); err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := root.MkdirAll(name, 0o755); err != nil {
				return fmt.Errorf("creating directory %s: %w", name, err)
			}
		case tar.TypeReg:
			if err := writeFile(root, name, tr, header.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if path.IsAbs(header.Linkname) || filepath.IsAbs(header.Linkname) {
				return fmt.Errorf("%w: %s -> %s", ErrUnsafePath, header.Name, header.Linkname)
			}
			if _, err := entryName(path.Join(path.Dir(name), header.Linkname)); err != nil {
				return fmt.Errorf("%w: %s -> %s", ErrUnsafePath, header.Name, header.Linkname)
			}
			if err := mkdirParent(root, name); err != nil {
				return err
			}
			if err := root.Symlink(header.Linkname, name); err != nil && !os.IsExist(err) {
				return fmt.Errorf("creating symlink %s: %w", name, err)
			}
		default:
			// hard links and device nodes are skipped
		}
	}
}

// entryName returns the cleaned, slash-separated name of an archive entry
// relative to the extraction root.
func entryName(name string) (string, error) {
	clean := path.Clean(name)
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return clean, nil
}

// checkParents rejects entries whose parent directories go through a
// symlink extracted earlier from the same archive.
func checkParents(root *os.Root, orig, name string) error {
	parts := strings.Split(name, "/")
	for i := 1; i < len(parts); i++ {
		prefix := strings.Join(parts[:i], "/")
		fi, err := root.Lstat(prefix)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if fi.Mode()&fs.ModeSymlink != 0 {
			return fmt.Errorf("%w: %s goes through symlink %s", ErrUnsafePath, orig, prefix)
		}
	}
	return nil
}

func mkdirParent(root *os.Root, name string) error {
	if parent := path.Dir(name); parent != "." {
		if err := root.MkdirAll(parent, 0o755); err != nil {
			return fmt.Errorf("creating parent directory: %w", err)
		}
	}
	return nil
}

func writeFile(root *os.Root, name string, r io.Reader, perm os.FileMode) error {
	if err := mkdirParent(root, name); err != nil {
		return err
	}
	if perm == 0 {
		perm = 0o644
	}
	out, err := root.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return out.Close()
}
