package build

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goplus/xsltpkg/mod/module"
)

// Workspace directory layout:
//
//	workspaceDir/
//	  <escaped>/                      # package-level dir (cacheDir)
//	    .cache.json                   # build cache: maps "version-matrix" -> buildEntry
//	  <escaped>@<version>-<matrix>/   # package tree (packageDir)
//	    include/
//	    lib/
//	    bin/
//	    xsltpkg.yaml
//	  <escaped>@<version>-<matrix>.src/  # source and build dir (workDir)
const cacheFile = ".cache.json"

// buildEntry contains metadata about a single successful build.
type buildEntry struct {
	// Metadata holds the libraries consumers link, space separated.
	Metadata  string    `json:"metadata"`
	Shared    bool      `json:"shared"`
	BuildTime time.Time `json:"build_time"`
}

// buildCache maps "version-matrixString" keys to their build entries.
type buildCache struct {
	Cache map[string]*buildEntry `json:"cache"`
}

func cacheKey(version, matrix string) string {
	return version + "-" + matrix
}

func (c *buildCache) get(version, matrix string) (*buildEntry, bool) {
	entry, ok := c.Cache[cacheKey(version, matrix)]
	return entry, ok
}

func (c *buildCache) set(version, matrix string, entry *buildEntry) {
	if c.Cache == nil {
		c.Cache = make(map[string]*buildEntry)
	}
	c.Cache[cacheKey(version, matrix)] = entry
}

func (c *buildCache) delete(version, matrix string) {
	delete(c.Cache, cacheKey(version, matrix))
}

// cacheDir returns the package-level directory for cache storage: workspaceDir/<escaped>.
func (b *Builder) cacheDir(name string) (string, error) {
	escaped, err := module.EscapePath(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(b.workspaceDir, escaped), nil
}

// packageDir returns the package tree: workspaceDir/<escaped>@<version>-<matrix>.
func (b *Builder) packageDir(ref module.Reference, matrix string) (string, error) {
	escaped, err := module.EscapePath(ref.Name)
	if err != nil {
		return "", err
	}
	return filepath.Join(b.workspaceDir, fmt.Sprintf("%s@%s-%s", escaped, ref.Version, matrix)), nil
}

// workDir returns the directory sources are fetched and built in.
func (b *Builder) workDir(ref module.Reference, matrix string) (string, error) {
	dir, err := b.packageDir(ref, matrix)
	if err != nil {
		return "", err
	}
	return dir + ".src", nil
}

// loadCache reads the cache file for a package from the workspace directory.
func (b *Builder) loadCache(name string) (*buildCache, error) {
	dir, err := b.cacheDir(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, cacheFile))
	if err != nil {
		return nil, err
	}
	var cache buildCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, err
	}
	return &cache, nil
}

// saveCache writes the cache file for a package to the workspace directory.
func (b *Builder) saveCache(name string, cache *buildCache) error {
	dir, err := b.cacheDir(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, cacheFile), data, 0o644)
}
