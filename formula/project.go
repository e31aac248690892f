package formula

import (
	"io/fs"
	"os"
	"path/filepath"
)

// -----------------------------------------------------------------------------

// Project is the on-disk layout of a single recipe evaluation.
type Project struct {
	// WorkDir is where the source archive is fetched and extracted.
	WorkDir string
	// SourceDir is the extracted source tree.
	SourceDir string
	// BuildDir is where out-of-tree builds run.
	BuildDir string
	// PackageDir receives include/, lib/ and bin/.
	PackageDir string
}

// NewProject returns a Project rooted at workDir. srcName is the directory
// the source archive extracts to.
func NewProject(workDir, srcName, packageDir string) *Project {
	return &Project{
		WorkDir:    workDir,
		SourceDir:  filepath.Join(workDir, srcName),
		BuildDir:   filepath.Join(workDir, "build"),
		PackageDir: packageDir,
	}
}

// SourceFS returns the source tree as a file system.
func (p *Project) SourceFS() fs.FS {
	return os.DirFS(p.SourceDir)
}
