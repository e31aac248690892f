package recipe

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/goplus/xsltpkg/formula"
)

// ManifestFile is written at the root of the package tree.
const ManifestFile = "xsltpkg.yaml"

// PackageInfo declares the library consumers link against.
func (r *Recipe) PackageInfo() formula.CppInfo {
	return formula.CppInfo{Libs: []string{"libxslt"}}
}

// Manifest records what a package tree contains and how it was built.
type Manifest struct {
	Reference string           `yaml:"reference"`
	License   string           `yaml:"license"`
	Settings  formula.Settings `yaml:"settings"`
	Options   formula.Options  `yaml:"options"`
	CppInfo   formula.CppInfo  `yaml:"cpp_info"`
}

// Manifest returns the manifest for a build resolved as res.
func (r *Recipe) Manifest(res Resolved) Manifest {
	return Manifest{
		Reference: Reference().String(),
		License:   License,
		Settings:  r.Settings,
		Options:   res.Options(),
		CppInfo:   r.PackageInfo(),
	}
}

// WriteManifest writes m into the package tree at dir.
func WriteManifest(dir string, m Manifest) error {
	data, err := yaml.Marshal(&m)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644)
}

// ReadManifest reads the manifest of the package tree at dir.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ManifestFile, err)
	}
	return &m, nil
}
