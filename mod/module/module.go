// Package module defines the package Reference type along with support code.
package module

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
)

// ErrInvalidReference is returned for malformed references.
var ErrInvalidReference = errors.New("invalid package reference")

// A Reference identifies a package version published on a user channel, in
// the form "name/version@user/channel".
type Reference struct {
	Name    string // Package name, e.g. "libxslt"
	Version string // Version string, e.g. "1.1.29"
	User    string
	Channel string
}

// Parse parses "name/version" or "name/version@user/channel".
func Parse(s string) (Reference, error) {
	var ref Reference
	pkg, uc, hasUC := strings.Cut(s, "@")
	name, version, ok := strings.Cut(pkg, "/")
	if !ok {
		return ref, fmt.Errorf("%w: %q: missing version", ErrInvalidReference, s)
	}
	ref.Name, ref.Version = name, version
	if hasUC {
		user, channel, ok := strings.Cut(uc, "/")
		if !ok || user == "" || channel == "" {
			return ref, fmt.Errorf("%w: %q: want user/channel after @", ErrInvalidReference, s)
		}
		ref.User, ref.Channel = user, channel
	}
	if err := ref.Validate(); err != nil {
		return Reference{}, err
	}
	return ref, nil
}

// Validate checks that the name is non-empty and the version is semver-like.
func (r Reference) Validate() error {
	if r.Name == "" || strings.ContainsAny(r.Name, "/@") {
		return fmt.Errorf("%w: bad name %q", ErrInvalidReference, r.Name)
	}
	if !semver.IsValid(canonical(r.Version)) {
		return fmt.Errorf("%w: bad version %q", ErrInvalidReference, r.Version)
	}
	return nil
}

// Compare compares the versions of r and o, as semver.Compare does.
func (r Reference) Compare(o Reference) int {
	return semver.Compare(canonical(r.Version), canonical(o.Version))
}

func (r Reference) String() string {
	s := r.Name + "/" + r.Version
	if r.User != "" {
		s += "@" + r.User + "/" + r.Channel
	}
	return s
}

func canonical(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// EscapePath returns the escaped form of the given package name as a valid
// file system path. It fails if the name is invalid.
func EscapePath(path string) (escaped string, err error) {
	return filepath.Localize(path)
}
