// Package formula holds the values a recipe is evaluated against: the
// host-supplied settings and options, dependency info and the consumer-facing
// link contract.
package formula

import (
	"slices"
	"sort"
	"strings"
)

// -----------------------------------------------------------------------------

// Matrix describes a set of build configurations. Require carries settings
// (os, arch, compiler...), Options carries recipe options (shared...).
// DefaultOptions names the preferred value of an option; it is built first
// and used when no value is requested.
type Matrix struct {
	Require        map[string][]string
	Options        map[string][]string
	DefaultOptions map[string][]string
}

// Combinations returns all cartesian product combinations of the matrix.
// Keys are sorted alphabetically, and combinations are built layer by layer.
// Require fields are joined with "-", then combined with options using "|".
func (m *Matrix) Combinations() []string {
	cartesian := func(kvs map[string][]string) []string {
		if len(kvs) == 0 {
			return nil
		}

		keys := make([]string, 0, len(kvs))
		for k := range kvs {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		result := make([]string, len(kvs[keys[0]]))
		copy(result, kvs[keys[0]])

		for i := 1; i < len(keys); i++ {
			values := kvs[keys[i]]
			newResult := make([]string, 0, len(result)*len(values))
			for _, prev := range result {
				for _, v := range values {
					newResult = append(newResult, prev+"-"+v)
				}
			}
			result = newResult
		}
		return result
	}

	requireCombos := cartesian(m.Require)
	optionsCombos := cartesian(m.Options)

	if len(requireCombos) == 0 {
		return optionsCombos
	}
	if len(optionsCombos) == 0 {
		return requireCombos
	}

	result := make([]string, 0, len(requireCombos)*len(optionsCombos))
	for _, req := range requireCombos {
		for _, opt := range optionsCombos {
			result = append(result, req+"|"+opt)
		}
	}
	return result
}

// String returns the first combination in a form usable as a path element:
// the "|" between settings and options becomes "+".
func (m Matrix) String() string {
	combos := m.Combinations()
	if len(combos) == 0 {
		return ""
	}
	return strings.ReplaceAll(combos[0], "|", "+")
}

// Expand returns one single-valued matrix per combination of m.Options,
// each sharing m.Require. Default option values come first.
func (m *Matrix) Expand() []Matrix {
	if len(m.Options) == 0 {
		return []Matrix{{Require: m.Require}}
	}
	keys := make([]string, 0, len(m.Options))
	for k := range m.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := []map[string][]string{{}}
	for _, k := range keys {
		var next []map[string][]string
		for _, prev := range out {
			for _, v := range m.ordered(k) {
				opts := make(map[string][]string, len(prev)+1)
				for pk, pv := range prev {
					opts[pk] = pv
				}
				opts[k] = []string{v}
				next = append(next, opts)
			}
		}
		out = next
	}

	ms := make([]Matrix, len(out))
	for i, opts := range out {
		ms[i] = Matrix{Require: m.Require, Options: opts}
	}
	return ms
}

// Default returns the single-valued matrix of the default options. An
// option without a default takes its first value.
func (m *Matrix) Default() Matrix {
	opts := make(map[string][]string, len(m.Options))
	for k := range m.Options {
		if v := m.ordered(k); len(v) > 0 {
			opts[k] = v[:1]
		}
	}
	return Matrix{Require: m.Require, Options: opts}
}

// ordered returns the values of option k with its defaults moved first.
func (m *Matrix) ordered(k string) []string {
	values := m.Options[k]
	defaults := m.DefaultOptions[k]
	if len(defaults) == 0 {
		return values
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if slices.Contains(defaults, v) {
			out = append(out, v)
		}
	}
	for _, v := range values {
		if !slices.Contains(defaults, v) {
			out = append(out, v)
		}
	}
	return out
}
