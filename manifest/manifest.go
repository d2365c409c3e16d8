// Copyright (c) 2026, the AppForge contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package manifest merges a base project manifest with variant and add-on
// fragments into a single deterministic package.json style document.
//
// Fragments are combined left to right with last-writer-wins semantics per
// key. Dependency sections are emitted in lexicographic key order so the same
// inputs always produce byte-identical output; script entries keep the order
// in which they were first merged.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Fragment is a partial manifest contributed by a variant or an add-on.
// Any section may be absent.
type Fragment struct {
	Dependencies    map[string]string                      `json:"dependencies,omitempty"`
	DevDependencies map[string]string                      `json:"devDependencies,omitempty"`
	Scripts         *orderedmap.OrderedMap[string, string] `json:"scripts,omitempty"`
}

// ParseError indicates a malformed manifest or fragment document.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid manifest %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseFragment parses a JSON manifest fragment.
func ParseFragment(path string, data []byte) (*Fragment, error) {
	var f Fragment
	err := json.Unmarshal(data, &f)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	return &f, nil
}

// LoadFragment reads and parses a fragment file. A missing file is not an
// error and yields a nil fragment, callers treat that as no contribution.
func LoadFragment(path string) (*Fragment, error) {
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return nil, nil
	case err != nil:
		return nil, err
	}

	return ParseFragment(path, data)
}

// Manifest is the final merged project manifest. Fields not known to the
// merger are carried through from the base document unmodified.
type Manifest struct {
	Name            string
	Scripts         *orderedmap.OrderedMap[string, string]
	Dependencies    map[string]string
	DevDependencies map[string]string
	Extra           map[string]json.RawMessage
}

// Parse parses a base manifest document.
func Parse(path string, data []byte) (*Manifest, error) {
	var raw map[string]json.RawMessage
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	m := &Manifest{
		Scripts:         orderedmap.New[string, string](),
		Dependencies:    map[string]string{},
		DevDependencies: map[string]string{},
		Extra:           map[string]json.RawMessage{},
	}

	for k, v := range raw {
		switch k {
		case "name":
			if err := json.Unmarshal(v, &m.Name); err != nil {
				return nil, &ParseError{Path: path, Err: err}
			}
		case "scripts":
			if err := json.Unmarshal(v, m.Scripts); err != nil {
				return nil, &ParseError{Path: path, Err: err}
			}
		case "dependencies":
			if err := json.Unmarshal(v, &m.Dependencies); err != nil {
				return nil, &ParseError{Path: path, Err: err}
			}
		case "devDependencies":
			if err := json.Unmarshal(v, &m.DevDependencies); err != nil {
				return nil, &ParseError{Path: path, Err: err}
			}
		default:
			m.Extra[k] = v
		}
	}

	return m, nil
}

// Load reads and parses a base manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(path, data)
}

// Merge combines the base manifest with fragments applied left to right.
// Later fragments silently overwrite earlier values for the same key, there
// is no conflict detection or version range reconciliation. Nil fragments
// are skipped. The base manifest is not modified.
func Merge(base *Manifest, fragments ...*Fragment) *Manifest {
	out := &Manifest{
		Name:            base.Name,
		Scripts:         orderedmap.New[string, string](),
		Dependencies:    map[string]string{},
		DevDependencies: map[string]string{},
		Extra:           map[string]json.RawMessage{},
	}

	for k, v := range base.Extra {
		out.Extra[k] = v
	}
	for k, v := range base.Dependencies {
		out.Dependencies[k] = v
	}
	for k, v := range base.DevDependencies {
		out.DevDependencies[k] = v
	}
	if base.Scripts != nil {
		for pair := base.Scripts.Oldest(); pair != nil; pair = pair.Next() {
			out.Scripts.Set(pair.Key, pair.Value)
		}
	}

	for _, f := range fragments {
		if f == nil {
			continue
		}

		for k, v := range f.Dependencies {
			out.Dependencies[k] = v
		}
		for k, v := range f.DevDependencies {
			out.DevDependencies[k] = v
		}
		if f.Scripts != nil {
			// Set keeps the original position for keys that already
			// exist so script order is stable under overwrite.
			for pair := f.Scripts.Oldest(); pair != nil; pair = pair.Next() {
				out.Scripts.Set(pair.Key, pair.Value)
			}
		}
	}

	return out
}

// MarshalJSON emits the manifest with a fixed field order: name, carried-over
// base fields in sorted order, scripts, then dependencies and devDependencies
// with lexicographically sorted keys. Output is indented with two spaces.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	buf := bytes.NewBuffer([]byte{})
	buf.WriteString("{")

	first := true
	field := func(key string, val any) error {
		if !first {
			buf.WriteString(",")
		}
		first = false

		kj, err := json.Marshal(key)
		if err != nil {
			return err
		}
		vj, err := json.Marshal(val)
		if err != nil {
			return err
		}

		buf.Write(kj)
		buf.WriteString(":")
		buf.Write(vj)

		return nil
	}

	if err := field("name", m.Name); err != nil {
		return nil, err
	}

	extras := make([]string, 0, len(m.Extra))
	for k := range m.Extra {
		extras = append(extras, k)
	}
	sort.Strings(extras)
	for _, k := range extras {
		if err := field(k, m.Extra[k]); err != nil {
			return nil, err
		}
	}

	if m.Scripts != nil && m.Scripts.Len() > 0 {
		if err := field("scripts", m.Scripts); err != nil {
			return nil, err
		}
	}
	if len(m.Dependencies) > 0 {
		if err := field("dependencies", sortedSection(m.Dependencies)); err != nil {
			return nil, err
		}
	}
	if len(m.DevDependencies) > 0 {
		if err := field("devDependencies", sortedSection(m.DevDependencies)); err != nil {
			return nil, err
		}
	}

	buf.WriteString("}")

	return buf.Bytes(), nil
}

// Render returns the manifest as an indented document terminated with a
// newline, suitable for writing to disk.
func (m *Manifest) Render() ([]byte, error) {
	j, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	out := bytes.NewBuffer([]byte{})
	err = json.Indent(out, j, "", "  ")
	if err != nil {
		return nil, err
	}
	out.WriteString("\n")

	return out.Bytes(), nil
}

// sortedSection emits a plain map with lexicographically ordered keys. An
// ordered map is used for emission only so encoding does not depend on Go
// map iteration order.
func sortedSection(section map[string]string) *orderedmap.OrderedMap[string, string] {
	keys := make([]string, 0, len(section))
	for k := range section {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := orderedmap.New[string, string]()
	for _, k := range keys {
		out.Set(k, section[k])
	}

	return out
}
