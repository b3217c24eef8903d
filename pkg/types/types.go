package types

import (
	"fmt"
	"strings"

	"github.com/opencontainers/go-digest"
)

type Format string

const (
	// FormatPickle is a python pickle stream holding an estimator, scaler or imputer.
	FormatPickle Format = "pickle"
	// FormatHDF5 is an HDF5 archive holding a tensor graph and its weights.
	FormatHDF5 Format = "hdf5"
	// FormatNPZ is a zip archive of numpy arrays.
	FormatNPZ Format = "npz"
)

func (f Format) Valid() bool {
	switch f {
	case FormatPickle, FormatHDF5, FormatNPZ:
		return true
	default:
		return false
	}
}

// Entry describes a single artifact of a manifest.
type Entry struct {
	Name       string        `json:"name"`
	RemoteName string        `json:"remoteName"`
	LocalName  string        `json:"localName,omitempty"`
	Format     Format        `json:"format"`
	Optional   bool          `json:"optional,omitempty"`
	Digest     digest.Digest `json:"digest,omitempty"`
}

// Filename returns the name of the file on local storage.
func (e Entry) Filename() string {
	if e.LocalName != "" {
		return e.LocalName
	}
	return e.RemoteName
}

func (e Entry) String() string {
	return e.Name + "(" + e.Filename() + ")"
}

// Manifest is an ordered, immutable list of artifacts.
type Manifest struct {
	entries []Entry
	index   map[string]int
}

// NewManifest validates entries and builds a manifest over a private copy of them.
func NewManifest(entries ...Entry) (Manifest, error) {
	m := Manifest{
		entries: make([]Entry, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	copy(m.entries, entries)

	localnames := map[string]string{}
	for i, e := range m.entries {
		if e.Name == "" {
			return Manifest{}, fmt.Errorf("entry %d: empty name", i)
		}
		if e.RemoteName == "" {
			return Manifest{}, fmt.Errorf("entry %s: empty remote name", e.Name)
		}
		if !e.Format.Valid() {
			return Manifest{}, fmt.Errorf("entry %s: unknown format %q", e.Name, e.Format)
		}
		for _, filename := range []string{e.RemoteName, e.Filename()} {
			if strings.ContainsAny(filename, `/\`) || filename == "." || filename == ".." {
				return Manifest{}, fmt.Errorf("entry %s: invalid filename %q", e.Name, filename)
			}
		}
		if e.Digest != "" {
			if err := e.Digest.Validate(); err != nil {
				return Manifest{}, fmt.Errorf("entry %s: %w", e.Name, err)
			}
		}
		if _, ok := m.index[e.Name]; ok {
			return Manifest{}, fmt.Errorf("entry %s: duplicate name", e.Name)
		}
		if other, ok := localnames[e.Filename()]; ok {
			return Manifest{}, fmt.Errorf("entry %s: local file %s already used by %s", e.Name, e.Filename(), other)
		}
		m.index[e.Name] = i
		localnames[e.Filename()] = e.Name
	}
	return m, nil
}

// MustManifest is like NewManifest but panics on invalid entries.
func MustManifest(entries ...Entry) Manifest {
	m, err := NewManifest(entries...)
	if err != nil {
		panic(err)
	}
	return m
}

// Entries returns a copy of the entries in manifest order.
func (m Manifest) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m Manifest) Len() int {
	return len(m.entries)
}

func (m Manifest) Lookup(name string) (Entry, bool) {
	i, ok := m.index[name]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}

func (m Manifest) Required() []Entry {
	out := []Entry{}
	for _, e := range m.entries {
		if !e.Optional {
			out = append(out, e)
		}
	}
	return out
}
