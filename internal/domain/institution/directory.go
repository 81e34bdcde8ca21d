// Package institution resolves user-facing university selectors to codes.
package institution

import (
	"strings"
	"sync/atomic"

	"github.com/kailas-cloud/coursedex/internal/domain/record"
)

// Directory is an immutable code<->name lookup built from university records.
type Directory struct {
	names  map[string]string // code -> name
	byName map[string]string // lower(name) -> code
}

// NewDirectory builds a directory. Records without a code are skipped; on
// duplicate codes or names the first record wins.
func NewDirectory(universities []record.University) *Directory {
	d := &Directory{
		names:  make(map[string]string, len(universities)),
		byName: make(map[string]string, len(universities)),
	}
	for _, u := range universities {
		code := strings.TrimSpace(u.UniqueCode)
		if code == "" {
			continue
		}
		if _, ok := d.names[code]; ok {
			continue
		}
		name := strings.TrimSpace(u.Name)
		d.names[code] = name
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := d.byName[key]; !ok {
			d.byName[key] = code
		}
	}
	return d
}

// Resolve maps a selector (code or name) to a university code.
// Codes match exactly, names case-insensitively. ok is false when the selector
// is unknown; callers treat that as "no institution constraint".
func (d *Directory) Resolve(selector string) (code string, ok bool) {
	if d == nil {
		return "", false
	}
	s := strings.TrimSpace(selector)
	if s == "" {
		return "", false
	}
	if _, ok := d.names[s]; ok {
		return s, true
	}
	code, ok = d.byName[strings.ToLower(s)]
	return code, ok
}

// Name returns the display name for a code.
func (d *Directory) Name(code string) (string, bool) {
	if d == nil {
		return "", false
	}
	n, ok := d.names[code]
	return n, ok && n != ""
}

// Len returns the number of known universities.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.names)
}

// Registry holds the current directory and allows lock-free replacement
// while searches are in flight.
type Registry struct {
	current atomic.Pointer[Directory]
}

// NewRegistry creates a registry seeded with d (may be nil).
func NewRegistry(d *Directory) *Registry {
	r := &Registry{}
	if d == nil {
		d = NewDirectory(nil)
	}
	r.current.Store(d)
	return r
}

// Current returns the active directory.
func (r *Registry) Current() *Directory { return r.current.Load() }

// Replace swaps in a new directory.
func (r *Registry) Replace(d *Directory) {
	if d == nil {
		return
	}
	r.current.Store(d)
}
