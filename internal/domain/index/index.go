// Package index holds the ChatNoir index identifiers.
package index

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain"
)

// Index identifies one ChatNoir corpus index.
type Index string

// Known indices.
const (
	ClueWeb09       Index = "cw09"
	ClueWeb12       Index = "cw12"
	ClueWeb22       Index = "cw22"
	CommonCrawl1511 Index = "cc1511"
	CommonCrawl1704 Index = "cc1704"
)

// Default is the index searched when none is configured.
const Default = ClueWeb12

// IsValid checks if the index is one of the known identifiers.
func (i Index) IsValid() bool {
	switch i {
	case ClueWeb09, ClueWeb12, ClueWeb22, CommonCrawl1511, CommonCrawl1704:
		return true
	}
	return false
}

// Parse validates an index identifier.
func Parse(s string) (Index, error) {
	i := Index(strings.ToLower(strings.TrimSpace(s)))
	if !i.IsValid() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownIndex, s)
	}
	return i, nil
}

// Set is an unordered collection of indices.
type Set map[Index]struct{}

// NewSet builds a set from the given indices.
func NewSet(indices ...Index) Set {
	s := make(Set, len(indices))
	for _, i := range indices {
		s[i] = struct{}{}
	}
	return s
}

// ParseSet validates and collects index identifiers.
func ParseSet(names []string) (Set, error) {
	s := make(Set, len(names))
	for _, n := range names {
		i, err := Parse(n)
		if err != nil {
			return nil, err
		}
		s[i] = struct{}{}
	}
	return s, nil
}

// Sorted returns the indices in lexical order.
func (s Set) Sorted() []Index {
	out := make([]Index, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// Strings returns the sorted identifiers as strings.
func (s Set) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, idx := range sorted {
		out[i] = string(idx)
	}
	return out
}

// Contains reports whether i is in the set.
func (s Set) Contains(i Index) bool {
	_, ok := s[i]
	return ok
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for i := range s {
		out[i] = struct{}{}
	}
	return out
}
