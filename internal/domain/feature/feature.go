// Package feature defines the result attributes a retriever can project.
package feature

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain"
)

// Flag is one primitive result attribute.
type Flag uint8

// Primitive flags.
const (
	UUID Flag = iota
	TrecID
	WarcID
	Index
	CrawlDate
	TargetHostname
	TargetURI
	CacheURI
	PageRank
	SpamRank
	TitleHighlighted
	TitleText
	SnippetHighlighted
	SnippetText
	Explanation
	Content
	ContentPlain
	ContentType
	Language

	numFlags
)

var flagNames = [numFlags]string{
	UUID:               "uuid",
	TrecID:             "trec_id",
	WarcID:             "warc_id",
	Index:              "index",
	CrawlDate:          "crawl_date",
	TargetHostname:     "target_hostname",
	TargetURI:          "target_uri",
	CacheURI:           "cache_uri",
	PageRank:           "page_rank",
	SpamRank:           "spam_rank",
	TitleHighlighted:   "title_highlighted",
	TitleText:          "title_text",
	SnippetHighlighted: "snippet_highlighted",
	SnippetText:        "snippet_text",
	Explanation:        "explanation",
	Content:            "content",
	ContentPlain:       "content_plain",
	ContentType:        "content_type",
	Language:           "language",
}

// FlagFromValue validates a raw flag value.
func FlagFromValue(v int) (Flag, error) {
	if v < 0 || v >= int(numFlags) {
		return 0, fmt.Errorf("%w: value %d", domain.ErrUnknownFeature, v)
	}
	return Flag(v), nil
}

// String returns the lower snake case name of the flag.
func (f Flag) String() string {
	if f >= numFlags {
		return fmt.Sprintf("feature(%d)", uint8(f))
	}
	return flagNames[f]
}

// Set returns a set holding only f.
func (f Flag) Set() Set { return Set(1) << f }

// Set is a combination of primitive flags.
type Set uint32

// None is the empty set.
const None Set = 0

// Composite flags.
var (
	IDs     = Of(UUID, TrecID, WarcID)
	Target  = Of(TargetHostname, TargetURI)
	Ranks   = Of(PageRank, SpamRank)
	Title   = Of(TitleHighlighted, TitleText)
	Snippet = Of(SnippetHighlighted, SnippetText)

	// StagingOnly holds the flags only the staging endpoint returns.
	StagingOnly = Of(WarcID, CrawlDate, CacheURI, ContentType, Language)

	All = Union(
		IDs, Of(Index, CrawlDate), Target, Of(CacheURI), Ranks, Title, Snippet,
		Of(Explanation, Content, ContentPlain, ContentType, Language),
	).Without(StagingOnly)
	AllStaging = Union(All, StagingOnly)
)

var composites = map[string]Set{
	"none":        None,
	"ids":         IDs,
	"target":      Target,
	"ranks":       Ranks,
	"title":       Title,
	"snippet":     Snippet,
	"all":         All,
	"all_staging": AllStaging,
}

// Of combines primitive flags into a set.
func Of(flags ...Flag) Set {
	var s Set
	for _, f := range flags {
		s |= f.Set()
	}
	return s
}

// Union combines sets.
func Union(sets ...Set) Set {
	var s Set
	for _, o := range sets {
		s |= o
	}
	return s
}

// Contains reports whether f is enabled in s.
func (s Set) Contains(f Flag) bool { return s&f.Set() != 0 }

// ContainsAny reports whether s and o share at least one flag.
func (s Set) ContainsAny(o Set) bool { return s&o != 0 }

// Without returns s with the flags of o removed.
func (s Set) Without(o Set) Set { return s &^ o }

// IsEmpty reports whether no flag is enabled.
func (s Set) IsEmpty() bool { return s == None }

// Len returns the number of enabled primitive flags.
func (s Set) Len() int { return bits.OnesCount32(uint32(s)) }

// Flags returns the enabled primitive flags in declaration order.
func (s Set) Flags() []Flag {
	out := make([]Flag, 0, s.Len())
	for f := Flag(0); f < numFlags; f++ {
		if s.Contains(f) {
			out = append(out, f)
		}
	}
	return out
}

// Names returns the enabled primitive flag names sorted lexically.
func (s Set) Names() []string {
	flags := s.Flags()
	names := make([]string, len(flags))
	for i, f := range flags {
		names[i] = f.String()
	}
	sort.Strings(names)
	return names
}

// Validate rejects bits outside the closed vocabulary.
func (s Set) Validate() error {
	if extra := s.Without(AllStaging); extra != None {
		return fmt.Errorf("%w: mask %#x", domain.ErrUnknownFeature, uint32(extra))
	}
	return nil
}

// Unsupported returns the requested flags the endpoint mode cannot serve.
func Unsupported(s Set, staging bool) Set {
	if staging {
		return s.Without(AllStaging)
	}
	return s.Without(All)
}

func (s Set) String() string {
	if s == None {
		return "none"
	}
	return strings.Join(s.Names(), "|")
}

// Parse resolves a single flag or composite name.
func Parse(name string) (Set, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if s, ok := composites[n]; ok {
		return s, nil
	}
	for f := Flag(0); f < numFlags; f++ {
		if flagNames[f] == n {
			return f.Set(), nil
		}
	}
	return None, fmt.Errorf("%w: %q", domain.ErrUnknownFeature, name)
}

// ParseList resolves names and normalizes them into one set.
// Entries may themselves be "|" or "," separated.
func ParseList(names []string) (Set, error) {
	var s Set
	for _, entry := range names {
		for _, part := range strings.FieldsFunc(entry, func(r rune) bool { return r == '|' || r == ',' }) {
			p, err := Parse(part)
			if err != nil {
				return None, err
			}
			s |= p
		}
	}
	return s, nil
}

// KnownNames lists every accepted name, primitives first.
func KnownNames() []string {
	out := make([]string, 0, int(numFlags)+len(composites))
	out = append(out, flagNames[:]...)
	comp := make([]string, 0, len(composites))
	for k := range composites {
		comp = append(comp, k)
	}
	sort.Strings(comp)
	return append(out, comp...)
}
