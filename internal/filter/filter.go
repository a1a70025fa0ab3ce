// Package filter implements the allow-list/block-list sentence-type
// policy applied before rate limiting and broadcast.
package filter

import "nmeabridge/internal/sentence"

// Mode selects the filtering policy.
type Mode int

const (
	AllowAll Mode = iota
	AllowList
	BlockList
)

// Config is immutable once constructed into a Filter.
type Config struct {
	Mode     Mode
	AllowSet []string
	BlockSet []string
}

// Filter is a stateless, thread-safe-by-construction predicate over
// sentence types.
type Filter struct {
	mode     Mode
	allowSet map[string]struct{}
	blockSet map[string]struct{}
}

// New builds a Filter from cfg. Identifiers may be a full type (e.g.
// "GNGGA") or a bare type ("GGA").
func New(cfg Config) *Filter {
	f := &Filter{mode: cfg.Mode}
	f.allowSet = toSet(cfg.AllowSet)
	f.blockSet = toSet(cfg.BlockSet)
	return f
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Allowed reports whether s passes this filter's policy.
func (f *Filter) Allowed(s sentence.Sentence) bool {
	if f == nil {
		return true
	}
	switch f.mode {
	case AllowList:
		if len(f.allowSet) == 0 {
			return true
		}
		return matches(f.allowSet, s)
	case BlockList:
		if len(f.blockSet) == 0 {
			return true
		}
		return !matches(f.blockSet, s)
	default:
		return true
	}
}

func matches(set map[string]struct{}, s sentence.Sentence) bool {
	if _, ok := set[s.FullType()]; ok {
		return true
	}
	_, ok := set[s.Type]
	return ok
}
