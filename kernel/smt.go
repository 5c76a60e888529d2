package kernel

const domainSMT uint64 = 7

// SMT is the sparse-merkle-style Word-keyed container backing the asset
// vault (§4.3) and account storage maps (§4.4). Rather than materializing a
// literal depth-64 authentication path per key — which this engine never
// needs to produce, since path authentication against an external prover is
// out of scope (§1) — the full key/value content is held in an ordered
// LinkMap (see linkmap.go) and the root is a domain-tagged commitment over
// its sorted, non-empty entries. This gives the same externally observable
// contract (deterministic root that changes with content, sparse, keyed by
// Word) with O(1) ordered iteration instead of bit-decomposed tree paths;
// see DESIGN.md for the full rationale.
//
// Peek collapses to Get: with no separate untrusted host proposing an
// unauthenticated hint, there is nothing for the VM-side peek/set
// cross-check of §4.3's design notes to guard against here.
type SMT struct {
	entries *LinkMap
}

// NewSMT creates an empty sparse-merkle container tagged ptr within arena.
func NewSMT(arena *Arena, ptr MapPtr) *SMT {
	return &SMT{entries: NewLinkMap(arena, ptr)}
}

// Get returns the value stored at key, or EmptyWord if key is absent.
func (s *SMT) Get(key Word) Word {
	found, v0, _, err := s.entries.Get(key)
	if err != nil || !found {
		return EmptyWord
	}
	return v0
}

// Peek returns the same value as Get. Exposed separately so callers can
// mirror the source system's peek-then-authenticated-set idiom even though,
// in this engine, the two collapse onto the same lookup.
func (s *SMT) Peek(key Word) Word { return s.Get(key) }

// Set writes value at key and returns the value previously stored there.
// Setting EmptyWord on a key that was never populated is a no-op (it would
// not change the root in any case, since Root skips empty leaves).
func (s *SMT) Set(key, value Word) (Word, error) {
	old := s.Get(key)
	if value == EmptyWord && old == EmptyWord {
		return old, nil
	}
	if _, err := s.entries.Set(key, value, EmptyWord); err != nil {
		return EmptyWord, err
	}
	return old, nil
}

// Root commits to the tree's current content: EmptyWord if every leaf is
// empty, otherwise a sequential hash over (key, value) pairs in ascending
// key order followed by a domain-tag word.
func (s *SMT) Root() Digest {
	var words []Word
	s.entries.Iter(func(key, v0, _ Word) bool {
		if v0 == EmptyWord {
			return true
		}
		words = append(words, key, v0)
		return true
	})
	if len(words) == 0 {
		return EmptyWord
	}
	words = append(words, Word{0, 0, 0, NewFelt(domainSMT)})
	return SequentialHash(words...)
}
