package kernel

// LinkMap is the ordered, host-assisted key/value structure backing every
// delta collection in §4.5 — the fungible and non-fungible vault deltas and
// the per-slot storage map deltas. Entries for many logical maps share one
// arena (so the engine can hold an unbounded number of concurrent maps
// without per-map allocation bookkeeping); each entry carries its owning
// map's pointer so the arena can be safely demultiplexed.
//
// In the source system the arena lives in VM memory and an untrusted host
// proposes navigation; a prover-side VM then re-derives and checks the
// proposal. This engine has no separate prover/host split (the arithmetic
// VM is out of scope, §1), so LinkMap exposes both the honest convenience
// path (Set/Get, which compute the correct proposal internally) and the
// raw validated path (SetWithProposal/GetWithProposal) that enforces
// exactly the checks §4.2 requires, so dishonest or malformed proposals
// still fail the same way they would inside the VM.

// EntryPtr indexes a committed arena slot. NilEntryPtr marks "no entry".
type EntryPtr int32

// NilEntryPtr is the sentinel for "not a valid arena slot".
const NilEntryPtr EntryPtr = -1

// MapPtr stably identifies one logical LinkMap instance within a shared
// Arena.
type MapPtr uint64

type arenaEntry struct {
	mapPtr     MapPtr
	key        Word
	v0, v1     Word
	prev, next EntryPtr
	used       bool
}

// Arena is the entry pool shared across every LinkMap instance in a single
// transaction.
type Arena struct {
	entries []arenaEntry
}

// NewArena returns an empty entry arena.
func NewArena() *Arena { return &Arena{} }

func (a *Arena) alloc(mapPtr MapPtr, key, v0, v1 Word, prev, next EntryPtr) EntryPtr {
	a.entries = append(a.entries, arenaEntry{
		mapPtr: mapPtr, key: key, v0: v0, v1: v1, prev: prev, next: next, used: true,
	})
	return EntryPtr(len(a.entries) - 1)
}

// valid reports whether ptr addresses a live, in-range, correctly aligned
// slot. Every host-supplied EntryPtr must be validated through this before
// use — §4.2's "invalid pointer" failure condition.
func (a *Arena) valid(ptr EntryPtr) bool {
	return ptr >= 0 && int(ptr) < len(a.entries) && a.entries[ptr].used
}

// LinkMap is one ordered logical map threaded through a shared Arena.
type LinkMap struct {
	arena *Arena
	ptr   MapPtr
	head  EntryPtr
}

// NewLinkMap creates an empty logical map tagged ptr, backed by arena.
func NewLinkMap(arena *Arena, ptr MapPtr) *LinkMap {
	return &LinkMap{arena: arena, ptr: ptr, head: NilEntryPtr}
}

// SetProposalKind enumerates the host's three possible claims for where a
// KEY belongs on insert/update.
type SetProposalKind int

const (
	ProposeUpdate SetProposalKind = iota
	ProposeInsertAtHead
	ProposeInsertAfterEntry
)

// SetProposal is the host's navigation claim for a set(KEY, ...) call.
type SetProposal struct {
	Kind SetProposalKind
	At   EntryPtr // meaningful for ProposeUpdate and ProposeInsertAfterEntry
}

// GetProposalKind enumerates the host's three possible claims for a get
// (or absence) lookup.
type GetProposalKind int

const (
	ProposeFound GetProposalKind = iota
	ProposeAbsentAtHead
	ProposeAbsentAfterEntry
)

// GetProposal is the host's navigation claim for a get(KEY) call.
type GetProposal struct {
	Kind GetProposalKind
	At   EntryPtr
}

// honestSetProposal computes the correct proposal a truthful host would
// offer for inserting/updating KEY.
func (m *LinkMap) honestSetProposal(key Word) SetProposal {
	if m.head == NilEntryPtr {
		return SetProposal{Kind: ProposeInsertAtHead}
	}
	prev := NilEntryPtr
	cur := m.head
	for cur != NilEntryPtr {
		e := m.arena.entries[cur]
		if e.key == key {
			return SetProposal{Kind: ProposeUpdate, At: cur}
		}
		if key.Less(e.key) {
			break
		}
		prev = cur
		cur = e.next
	}
	if prev == NilEntryPtr {
		return SetProposal{Kind: ProposeInsertAtHead}
	}
	return SetProposal{Kind: ProposeInsertAfterEntry, At: prev}
}

// Set inserts or updates (KEY, V0, V1), computing the navigation itself.
// Returns whether KEY was newly inserted.
func (m *LinkMap) Set(key, v0, v1 Word) (bool, error) {
	return m.SetWithProposal(key, v0, v1, m.honestSetProposal(key))
}

// SetWithProposal performs set(KEY, V0, V1) validated against an arbitrary
// (possibly dishonest) host proposal, exactly per §4.2's security rules.
func (m *LinkMap) SetWithProposal(key, v0, v1 Word, p SetProposal) (bool, error) {
	switch p.Kind {
	case ProposeUpdate:
		if !m.arena.valid(p.At) {
			return false, kerr(ErrLinkMapPointerRange, "set: update pointer out of range")
		}
		e := &m.arena.entries[p.At]
		if e.mapPtr != m.ptr {
			return false, kerr(ErrLinkMapWrongTag, "set: update pointer carries wrong map tag")
		}
		if e.key != key {
			return false, kerr(ErrLinkMapOrdering, "set: update pointer key does not equal KEY")
		}
		e.v0, e.v1 = v0, v1
		return false, nil

	case ProposeInsertAtHead:
		if m.head != NilEntryPtr {
			headKey := m.arena.entries[m.head].key
			if !key.Less(headKey) {
				return false, kerr(ErrLinkMapOrdering, "set: KEY is not strictly less than current head")
			}
		}
		np := m.arena.alloc(m.ptr, key, v0, v1, NilEntryPtr, m.head)
		if m.head != NilEntryPtr {
			m.arena.entries[m.head].prev = np
		}
		m.head = np
		return true, nil

	case ProposeInsertAfterEntry:
		if !m.arena.valid(p.At) {
			return false, kerr(ErrLinkMapPointerRange, "set: insert-after pointer out of range")
		}
		e := &m.arena.entries[p.At]
		if e.mapPtr != m.ptr {
			return false, kerr(ErrLinkMapWrongTag, "set: insert-after pointer carries wrong map tag")
		}
		if !e.key.Less(key) {
			return false, kerr(ErrLinkMapOrdering, "set: KEY is not strictly greater than proposed entry's key")
		}
		if e.next != NilEntryPtr {
			succKey := m.arena.entries[e.next].key
			if !key.Less(succKey) {
				return false, kerr(ErrLinkMapOrdering, "set: KEY is not strictly less than successor's key")
			}
		}
		np := m.arena.alloc(m.ptr, key, v0, v1, p.At, e.next)
		if e.next != NilEntryPtr {
			m.arena.entries[e.next].prev = np
		}
		m.arena.entries[p.At].next = np
		return true, nil

	default:
		return false, kerr(ErrLinkMapOrdering, "set: unknown proposal kind")
	}
}

// honestGetProposal computes the correct proposal a truthful host would
// offer for looking up KEY.
func (m *LinkMap) honestGetProposal(key Word) GetProposal {
	if m.head == NilEntryPtr {
		return GetProposal{Kind: ProposeAbsentAtHead}
	}
	prev := NilEntryPtr
	cur := m.head
	for cur != NilEntryPtr {
		e := m.arena.entries[cur]
		if e.key == key {
			return GetProposal{Kind: ProposeFound, At: cur}
		}
		if key.Less(e.key) {
			break
		}
		prev = cur
		cur = e.next
	}
	if prev == NilEntryPtr {
		return GetProposal{Kind: ProposeAbsentAtHead}
	}
	return GetProposal{Kind: ProposeAbsentAfterEntry, At: prev}
}

// Get looks up KEY, computing the navigation itself.
func (m *LinkMap) Get(key Word) (bool, Word, Word, error) {
	return m.GetWithProposal(key, m.honestGetProposal(key))
}

// GetWithProposal performs get(KEY) validated against an arbitrary host
// proposal, per §4.2.
func (m *LinkMap) GetWithProposal(key Word, p GetProposal) (bool, Word, Word, error) {
	switch p.Kind {
	case ProposeFound:
		if !m.arena.valid(p.At) {
			return false, EmptyWord, EmptyWord, kerr(ErrLinkMapPointerRange, "get: found pointer out of range")
		}
		e := m.arena.entries[p.At]
		if e.mapPtr != m.ptr {
			return false, EmptyWord, EmptyWord, kerr(ErrLinkMapWrongTag, "get: found pointer carries wrong map tag")
		}
		if e.key != key {
			return false, EmptyWord, EmptyWord, kerr(ErrLinkMapOrdering, "get: found pointer key does not equal KEY")
		}
		return true, e.v0, e.v1, nil

	case ProposeAbsentAtHead:
		if m.head != NilEntryPtr {
			headKey := m.arena.entries[m.head].key
			if !key.Less(headKey) {
				return false, EmptyWord, EmptyWord, kerr(ErrLinkMapOrdering, "get: KEY is not strictly less than current head")
			}
		}
		return false, EmptyWord, EmptyWord, nil

	case ProposeAbsentAfterEntry:
		if !m.arena.valid(p.At) {
			return false, EmptyWord, EmptyWord, kerr(ErrLinkMapPointerRange, "get: absent-after pointer out of range")
		}
		e := m.arena.entries[p.At]
		if e.mapPtr != m.ptr {
			return false, EmptyWord, EmptyWord, kerr(ErrLinkMapWrongTag, "get: absent-after pointer carries wrong map tag")
		}
		if !e.key.Less(key) {
			return false, EmptyWord, EmptyWord, kerr(ErrLinkMapOrdering, "get: KEY is not strictly greater than proposed entry's key")
		}
		if e.next != NilEntryPtr {
			succKey := m.arena.entries[e.next].key
			if !key.Less(succKey) {
				return false, EmptyWord, EmptyWord, kerr(ErrLinkMapOrdering, "get: KEY is not strictly less than successor's key")
			}
		}
		return false, EmptyWord, EmptyWord, nil

	default:
		return false, EmptyWord, EmptyWord, kerr(ErrLinkMapOrdering, "get: unknown proposal kind")
	}
}

// Len returns the number of live entries, walking the list.
func (m *LinkMap) Len() int {
	n := 0
	for cur := m.head; cur != NilEntryPtr; cur = m.arena.entries[cur].next {
		n++
	}
	return n
}

// Iter calls fn for every entry in strictly ascending KEY order, stopping
// early if fn returns false.
func (m *LinkMap) Iter(fn func(key, v0, v1 Word) bool) {
	for cur := m.head; cur != NilEntryPtr; cur = m.arena.entries[cur].next {
		e := m.arena.entries[cur]
		if !fn(e.key, e.v0, e.v1) {
			return
		}
	}
}
