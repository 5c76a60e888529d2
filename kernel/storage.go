package kernel

// NumStorageSlots is the number of addressable account storage slots (§3).
const NumStorageSlots = 255

// SlotKind distinguishes a plain value slot from a map-root slot.
type SlotKind int

const (
	SlotValue SlotKind = iota
	SlotMap
)

type slot struct {
	kind  SlotKind
	value Word
	m     *SMT
}

// Storage is an account's 255-slot storage area; each slot holds either a
// Word value or the root of a per-slot sparse-merkle map (§4.4).
type Storage struct {
	arena *Arena
	slots [NumStorageSlots]slot
}

// NewStorage returns storage with every slot initialized to an empty value.
func NewStorage(arena *Arena) *Storage {
	return &Storage{arena: arena}
}

func (s *Storage) checkIndex(i int) error {
	if i < 0 || i >= NumStorageSlots {
		return kerrf(ErrStorageIndexRange, "storage slot index %d out of range [0,%d)", i, NumStorageSlots)
	}
	return nil
}

func (s *Storage) asWord(i int) Word {
	sl := s.slots[i]
	if sl.kind == SlotMap && sl.m != nil {
		return sl.m.Root()
	}
	return sl.value
}

// GetItem returns slot i's current content as a Word: the value itself for
// a value slot, or the map root for a map slot.
func (s *Storage) GetItem(i int) (Word, error) {
	if err := s.checkIndex(i); err != nil {
		return EmptyWord, err
	}
	return s.asWord(i), nil
}

// SetItem overwrites slot i with a plain value, converting it to a value
// slot if it was previously a map slot. Returns the slot's prior content.
func (s *Storage) SetItem(i int, v Word) (Word, error) {
	if err := s.checkIndex(i); err != nil {
		return EmptyWord, err
	}
	old := s.asWord(i)
	s.slots[i] = slot{kind: SlotValue, value: v}
	return old, nil
}

// mapSlot returns (lazily creating) the SMT backing map slot i.
func (s *Storage) mapSlot(i int) (*SMT, error) {
	sl := &s.slots[i]
	if sl.kind == SlotMap {
		return sl.m, nil
	}
	if sl.kind == SlotValue && sl.value != EmptyWord {
		return nil, kerrf(ErrStorageIndexRange, "storage slot %d holds a plain value, not a map", i)
	}
	sl.kind = SlotMap
	sl.m = NewSMT(s.arena, MapPtr(0x4000_0000+uint64(i)))
	return sl.m, nil
}

// GetMapItem returns the value stored under key in slot i's map.
func (s *Storage) GetMapItem(i int, key Word) (Word, error) {
	if err := s.checkIndex(i); err != nil {
		return EmptyWord, err
	}
	m, err := s.mapSlot(i)
	if err != nil {
		return EmptyWord, err
	}
	return m.Get(key), nil
}

// SetMapItem writes value under key in slot i's map, returning the map's
// root before the update and the value previously stored at key.
func (s *Storage) SetMapItem(i int, key, value Word) (Digest, Word, error) {
	if err := s.checkIndex(i); err != nil {
		return EmptyWord, EmptyWord, err
	}
	m, err := s.mapSlot(i)
	if err != nil {
		return EmptyWord, EmptyWord, err
	}
	oldRoot := m.Root()
	oldValue, err := m.Set(key, value)
	if err != nil {
		return EmptyWord, EmptyWord, err
	}
	return oldRoot, oldValue, nil
}

// Commitment is the sequential hash of all 255 slot words in index order
// (§4.4, §6).
func (s *Storage) Commitment() Digest {
	words := make([]Word, NumStorageSlots)
	for i := range words {
		words[i] = s.asWord(i)
	}
	return SequentialHash(words...)
}

// snapshot captures the current value-slot contents for later delta diffing.
// Map slots are represented by their current root; a slot's kind switching
// mid-transaction is treated as the map case taking over entirely, which
// AccountDelta reconciles via the per-slot map link maps.
func (s *Storage) snapshot() [NumStorageSlots]Word {
	var out [NumStorageSlots]Word
	for i := range out {
		out[i] = s.asWord(i)
	}
	return out
}
