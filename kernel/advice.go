package kernel

// AdviceProvider is the host-side advice channel (§6): data the prover
// needs but that does not itself need to be constrained by the kernel's
// arithmetic, keyed by the commitment it must match. This engine's note
// scripts carry their effects directly as Go closures (see Script in
// note.go), so Execute never consults an AdviceProvider; in this module only
// its tests use it, to round-trip script bytes and note witness data the way
// an external prover's host would.
type AdviceProvider interface {
	// Script returns the opaque script bytes committing to root, if known.
	Script(root Digest) ([]byte, bool)
	// NoteInputs returns the input felts committing to commitment, if known.
	NoteInputs(commitment Digest) ([]Felt, bool)
	// NoteAssets returns the asset words committing to commitment, if known.
	NoteAssets(commitment Digest) ([]Word, bool)
}

// MemoryAdvice is an in-memory AdviceProvider, populated by the caller
// ahead of execution.
type MemoryAdvice struct {
	scripts map[Digest][]byte
	inputs  map[Digest][]Felt
	assets  map[Digest][]Word
}

// NewMemoryAdvice returns an empty in-memory advice provider.
func NewMemoryAdvice() *MemoryAdvice {
	return &MemoryAdvice{
		scripts: make(map[Digest][]byte),
		inputs:  make(map[Digest][]Felt),
		assets:  make(map[Digest][]Word),
	}
}

// PutScript records b as the script bytes committing to root.
func (m *MemoryAdvice) PutScript(root Digest, b []byte) { m.scripts[root] = b }

// PutNoteInputs records inputs as the felts committing to commitment.
func (m *MemoryAdvice) PutNoteInputs(commitment Digest, inputs []Felt) { m.inputs[commitment] = inputs }

// PutNoteAssets records assets as the words committing to commitment.
func (m *MemoryAdvice) PutNoteAssets(commitment Digest, assets []Word) { m.assets[commitment] = assets }

func (m *MemoryAdvice) Script(root Digest) ([]byte, bool) {
	b, ok := m.scripts[root]
	return b, ok
}

func (m *MemoryAdvice) NoteInputs(commitment Digest) ([]Felt, bool) {
	in, ok := m.inputs[commitment]
	return in, ok
}

func (m *MemoryAdvice) NoteAssets(commitment Digest) ([]Word, bool) {
	a, ok := m.assets[commitment]
	return a, ok
}
