package kernel

// NoteType tags a note's on-chain visibility. Encrypted is reserved and
// always rejected by this engine (§3's "Encrypted is reserved").
type NoteType uint64

const (
	NoteTypePublic    NoteType = 1
	NoteTypePrivate   NoteType = 2
	NoteTypeEncrypted NoteType = 3
)

// ExecutionHint is a caller-supplied tag (6 bits) plus payload (32 bits)
// describing when a note becomes consumable; the kernel stores it inside a
// note's metadata but does not interpret it, since scheduling notes for
// execution is a host/client concern outside this engine's scope.
type ExecutionHint struct {
	Tag     byte
	Payload uint32
}

// Metadata packs sender id, note type, execution hint, and user tag into a
// single Word, per §3:
//
//	position 0: note_type (2 bits) | hint_tag (6 bits) | hint_payload (32 bits), packed low to high
//	position 1: user_tag (32 bits)
//	position 2: sender suffix
//	position 3: sender prefix
type Metadata Word

// ValidateNoteTypeTag enforces §3's tag/type coupling: only a user tag whose
// top two bits are 0b11 (the "local, any sender" prefix) may pair with a
// Private note; every other tag prefix forces Public.
func ValidateNoteTypeTag(userTag uint32, noteType NoteType) error {
	const localAnyPrefix = 0b11
	top2 := userTag >> 30
	if top2 == localAnyPrefix {
		return nil
	}
	if noteType != NoteTypePublic {
		return kerr(ErrInvalidNoteTypeTag, "user tag prefix requires a Public note type")
	}
	return nil
}

// BuildMetadata constructs a note metadata Word, validating the note type
// and the tag/type coupling.
func BuildMetadata(sender AccountID, noteType NoteType, hint ExecutionHint, userTag uint32) (Metadata, error) {
	if noteType == NoteTypeEncrypted {
		return Metadata(EmptyWord), kerr(ErrReservedNoteType, "Encrypted note type is reserved")
	}
	if hint.Tag > 0x3F {
		return Metadata(EmptyWord), kerr(ErrInvalidNoteTypeTag, "execution hint tag exceeds 6 bits")
	}
	if err := ValidateNoteTypeTag(userTag, noteType); err != nil {
		return Metadata(EmptyWord), err
	}
	packed := uint64(noteType) | (uint64(hint.Tag) << 2) | (uint64(hint.Payload) << 8)
	return Metadata{NewFelt(packed), NewFelt(uint64(userTag)), sender.Suffix, sender.Prefix}, nil
}

// Parse decodes a metadata Word back into its fields.
func (m Metadata) Parse() (sender AccountID, noteType NoteType, hint ExecutionHint, userTag uint32) {
	packed := m[0].Uint64()
	noteType = NoteType(packed & 0x3)
	hint = ExecutionHint{Tag: byte((packed >> 2) & 0x3F), Payload: uint32(packed >> 8)}
	userTag = uint32(m[1].Uint64())
	sender = AccountID{Prefix: m[3], Suffix: m[2]}
	return
}

func (m Metadata) word() Word { return Word(m) }

// ComputeAssetsCommitment commits to a note's asset list (§3, §4.6).
func ComputeAssetsCommitment(assets []Word) Digest {
	return SequentialHash(assets...)
}

// ComputeInputsCommitment commits to a note's script input felts, zero-
// padded to a multiple of 8 felts before hashing, per §3. inputs must not
// exceed MaxNoteInputs (§5, §7's wrong-note-inputs-length error category).
func ComputeInputsCommitment(inputs []Felt, maxInputs int) (Digest, error) {
	if len(inputs) > maxInputs {
		return EmptyWord, kerrf(ErrInvalidNoteInputsLen, "note has %d inputs, exceeds limit %d", len(inputs), maxInputs)
	}
	padded := make([]Felt, len(inputs))
	copy(padded, inputs)
	for len(padded)%8 != 0 {
		padded = append(padded, 0)
	}
	words := make([]Word, len(padded)/4)
	for i := range words {
		copy(words[i][:], padded[i*4:i*4+4])
	}
	return SequentialHash(words...), nil
}

// Recipient computes a note's recipient digest from its serial number,
// script root, and inputs commitment (§3): three chained two-to-one
// compressions.
func Recipient(serialNumber Word, scriptRoot, inputsCommitment Digest) Digest {
	a := HashWords(serialNumber, EmptyWord)
	b := HashWords(a, scriptRoot)
	return HashWords(b, inputsCommitment)
}

// NoteID computes a note's id from its recipient and assets commitment
// (§3): H(recipient, assets_commitment).
func NoteID(recipient, assetsCommitment Digest) Digest {
	return HashWords(recipient, assetsCommitment)
}

// Script is a note's or transaction's executable body, modeled as a Go
// closure over the transaction context rather than opaque bytecode: the
// arithmetic VM that would otherwise interpret such a script is explicitly
// out of scope (§1), so callers supply the script's effect directly, and
// the kernel enforces the same context/access-control rules (§4.8) around
// every call it makes into account procedures.
type Script func(ctx *TxContext) error

// InputNote is a note consumed by a transaction.
type InputNote struct {
	SerialNumber     Word
	ScriptRoot       Digest
	InputsCommitment Digest
	Metadata         Metadata
	Assets           []Word
	Script           Script
}

// Recipient computes the note's recipient digest.
func (n *InputNote) Recipient() Digest {
	return Recipient(n.SerialNumber, n.ScriptRoot, n.InputsCommitment)
}

// AssetsCommitment computes the note's assets commitment from its
// materialized asset list.
func (n *InputNote) AssetsCommitment() Digest { return ComputeAssetsCommitment(n.Assets) }

// ID computes the note's id.
func (n *InputNote) ID() Digest { return NoteID(n.Recipient(), n.AssetsCommitment()) }

// OutputNote is a note created by a transaction via CreateNote and
// AddAssetToNote.
type OutputNote struct {
	Recipient Digest
	Metadata  Metadata
	Assets    []Word
}

// AssetsCommitment computes the output note's assets commitment.
func (n *OutputNote) AssetsCommitment() Digest { return ComputeAssetsCommitment(n.Assets) }

// ID computes the output note's id.
func (n *OutputNote) ID() Digest { return NoteID(n.Recipient, n.AssetsCommitment()) }
