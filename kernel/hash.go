package kernel

import "golang.org/x/crypto/sha3"

// Commitments are produced by a single sequential sponge H. The sponge state
// is one capacity word plus two rate words (12 felts total), mirroring the
// teacher's domain-tagged compression in merkle.go generalized from bytes to
// field elements. The permutation itself is realized with a SHAKE256 XOF
// over the serialized state — see DESIGN.md for why no field-native
// permutation from the reference corpus was adopted instead.

func wordBytes(w Word) []byte {
	out := make([]byte, 32)
	for i, f := range w {
		v := f.Uint64()
		for b := 0; b < 8; b++ {
			out[i*8+b] = byte(v >> (8 * b))
		}
	}
	return out
}

func wordFromBytes(b []byte) Word {
	var w Word
	for i := 0; i < 4; i++ {
		var v uint64
		for k := 0; k < 8; k++ {
			v |= uint64(b[i*8+k]) << (8 * k)
		}
		w[i] = NewFelt(v)
	}
	return w
}

// permute advances the sponge state by one round, absorbing (capacity, r0,
// r1) and returning the new (capacity, r0, r1).
func permute(capacity, r0, r1 Word) (Word, Word, Word) {
	buf := make([]byte, 0, 96)
	buf = append(buf, wordBytes(capacity)...)
	buf = append(buf, wordBytes(r0)...)
	buf = append(buf, wordBytes(r1)...)

	out := make([]byte, 96)
	sha3.ShakeSum256(out, buf)

	return wordFromBytes(out[0:32]), wordFromBytes(out[32:64]), wordFromBytes(out[64:96])
}

// Hasher is a running sponge instance. Its zero value starts with
// capacity initialized to zero, as required by §4.1.
type Hasher struct {
	capacity Word
	r0, r1   Word
}

// NewHasher returns a freshly initialized sponge.
func NewHasher() *Hasher { return &Hasher{} }

// Absorb2 absorbs a pair of rate words and permutes, returning the
// resulting squeezed digest (the second rate word).
func (h *Hasher) Absorb2(a, b Word) Digest {
	h.capacity, h.r0, h.r1 = permute(h.capacity, a, b)
	return h.r1
}

// Absorb1 absorbs a single word, paired against EMPTY_WORD, and permutes.
// Used for odd-length sequences and for single-word absorptions that must
// be finalized immediately rather than waiting to pair with a later word.
func (h *Hasher) Absorb1(a Word) Digest {
	return h.Absorb2(a, EmptyWord)
}

// Digest returns the current squeezed digest without absorbing further.
func (h *Hasher) Digest() Digest { return h.r1 }

// HashWords is the two-to-one compression function.
func HashWords(a, b Word) Digest {
	return NewHasher().Absorb2(a, b)
}

// SequentialHash hashes a sequence of words via repeated permutation.
// A zero-length sequence commits to EMPTY_WORD. An odd-length sequence has
// its final word padded with an explicit EMPTY_WORD companion.
func SequentialHash(words ...Word) Digest {
	if len(words) == 0 {
		return EmptyWord
	}
	h := NewHasher()
	var last Digest
	i := 0
	for i+1 < len(words) {
		last = h.Absorb2(words[i], words[i+1])
		i += 2
	}
	if i < len(words) {
		last = h.Absorb1(words[i])
	}
	return last
}
