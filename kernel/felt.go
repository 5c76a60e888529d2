package kernel

import "math/big"

// Modulus is the Goldilocks prime p = 2^64 - 2^32 + 1, the field the
// transaction kernel's arithmetic is defined over.
const Modulus uint64 = 18446744069414584321

var modulusBig = new(big.Int).SetUint64(Modulus)

// Felt is a single element of the prime field. The zero value is the
// additive identity.
type Felt uint64

// NewFelt reduces v into canonical form [0, Modulus).
func NewFelt(v uint64) Felt {
	if v < Modulus {
		return Felt(v)
	}
	return Felt(v % Modulus)
}

func (a Felt) bigInt() *big.Int {
	return new(big.Int).SetUint64(uint64(a))
}

func feltFromBig(x *big.Int) Felt {
	m := new(big.Int).Mod(x, modulusBig)
	return Felt(m.Uint64())
}

// Add returns a+b mod p.
func (a Felt) Add(b Felt) Felt {
	r := new(big.Int).Add(a.bigInt(), b.bigInt())
	return feltFromBig(r)
}

// Sub returns a-b mod p.
func (a Felt) Sub(b Felt) Felt {
	r := new(big.Int).Sub(a.bigInt(), b.bigInt())
	return feltFromBig(r)
}

// Mul returns a*b mod p.
func (a Felt) Mul(b Felt) Felt {
	r := new(big.Int).Mul(a.bigInt(), b.bigInt())
	return feltFromBig(r)
}

// Neg returns -a mod p.
func (a Felt) Neg() Felt {
	if a == 0 {
		return 0
	}
	return Felt(Modulus) - a
}

// IsZero reports whether a is the additive identity.
func (a Felt) IsZero() bool { return a == 0 }

// Uint64 returns the canonical uint64 representation.
func (a Felt) Uint64() uint64 { return uint64(a) }

// Word is an ordered 4-tuple of felts, the unit of hashing and storage.
// Position indices are 0 (least significant) through 3 (most significant),
// matching the ordering used by the account-id and asset layouts in §3.
type Word [4]Felt

// EmptyWord is the all-zero Word.
var EmptyWord = Word{0, 0, 0, 0}

// Digest is a Word produced by the core hash.
type Digest = Word

// IsEmpty reports whether w equals EmptyWord.
func (w Word) IsEmpty() bool { return w == EmptyWord }

// Cmp implements the strict total order over Words required by the link
// map and delta commitment: compare felt-by-felt from the most-significant
// position (3) downward.
func (w Word) Cmp(other Word) int {
	for i := 3; i >= 0; i-- {
		if w[i] < other[i] {
			return -1
		}
		if w[i] > other[i] {
			return 1
		}
	}
	return 0
}

// Less reports whether w sorts strictly before other under Cmp.
func (w Word) Less(other Word) bool { return w.Cmp(other) < 0 }

// WordFromU64s builds a Word from four raw uint64 values, each reduced to
// canonical field form.
func WordFromU64s(v0, v1, v2, v3 uint64) Word {
	return Word{NewFelt(v0), NewFelt(v1), NewFelt(v2), NewFelt(v3)}
}
