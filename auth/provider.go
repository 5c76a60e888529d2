// Package auth supplies the transaction kernel's authentication procedures:
// the closures a transaction's epilogue calls to verify a signature over
// the transaction and increment the account's nonce (kernel.AuthProcedure).
package auth

// Provider is the narrow signing/verification interface a kernel.AuthProcedure
// is built around. Implementations may be software-only or backed by an
// external signer; either way the kernel never talks to a Provider
// directly, only through the AuthProcedure closure a Provider builds.
type Provider interface {
	// Sign produces a signature over digest using the account's key.
	Sign(digest [32]byte) ([]byte, error)
	// Verify checks a signature over digest against pubKey.
	Verify(pubKey, sig []byte, digest [32]byte) bool
	// PublicKey returns the provider's public key.
	PublicKey() []byte
}
