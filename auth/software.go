package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/sha3"

	"txkernel.dev/kernel"
)

// SoftwareProvider is a software-only signer, grounded on the teacher's
// DevStdCryptoProvider: no HSM, no pq-signature scheme, useful for tests
// and local tooling. The post-quantum schemes the teacher's CryptoProvider
// interface names (ML-DSA-87, SLH-DSA-SHAKE-256f) have no pure-Go
// implementation anywhere in the example corpus, so this provider signs
// with ed25519 instead; see DESIGN.md.
type SoftwareProvider struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

// NewSoftwareProvider generates a fresh signing key pair.
func NewSoftwareProvider() (*SoftwareProvider, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("auth: generate key: %w", err)
	}
	return &SoftwareProvider{pub: pub, priv: priv}, nil
}

// NewSoftwareProviderFromSeed deterministically derives a key pair from
// seed, for reproducible tests and tooling.
func NewSoftwareProviderFromSeed(seed [32]byte) *SoftwareProvider {
	priv := ed25519.NewKeyFromSeed(seed[:])
	return &SoftwareProvider{pub: priv.Public().(ed25519.PublicKey), priv: priv}
}

func (p *SoftwareProvider) Sign(digest [32]byte) ([]byte, error) {
	return ed25519.Sign(p.priv, digest[:]), nil
}

func (p *SoftwareProvider) Verify(pubKey, sig []byte, digest [32]byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pubKey), digest[:], sig)
}

func (p *SoftwareProvider) PublicKey() []byte { return append([]byte(nil), p.pub...) }

// DigestWord hashes a kernel.Word into the 32-byte digest Provider.Sign and
// Provider.Verify operate over, using the same SHA3-256 the teacher's
// DevStdCryptoProvider exposes for its narrow crypto interface.
func DigestWord(w kernel.Word) [32]byte {
	var buf [32]byte
	h := sha3.New256()
	for _, f := range w {
		var b [8]byte
		v := f.Uint64()
		for i := 0; i < 8; i++ {
			b[i] = byte(v >> (8 * i))
		}
		h.Write(b[:])
	}
	copy(buf[:], h.Sum(nil))
	return buf
}

// AuthProcedure builds a kernel.AuthProcedure that verifies sigBytes, a
// signature the caller passes in out of band, against provider's own public
// key over DigestWord of the native account's NonceWord, then tracks the
// procedure and increments the nonce. The authArgs felts are not read.
//
// This mirrors the real system's pattern of a small MASM auth procedure
// that checks a signature and calls increment_nonce; the signature check
// itself is delegated to a Provider rather than re-implemented inline.
func AuthProcedure(provider Provider, sigBytes []byte) kernel.AuthProcedure {
	return func(ctx *kernel.TxContext, authArgs []kernel.Felt) error {
		acc := ctx.NativeAccount()
		digest := DigestWord(acc.NonceWord())
		if !provider.Verify(provider.PublicKey(), sigBytes, digest) {
			return kernel.NewError(kernel.ErrSignatureInvalid, "auth: signature verification failed")
		}
		ctx.API().AuthenticateAndTrackProcedure("auth::verify_signature")
		if err := ctx.API().IncrementNonce(); err != nil {
			return err
		}
		return nil
	}
}
