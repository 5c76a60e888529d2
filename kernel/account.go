package kernel

// Account is the mutable state operated on by a single transaction: its
// identity, nonce, storage, vault, and code commitment (§3, §6).
type Account struct {
	ID             AccountID
	Nonce          Felt
	Storage        *Storage
	Vault          *AssetVault
	CodeCommitment Digest
}

// NewAccount returns a fresh account with empty storage and vault, backed
// by a private arena.
func NewAccount(id AccountID, nonce Felt, codeCommitment Digest) *Account {
	arena := NewArena()
	return &Account{
		ID:             id,
		Nonce:          nonce,
		Storage:        NewStorage(arena),
		Vault:          NewAssetVault(arena, 0),
		CodeCommitment: codeCommitment,
	}
}

// NonceWord packs the account's identity and nonce into the Word absorbed
// by Commitment: [prefix, suffix, 0, nonce].
func (a *Account) NonceWord() Word {
	return Word{a.ID.Prefix, a.ID.Suffix, 0, a.Nonce}
}

// Commitment is the account's state commitment: H(vault_root,
// storage_commitment, code_commitment, nonce_word) (§6).
func (a *Account) Commitment() Digest {
	return SequentialHash(a.Vault.Root(), a.Storage.Commitment(), a.CodeCommitment, a.NonceWord())
}
