package kernel

// AssetVault is the sparse-merkle container holding an account's fungible
// and non-fungible asset balances (§4.3), keyed by FungibleVaultKey or
// NonFungibleVaultKey respectively.
type AssetVault struct {
	smt *SMT
}

// NewAssetVault returns an empty vault backed by arena.
func NewAssetVault(arena *Arena, ptr MapPtr) *AssetVault {
	return &AssetVault{smt: NewSMT(arena, ptr)}
}

// AddFungible adds asset's amount to the vault's balance for its faucet,
// returning the asset word representing the new total. Fails if the sum
// would exceed MaxFungibleAmount.
func (v *AssetVault) AddFungible(asset Word) (Word, error) {
	faucetSuffix, faucetPrefix := asset[2], asset[3]
	key := FungibleVaultKey(faucetPrefix, faucetSuffix)
	cur := v.smt.Peek(key)
	curAmount := uint64(0)
	if cur != EmptyWord {
		curAmount = FungibleAssetAmount(cur)
	}
	addAmount := FungibleAssetAmount(asset)
	sum := curAmount + addAmount
	if sum > MaxFungibleAmount || sum < curAmount {
		return EmptyWord, kerrf(ErrFungibleOverflow, "adding %d to existing balance %d exceeds max %d", addAmount, curAmount, MaxFungibleAmount)
	}
	newWord, err := NewFungibleAsset(faucetPrefix, faucetSuffix, sum)
	if err != nil {
		return EmptyWord, err
	}
	if _, err := v.smt.Set(key, newWord); err != nil {
		return EmptyWord, err
	}
	return newWord, nil
}

// RemoveFungible removes asset's amount from the vault's balance for its
// faucet, returning the asset word that was removed. Fails if the balance
// is insufficient.
func (v *AssetVault) RemoveFungible(asset Word) (Word, error) {
	faucetSuffix, faucetPrefix := asset[2], asset[3]
	key := FungibleVaultKey(faucetPrefix, faucetSuffix)
	cur := v.smt.Peek(key)
	curAmount := uint64(0)
	if cur != EmptyWord {
		curAmount = FungibleAssetAmount(cur)
	}
	removeAmount := FungibleAssetAmount(asset)
	if removeAmount > curAmount {
		return EmptyWord, kerrf(ErrFungibleUnderflow, "removing %d exceeds balance %d", removeAmount, curAmount)
	}
	remainder := curAmount - removeAmount
	if remainder == 0 {
		if _, err := v.smt.Set(key, EmptyWord); err != nil {
			return EmptyWord, err
		}
	} else {
		newWord, err := NewFungibleAsset(faucetPrefix, faucetSuffix, remainder)
		if err != nil {
			return EmptyWord, err
		}
		if _, err := v.smt.Set(key, newWord); err != nil {
			return EmptyWord, err
		}
	}
	removed, err := NewFungibleAsset(faucetPrefix, faucetSuffix, removeAmount)
	if err != nil {
		return EmptyWord, err
	}
	return removed, nil
}

// AddNonFungible inserts a non-fungible asset. Fails if an identical asset
// is already present (§4.3's duplicate rejection).
func (v *AssetVault) AddNonFungible(asset Word) (Word, error) {
	key := NonFungibleVaultKey(asset)
	if v.smt.Peek(key) != EmptyWord {
		return EmptyWord, kerr(ErrNonFungibleDuplicate, "non-fungible asset already present in vault")
	}
	if _, err := v.smt.Set(key, asset); err != nil {
		return EmptyWord, err
	}
	return asset, nil
}

// RemoveNonFungible removes a non-fungible asset. Fails if it is absent.
func (v *AssetVault) RemoveNonFungible(asset Word) (Word, error) {
	key := NonFungibleVaultKey(asset)
	if v.smt.Peek(key) == EmptyWord {
		return EmptyWord, kerr(ErrNonFungibleNotFound, "non-fungible asset not present in vault")
	}
	if _, err := v.smt.Set(key, EmptyWord); err != nil {
		return EmptyWord, err
	}
	return asset, nil
}

// GetBalance returns the fungible balance held for faucet.
func (v *AssetVault) GetBalance(faucet AccountID) (uint64, error) {
	if !faucet.IsFungibleFaucet() {
		return 0, kerr(ErrNotFungibleFaucet, "GetBalance called with a non-fungible-faucet account id")
	}
	key := FungibleVaultKey(faucet.Prefix, faucet.Suffix)
	cur := v.smt.Peek(key)
	if cur == EmptyWord {
		return 0, nil
	}
	return FungibleAssetAmount(cur), nil
}

// HasNonFungible reports whether asset is currently held in the vault.
func (v *AssetVault) HasNonFungible(asset Word) (bool, error) {
	if IsFungibleAssetWord(asset) {
		return false, kerr(ErrAssetIsFungible, "HasNonFungible called with a fungible asset word")
	}
	return v.smt.Peek(NonFungibleVaultKey(asset)) != EmptyWord, nil
}

// Root is the vault's current commitment.
func (v *AssetVault) Root() Digest { return v.smt.Root() }

// Entries enumerates every non-empty (key, value) pair currently held, in
// ascending key order. Exposed for persistence (see store.SnapshotAccount):
// the vault's internal SMT representation is otherwise opaque.
func (v *AssetVault) Entries() [][2]Word {
	var out [][2]Word
	v.smt.entries.Iter(func(key, v0, _ Word) bool {
		if v0 != EmptyWord {
			out = append(out, [2]Word{key, v0})
		}
		return true
	})
	return out
}

// snapshotAssets enumerates every non-empty leaf currently held, as raw
// asset words. Used by the epilogue's conservation check (§4.7) to compare
// the vault's content across the transaction without recomputing tree
// paths.
func (v *AssetVault) snapshotAssets() []Word {
	var out []Word
	v.smt.entries.Iter(func(_ Word, v0, _ Word) bool {
		if v0 != EmptyWord {
			out = append(out, v0)
		}
		return true
	})
	return out
}
