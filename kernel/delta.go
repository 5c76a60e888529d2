package kernel

// Domain tags absorbed alongside delta entries during commitment, per §4.5.
const (
	domainAsset Felt = 1
	domainValue Felt = 2
	domainMap   Felt = 3
)

// encodeSignedAmount packs a signed amount into a Word's first two
// positions as two 32-bit two's-complement limbs, mirroring the source
// system's u32-limb representation of a wrapping i64 (§4.5's "treated as a
// two's-complement i64").
func encodeSignedAmount(amount int64) Word {
	bits := uint64(amount)
	lo := uint32(bits)
	hi := uint32(bits >> 32)
	return Word{NewFelt(uint64(lo)), NewFelt(uint64(hi)), 0, 0}
}

func decodeSignedAmount(w Word) int64 {
	lo := uint32(w[0].Uint64())
	hi := uint32(w[1].Uint64())
	bits := uint64(lo) | uint64(hi)<<32
	return int64(bits)
}

// AccountDelta aggregates every change made to an account's vault, storage,
// and nonce over the course of one transaction, and computes the single
// canonical commitment to that change (§4.5). It is backed by the same
// ordered LinkMap structure used elsewhere in the engine, one logical map
// per concern (fungible deltas, non-fungible deltas, and one per touched
// storage map slot).
type AccountDelta struct {
	arena     *Arena
	accountID AccountID

	nonceDelta Felt

	fungible    *LinkMap
	nonFungible *LinkMap

	storageInitial   [NumStorageSlots]Word
	storageMapDeltas [NumStorageSlots]*LinkMap
	storage          *Storage
}

// NewAccountDelta starts tracking changes to account, capturing its current
// storage as the initial snapshot for later diffing.
func NewAccountDelta(arena *Arena, account *Account) *AccountDelta {
	return &AccountDelta{
		arena:          arena,
		accountID:      account.ID,
		fungible:       NewLinkMap(arena, 0x1000_0000),
		nonFungible:    NewLinkMap(arena, 0x2000_0000),
		storageInitial: account.Storage.snapshot(),
		storage:        account.Storage,
	}
}

// IncrementNonce records the (at most once per transaction) nonce
// increment; callers must have already verified the current context
// permits it (ops.go enforces CtxAuth).
func (d *AccountDelta) IncrementNonce() error {
	if d.nonceDelta == 1 {
		return kerr(ErrAuthCalledTwice, "nonce already incremented this transaction")
	}
	d.nonceDelta = 1
	return nil
}

// recordFungibleDelta folds a signed amount change into the running
// fungible delta for the given faucet.
func (d *AccountDelta) recordFungibleDelta(faucetPrefix, faucetSuffix Felt, delta int64) error {
	key := FungibleVaultKey(faucetPrefix, faucetSuffix)
	found, v0, _, err := d.fungible.Get(key)
	if err != nil {
		return err
	}
	cur := EmptyWord
	if found {
		cur = v0
	}
	newVal := encodeSignedAmount(decodeSignedAmount(cur) + delta)
	_, err = d.fungible.Set(key, newVal, EmptyWord)
	return err
}

// recordNonFungibleDelta folds a +1 (added) or -1 (removed) contribution
// into the running non-fungible delta for asset, keeping the full asset
// word alongside so the commitment step can absorb it later.
func (d *AccountDelta) recordNonFungibleDelta(asset Word, delta int64) error {
	key := NonFungibleVaultKey(asset)
	found, v0, _, err := d.nonFungible.Get(key)
	if err != nil {
		return err
	}
	cur := int64(0)
	if found {
		cur = decodeSignedAmount(v0)
	}
	_, err = d.nonFungible.Set(key, encodeSignedAmount(cur+delta), asset)
	return err
}

// recordStorageMapChange tracks slotIndex's key as changed from initial to
// newValue. The first recorded initial value for a key wins; later changes
// to the same key only update its final value.
func (d *AccountDelta) recordStorageMapChange(slotIndex int, key, initialValue, newValue Word) error {
	lm := d.storageMapDeltas[slotIndex]
	if lm == nil {
		lm = NewLinkMap(d.arena, MapPtr(0x8000_0000+uint64(slotIndex)))
		d.storageMapDeltas[slotIndex] = lm
	}
	found, v0, _, err := lm.Get(key)
	if err != nil {
		return err
	}
	initial := initialValue
	if found {
		initial = v0
	}
	_, err = lm.Set(key, initial, newValue)
	return err
}

// Commit computes the canonical delta commitment per §4.5's six-step
// algorithm. It returns EmptyWord (with no error) if the delta is genuinely
// empty and the nonce was not incremented; it fails if the nonce was
// incremented despite an empty delta, or if vault/storage changed without a
// nonce increment.
func (d *AccountDelta) Commit() (Digest, error) {
	h := NewHasher()

	idNonceDigest := h.Absorb1(Word{0, d.nonceDelta, d.accountID.Prefix, d.accountID.Suffix})

	d.fungible.Iter(func(key, v0, _ Word) bool {
		amount := decodeSignedAmount(v0)
		if amount == 0 {
			return true
		}
		wasAdded := Felt(0)
		mag := amount
		if amount > 0 {
			wasAdded = 1
		} else {
			mag = -mag
		}
		faucetPrefix, faucetSuffix := key[0], key[1]
		h.Absorb2(
			Word{faucetPrefix, faucetSuffix, 0, NewFelt(uint64(mag))},
			Word{0, 0, wasAdded, domainAsset},
		)
		return true
	})

	d.nonFungible.Iter(func(_ Word, v0, assetWord Word) bool {
		amount := decodeSignedAmount(v0)
		if amount == 0 {
			return true
		}
		wasAdded := Felt(0)
		if amount > 0 {
			wasAdded = 1
		}
		h.Absorb2(assetWord, Word{0, 0, wasAdded, domainAsset})
		return true
	})

	for i := 0; i < NumStorageSlots; i++ {
		if d.storage.slots[i].kind != SlotValue {
			continue
		}
		final := d.storage.slots[i].value
		if final == d.storageInitial[i] {
			continue
		}
		h.Absorb2(final, Word{0, 0, NewFelt(uint64(i)), domainValue})
	}

	for i, lm := range d.storageMapDeltas {
		if lm == nil {
			continue
		}
		changed := 0
		lm.Iter(func(key, initial, final Word) bool {
			if initial == final {
				return true
			}
			changed++
			h.Absorb2(key, final)
			return true
		})
		if changed == 0 {
			continue
		}
		h.Absorb2(EmptyWord, Word{0, NewFelt(uint64(changed)), NewFelt(uint64(i)), domainMap})
	}

	squeezed := h.Digest()
	isEmpty := squeezed == idNonceDigest

	if isEmpty {
		if d.nonceDelta == 1 {
			return EmptyWord, kerr(ErrNonceInconsistent, "nonce incremented but account delta is empty")
		}
		return EmptyWord, nil
	}
	if d.nonceDelta != 1 {
		return EmptyWord, kerr(ErrNonceInconsistent, "account vault or storage changed without a nonce increment")
	}
	return squeezed, nil
}
