package kernel

// AccountAPI is the small, well-defined set of privileged operations
// through which notes, scripts, and the epilogue observe and mutate
// account state (§4.8): mint, burn, add/remove asset, get/set storage, and
// create note. Every mutating method checks the current call context
// before acting, and folds its effect into the transaction's AccountDelta.
type AccountAPI struct {
	ctx   *TxContext
	delta *AccountDelta
}

// NewAccountAPI binds an API surface to ctx and the delta it must report
// every mutation into.
func NewAccountAPI(ctx *TxContext, delta *AccountDelta) *AccountAPI {
	api := &AccountAPI{ctx: ctx, delta: delta}
	ctx.api = api
	return api
}

func (api *AccountAPI) account() *Account { return api.ctx.CurrentAccount() }

// isNative reports whether the account currently in scope is the
// transaction's own account, as opposed to one entered via
// StartForeignContext. Mutating operations are restricted to the native
// account: this engine computes one AccountDelta, for the native account,
// per transaction (see DESIGN.md).
func (api *AccountAPI) isNative() bool { return !api.ctx.usingForeign }

func (api *AccountAPI) requireNativeMutation() error {
	if !api.isNative() {
		return kerr(ErrInvalidContext, "mutating operation not permitted on a foreign account")
	}
	return nil
}

// MintAsset issues a new asset from the current account, which must be the
// asset's own faucet. Minted assets are added to the faucet's vault like
// any other asset. The epilogue's conservation check (§4.7) has no input
// term for minted value, so an asset minted and not burned again within the
// same transaction makes that check fail, whether it stays in the vault or
// is moved into an output note.
func (api *AccountAPI) MintAsset(asset Word) (Word, error) {
	restore := api.ctx.elevateToAccount()
	defer restore()
	if err := api.ctx.RequireContext(ProcedureTags(CtxAccount | CtxFaucet)); err != nil {
		return EmptyWord, err
	}
	if err := api.requireNativeMutation(); err != nil {
		return EmptyWord, err
	}
	acc := api.account()
	if err := requireOwnFaucet(acc, asset); err != nil {
		return EmptyWord, err
	}
	return api.applyAssetChange(asset, true)
}

// BurnAsset removes an asset from the current account's vault; the account
// must be the asset's own faucet.
func (api *AccountAPI) BurnAsset(asset Word) (Word, error) {
	restore := api.ctx.elevateToAccount()
	defer restore()
	if err := api.ctx.RequireContext(ProcedureTags(CtxAccount | CtxFaucet)); err != nil {
		return EmptyWord, err
	}
	if err := api.requireNativeMutation(); err != nil {
		return EmptyWord, err
	}
	acc := api.account()
	if err := requireOwnFaucet(acc, asset); err != nil {
		return EmptyWord, err
	}
	return api.applyAssetChange(asset, false)
}

func requireOwnFaucet(acc *Account, asset Word) error {
	var faucetPrefix Felt
	switch KindOf(asset) {
	case KindFungible:
		faucetPrefix = asset[3]
	case KindNonFungible:
		faucetPrefix = NonFungibleAssetFaucetPrefix(asset)
	}
	if faucetPrefix != acc.ID.Prefix {
		return kerr(ErrMalformedAsset, "mint/burn asset does not belong to the calling faucet")
	}
	return ValidateAssetFaucetType(asset, acc.ID.Type())
}

// AddAsset adds asset to the current account's vault (§4.3), e.g. when
// receiving it from a consumed input note.
func (api *AccountAPI) AddAsset(asset Word) (Word, error) {
	restore := api.ctx.elevateToAccount()
	defer restore()
	if err := api.ctx.RequireContext(ProcedureTags(CtxAccount)); err != nil {
		return EmptyWord, err
	}
	if err := api.requireNativeMutation(); err != nil {
		return EmptyWord, err
	}
	return api.applyAssetChange(asset, true)
}

// RemoveAsset removes asset from the current account's vault, e.g. before
// attaching it to an output note.
func (api *AccountAPI) RemoveAsset(asset Word) (Word, error) {
	restore := api.ctx.elevateToAccount()
	defer restore()
	if err := api.ctx.RequireContext(ProcedureTags(CtxAccount)); err != nil {
		return EmptyWord, err
	}
	if err := api.requireNativeMutation(); err != nil {
		return EmptyWord, err
	}
	return api.applyAssetChange(asset, false)
}

func (api *AccountAPI) applyAssetChange(asset Word, add bool) (Word, error) {
	acc := api.account()
	switch KindOf(asset) {
	case KindFungible:
		var result Word
		var err error
		if add {
			result, err = acc.Vault.AddFungible(asset)
		} else {
			result, err = acc.Vault.RemoveFungible(asset)
		}
		if err != nil {
			return EmptyWord, err
		}
		amount := int64(FungibleAssetAmount(asset))
		if !add {
			amount = -amount
		}
		if err := api.delta.recordFungibleDelta(asset[3], asset[2], amount); err != nil {
			return EmptyWord, err
		}
		return result, nil
	default:
		var result Word
		var err error
		if add {
			result, err = acc.Vault.AddNonFungible(asset)
		} else {
			result, err = acc.Vault.RemoveNonFungible(asset)
		}
		if err != nil {
			return EmptyWord, err
		}
		delta := int64(1)
		if !add {
			delta = -1
		}
		if err := api.delta.recordNonFungibleDelta(asset, delta); err != nil {
			return EmptyWord, err
		}
		return result, nil
	}
}

// GetBalance reads the current account's fungible balance for faucet.
// Reads are unrestricted: no mutation takes place.
func (api *AccountAPI) GetBalance(faucet AccountID) (uint64, error) {
	return api.account().Vault.GetBalance(faucet)
}

// HasNonFungible reports whether the current account's vault holds asset.
func (api *AccountAPI) HasNonFungible(asset Word) (bool, error) {
	return api.account().Vault.HasNonFungible(asset)
}

// GetItem reads storage slot i of the current account.
func (api *AccountAPI) GetItem(i int) (Word, error) {
	return api.account().Storage.GetItem(i)
}

// SetItem writes storage slot i of the current account.
func (api *AccountAPI) SetItem(i int, v Word) (Word, error) {
	restore := api.ctx.elevateToAccount()
	defer restore()
	if err := api.ctx.RequireContext(ProcedureTags(CtxAccount)); err != nil {
		return EmptyWord, err
	}
	if err := api.requireNativeMutation(); err != nil {
		return EmptyWord, err
	}
	// Value-slot deltas are derived at commit time by diffing live storage
	// against the snapshot AccountDelta captured in the prologue, so no
	// further bookkeeping is needed here.
	return api.account().Storage.SetItem(i, v)
}

// GetMapItem reads key from storage slot i's map.
func (api *AccountAPI) GetMapItem(i int, key Word) (Word, error) {
	return api.account().Storage.GetMapItem(i, key)
}

// SetMapItem writes key to newVal in storage slot i's map.
func (api *AccountAPI) SetMapItem(i int, key, newVal Word) (Digest, Word, error) {
	restore := api.ctx.elevateToAccount()
	defer restore()
	if err := api.ctx.RequireContext(ProcedureTags(CtxAccount)); err != nil {
		return EmptyWord, EmptyWord, err
	}
	if err := api.requireNativeMutation(); err != nil {
		return EmptyWord, EmptyWord, err
	}
	oldRoot, oldValue, err := api.account().Storage.SetMapItem(i, key, newVal)
	if err != nil {
		return EmptyWord, EmptyWord, err
	}
	if oldValue != newVal {
		if err := api.delta.recordStorageMapChange(i, key, oldValue, newVal); err != nil {
			return EmptyWord, EmptyWord, err
		}
	}
	return oldRoot, oldValue, nil
}

// CreateNote creates a new output note and returns its index within this
// transaction's output notes.
func (api *AccountAPI) CreateNote(sender AccountID, noteType NoteType, hint ExecutionHint, userTag uint32, aux Felt, recipient Digest) (int, error) {
	restore := api.ctx.elevateToAccount()
	defer restore()
	if err := api.ctx.RequireContext(ProcedureTags(CtxAccount | CtxNative)); err != nil {
		return 0, err
	}
	if len(api.ctx.outputNotes) >= api.ctx.params.MaxOutputNotes {
		return 0, kerrf(ErrOutputNoteLimit, "output note limit %d exceeded", api.ctx.params.MaxOutputNotes)
	}
	metadata, err := BuildMetadata(sender, noteType, hint, userTag)
	if err != nil {
		return 0, err
	}
	_ = aux // aux is an opaque, caller-defined auxiliary value; not interpreted by the kernel.
	api.ctx.outputNotes = append(api.ctx.outputNotes, &OutputNote{Recipient: recipient, Metadata: metadata})
	return len(api.ctx.outputNotes) - 1, nil
}

// AddAssetToNote appends asset to output note noteIndex's asset list.
func (api *AccountAPI) AddAssetToNote(asset Word, noteIndex int) error {
	restore := api.ctx.elevateToAccount()
	defer restore()
	if err := api.ctx.RequireContext(ProcedureTags(CtxAccount | CtxNative)); err != nil {
		return err
	}
	if noteIndex < 0 || noteIndex >= len(api.ctx.outputNotes) {
		return kerrf(ErrInvalidContext, "output note index %d out of range", noteIndex)
	}
	note := api.ctx.outputNotes[noteIndex]
	if len(note.Assets) >= api.ctx.params.MaxAssetsPerNote {
		return kerrf(ErrAssetsPerNoteLimit, "output note %d asset limit %d exceeded", noteIndex, api.ctx.params.MaxAssetsPerNote)
	}
	if _, err := api.RemoveAsset(asset); err != nil {
		return err
	}
	note.Assets = append(note.Assets, asset)
	return nil
}

// UpdateExpirationBlockDelta lowers the transaction's expiration block
// delta. An attempt to increase it is a silent no-op, leaving the existing
// value in place; only zero (out of the valid [1,0xFFFF] range) is rejected
// outright (§3, §4.6).
func (api *AccountAPI) UpdateExpirationBlockDelta(newDelta uint32) error {
	restore := api.ctx.elevateToAccount()
	defer restore()
	if err := api.ctx.RequireContext(ProcedureTags(CtxAccount | CtxNative)); err != nil {
		return err
	}
	if newDelta == 0 {
		return kerrf(ErrExpirationDeltaInvalid, "expiration block delta must be in [1,%d], got 0", 0xFFFF)
	}
	if newDelta > api.ctx.expirationBlockDelta {
		return nil
	}
	api.ctx.expirationBlockDelta = newDelta
	return nil
}

// IncrementNonce increments the account's nonce. Callable only from within
// the single epilogue auth invocation (§4.7).
func (api *AccountAPI) IncrementNonce() error {
	if err := api.ctx.RequireContext(ProcedureTags(CtxAuth)); err != nil {
		return kerr(ErrNonceIncrementOutside, "nonce may only be incremented from the auth procedure")
	}
	if err := api.delta.IncrementNonce(); err != nil {
		return err
	}
	api.account().Nonce = api.account().Nonce.Add(1)
	return nil
}

// AuthenticateAndTrackProcedure records procID as having run this
// transaction (§4.8); it is the only kernel entry point that sets that
// record. AssertAuthProcedure only reads it and records nothing itself. Any
// access-control list built atop "was this procedure already called" must
// route through these two so the bookkeeping stays centralized and
// auditable.
func (api *AccountAPI) AuthenticateAndTrackProcedure(procID string) {
	api.ctx.markCalled(procID)
}

// AssertAuthProcedure fails unless procID has already been recorded as
// called this transaction, and requires the current context to be Auth.
func (api *AccountAPI) AssertAuthProcedure(procID string) error {
	if err := api.ctx.RequireContext(ProcedureTags(CtxAuth)); err != nil {
		return err
	}
	if !api.ctx.WasCalled(procID) {
		return kerr(ErrAuthProcedureMissing, "required procedure "+procID+" was not called")
	}
	return nil
}
