package kernel

// ReferenceBlock is the subset of chain state the kernel needs as input:
// the reference block's own commitment and number, and the fee asset's
// faucet and base rate (§3, §6).
type ReferenceBlock struct {
	Commitment          Digest
	Number              uint64
	FeeFaucet           AccountID
	VerificationBaseFee uint32
}

// TxScript is the transaction-wide script, run once in Native context after
// every input note's script has finished (§4.7). It reaches the privileged
// operation surface through ctx.API(), the same way note scripts do.
type TxScript func(ctx *TxContext) error

// AuthProcedure is the account's authentication procedure, run once at the
// start of the epilogue (§4.7). A real implementation verifies a signature
// over the transaction and then calls ctx.API().IncrementNonce(); this
// engine models it as a caller-supplied closure for the same reason note
// and transaction scripts are (see Script in note.go).
type AuthProcedure func(ctx *TxContext, authArgs []Felt) error

// ExecutionResult is everything Execute commits to, per §6.
type ExecutionResult struct {
	FinalAccountCommitment Digest
	DeltaCommitment        Digest
	AccountUpdateCommitment Digest
	OutputNotesCommitment  Digest
	InputNotesCommitment   Digest
	FeeAsset               Word
	ExpirationBlockNum     uint64
}

// Execute runs one full transaction against account: prologue, note loop,
// optional transaction script, and epilogue (§4.7). account and its
// backing arena are mutated in place; on any error the caller must discard
// account rather than reuse it, since the kernel does not roll back
// partial mutation (the source system relies on the surrounding prover
// aborting the whole proof on the first assertion failure, and this engine
// mirrors that fail-fast contract rather than emulating transactional
// rollback).
func Execute(
	ref ReferenceBlock,
	expectedInitialAccountCommitment Digest,
	account *Account,
	inputNotes []*InputNote,
	initialExpirationDelta uint32,
	txScript TxScript,
	auth AuthProcedure,
	authArgs []Felt,
	currentCycles uint64,
	cfg Config,
) (*ExecutionResult, error) {
	if err := ValidateAccountID(account.ID); err != nil {
		return nil, err
	}
	if err := ValidateParams(cfg.Params); err != nil {
		return nil, err
	}
	if len(inputNotes) > cfg.Params.MaxInputNotes {
		return nil, kerrf(ErrInputNoteLimit, "input note count %d exceeds limit %d", len(inputNotes), cfg.Params.MaxInputNotes)
	}
	if initialExpirationDelta == 0 || initialExpirationDelta > 0xFFFF {
		return nil, kerrf(ErrExpirationDeltaInvalid, "initial expiration block delta %d out of range [1,65535]", initialExpirationDelta)
	}

	initialAccountCommitment := account.Commitment()
	isNewAccount := expectedInitialAccountCommitment == EmptyWord
	if !isNewAccount && initialAccountCommitment != expectedInitialAccountCommitment {
		return nil, kerr(ErrAccountCommitmentMismatch, "account state does not match the supplied initial commitment")
	}

	ctx := NewTxContext(account, inputNotes, cfg.Params)
	ctx.expirationBlockDelta = initialExpirationDelta
	delta := NewAccountDelta(account.Storage.arena, account)
	NewAccountAPI(ctx, delta)

	inputNotesWords := make([]Word, 0, 2*len(inputNotes))
	for _, n := range inputNotes {
		inputNotesWords = append(inputNotesWords, n.ID(), n.Metadata.word())
	}
	inputNotesCommitment := SequentialHash(inputNotesWords...)

	initialVaultAssets := account.Vault.snapshotAssets()

	// Note loop (§4.7 step 2): each note's script runs in Note context.
	for i, n := range inputNotes {
		ctx.currentNoteIndex = i
		ctx.hasCurrentNote = true
		restore := ctx.Enter(CtxNote)
		err := n.Script(ctx)
		restore()
		if err != nil {
			return nil, err
		}
	}
	ctx.hasCurrentNote = false
	ctx.currentNoteIndex = -1

	// Transaction script (§4.7 step 3): runs once, in Native context.
	if txScript != nil {
		restore := ctx.Enter(CtxNative)
		err := txScript(ctx)
		restore()
		if err != nil {
			return nil, err
		}
	}

	// Epilogue (§4.7 step 4).
	if ctx.authCalled {
		return nil, kerr(ErrAuthCalledTwice, "auth procedure already invoked this transaction")
	}
	restoreAuth := ctx.Enter(CtxAuth | CtxAccount | CtxNative)
	authErr := auth(ctx, authArgs)
	restoreAuth()
	if authErr != nil {
		return nil, authErr
	}
	ctx.authCalled = true

	fee := ComputeFee(ref.VerificationBaseFee, currentCycles, cfg.Params.EstimatedAfterComputeFeeCycles)
	feeAsset, err := NewFungibleAsset(ref.FeeFaucet.Prefix, ref.FeeFaucet.Suffix, fee)
	if err != nil {
		return nil, err
	}
	if _, err := account.Vault.RemoveFungible(feeAsset); err != nil {
		return nil, kerrf(ErrFeeInsufficientVault, "insufficient balance to pay fee: %v", err)
	}
	if err := delta.recordFungibleDelta(ref.FeeFaucet.Prefix, ref.FeeFaucet.Suffix, -int64(fee)); err != nil {
		return nil, err
	}

	finalAccountCommitment := account.Commitment()
	deltaCommitment, err := delta.Commit()
	if err != nil {
		return nil, err
	}

	if finalAccountCommitment == initialAccountCommitment && inputNotesCommitment == EmptyWord {
		return nil, kerr(ErrEmptyTransaction, "transaction consumes no notes and changes no account state")
	}

	accountUpdateCommitment := HashWords(finalAccountCommitment, deltaCommitment)

	if err := checkVaultConservation(initialVaultAssets, inputNotes, account.Vault.snapshotAssets(), ctx.outputNotes, feeAsset); err != nil {
		return nil, err
	}

	outputNotesWords := make([]Word, 0, 2*len(ctx.outputNotes))
	for _, n := range ctx.outputNotes {
		outputNotesWords = append(outputNotesWords, n.ID(), n.Metadata.word())
	}
	outputNotesCommitment := SequentialHash(outputNotesWords...)

	return &ExecutionResult{
		FinalAccountCommitment:  finalAccountCommitment,
		DeltaCommitment:         deltaCommitment,
		AccountUpdateCommitment: accountUpdateCommitment,
		OutputNotesCommitment:   outputNotesCommitment,
		InputNotesCommitment:    inputNotesCommitment,
		FeeAsset:                feeAsset,
		ExpirationBlockNum:      ref.Number + uint64(ctx.expirationBlockDelta),
	}, nil
}

// checkVaultConservation asserts that the multiset of assets entering this
// transaction (the account's initial vault plus every input note's assets)
// equals the multiset leaving it (the account's final vault plus every
// output note's assets, plus the fee asset) — §4.7 step 7, §8's
// conservation property.
func checkVaultConservation(initialVault []Word, inputNotes []*InputNote, finalVault []Word, outputNotes []*OutputNote, feeAsset Word) error {
	in := assetMultiset{}
	in.addAll(initialVault)
	for _, n := range inputNotes {
		in.addAll(n.Assets)
	}

	out := assetMultiset{}
	out.addAll(finalVault)
	for _, n := range outputNotes {
		out.addAll(n.Assets)
	}
	out.add(feeAsset)

	if !in.equal(out) {
		return kerr(ErrAssetsNotPreserved, "input and output asset multisets do not match")
	}
	return nil
}

// assetMultiset aggregates fungible balances per faucet and counts
// non-fungible asset occurrences, for the conservation check above.
type assetMultiset struct {
	fungible    map[Word]uint64
	nonFungible map[Word]int
}

func (m *assetMultiset) add(asset Word) {
	if asset == EmptyWord {
		return
	}
	if IsFungibleAssetWord(asset) {
		if m.fungible == nil {
			m.fungible = make(map[Word]uint64)
		}
		key := FungibleVaultKey(asset[3], asset[2])
		m.fungible[key] += FungibleAssetAmount(asset)
		return
	}
	if m.nonFungible == nil {
		m.nonFungible = make(map[Word]int)
	}
	m.nonFungible[NonFungibleVaultKey(asset)]++
}

func (m *assetMultiset) addAll(assets []Word) {
	for _, a := range assets {
		m.add(a)
	}
}

func (m *assetMultiset) equal(other *assetMultiset) bool {
	if len(m.fungible) != len(other.fungible) || len(m.nonFungible) != len(other.nonFungible) {
		return false
	}
	for k, v := range m.fungible {
		if other.fungible[k] != v {
			return false
		}
	}
	for k, v := range m.nonFungible {
		if other.nonFungible[k] != v {
			return false
		}
	}
	return true
}
