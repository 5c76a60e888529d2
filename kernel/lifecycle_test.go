package kernel

import "testing"

// testSigner is a minimal stand-in for auth.SoftwareProvider, avoiding an
// import cycle (auth imports kernel): it exercises the same AuthProcedure
// contract (mark the auth procedure as called, then increment the nonce)
// without a real signature scheme.
type testSigner struct{}

func (testSigner) authProcedure() AuthProcedure {
	return func(ctx *TxContext, authArgs []Felt) error {
		ctx.API().AuthenticateAndTrackProcedure("auth::verify_signature")
		return ctx.API().IncrementNonce()
	}
}

func newLifecycleFixture(t *testing.T) (acc *Account, faucet AccountID, ref ReferenceBlock, auth AuthProcedure) {
	t.Helper()
	id := newTestAccountID(t, AccountTypeRegularUpdatable)
	acc = NewAccount(id, NewFelt(0), EmptyWord)
	faucet = newTestAccountID(t, AccountTypeFungibleFaucet)

	asset, err := NewFungibleAsset(faucet.Prefix, faucet.Suffix, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := acc.Vault.AddFungible(asset); err != nil {
		t.Fatal(err)
	}

	ref = ReferenceBlock{
		Commitment:          k(1),
		Number:              500,
		FeeFaucet:           faucet,
		VerificationBaseFee: 1,
	}
	auth = testSigner{}.authProcedure()
	return
}

func TestExecute_PayToRecipientHappyPath(t *testing.T) {
	acc, faucet, ref, authProc := newLifecycleFixture(t)
	initialCommitment := acc.Commitment()

	txScript := func(ctx *TxContext) error {
		api := ctx.API()
		idx, err := api.CreateNote(acc.ID, NoteTypePublic, ExecutionHint{}, 0, 0, EmptyWord)
		if err != nil {
			return err
		}
		asset, err := NewFungibleAsset(faucet.Prefix, faucet.Suffix, 200)
		if err != nil {
			return err
		}
		return api.AddAssetToNote(asset, idx)
	}

	result, err := Execute(ref, initialCommitment, acc, nil, 100, txScript, authProc, nil, 0, DefaultConfig())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.FinalAccountCommitment == initialCommitment {
		t.Fatalf("final commitment equals initial commitment")
	}
	if result.DeltaCommitment == EmptyWord {
		t.Fatalf("expected a non-empty delta commitment")
	}
	wantFee := ComputeFee(ref.VerificationBaseFee, 0, DefaultParams().EstimatedAfterComputeFeeCycles)
	if FungibleAssetAmount(result.FeeAsset) != wantFee {
		t.Fatalf("got fee=%d, want=%d", FungibleAssetAmount(result.FeeAsset), wantFee)
	}
	bal, err := acc.Vault.GetBalance(faucet)
	if err != nil {
		t.Fatal(err)
	}
	if want := 1000 - 200 - wantFee; bal != want {
		t.Fatalf("got final balance=%d, want=%d", bal, want)
	}
	if result.ExpirationBlockNum != ref.Number+100 {
		t.Fatalf("got expiration=%d, want=%d", result.ExpirationBlockNum, ref.Number+100)
	}
}

func TestExecute_RejectsAccountCommitmentMismatch(t *testing.T) {
	acc, _, ref, authProc := newLifecycleFixture(t)
	wrongCommitment := k(0xDEAD)
	_, err := Execute(ref, wrongCommitment, acc, nil, 100, nil, authProc, nil, 0, DefaultConfig())
	if err == nil {
		t.Fatalf("expected commitment mismatch error")
	}
	if code, _ := CodeOf(err); code != ErrAccountCommitmentMismatch {
		t.Fatalf("got code %v, want %v", code, ErrAccountCommitmentMismatch)
	}
}

func TestExecute_FeePaymentWithoutNonceIncrementIsRejected(t *testing.T) {
	id := newTestAccountID(t, AccountTypeRegularUpdatable)
	acc := NewAccount(id, NewFelt(0), EmptyWord)
	faucet := newTestAccountID(t, AccountTypeFungibleFaucet)
	asset, _ := NewFungibleAsset(faucet.Prefix, faucet.Suffix, 1000)
	if _, err := acc.Vault.AddFungible(asset); err != nil {
		t.Fatal(err)
	}
	ref := ReferenceBlock{Commitment: k(1), Number: 1, FeeFaucet: faucet, VerificationBaseFee: 1}

	// Paying the fee always mutates the vault, so an auth procedure that
	// authenticates without incrementing the nonce can never produce a
	// consistent delta commitment, even for an otherwise inert transaction.
	noOpAuth := func(ctx *TxContext, authArgs []Felt) error {
		ctx.API().AuthenticateAndTrackProcedure("auth::noop")
		return nil
	}
	_, err := Execute(ref, acc.Commitment(), acc, nil, 100, nil, noOpAuth, nil, 0, DefaultConfig())
	if err == nil {
		t.Fatalf("expected a nonce-inconsistency error")
	}
	if code, _ := CodeOf(err); code != ErrNonceInconsistent {
		t.Fatalf("got code %v, want %v", code, ErrNonceInconsistent)
	}
}

func TestExecute_RejectsExpirationDeltaOutOfRange(t *testing.T) {
	acc, _, ref, authProc := newLifecycleFixture(t)
	_, err := Execute(ref, acc.Commitment(), acc, nil, 0, nil, authProc, nil, 0, DefaultConfig())
	if err == nil {
		t.Fatalf("expected expiration delta range error")
	}
	if code, _ := CodeOf(err); code != ErrExpirationDeltaInvalid {
		t.Fatalf("got code %v, want %v", code, ErrExpirationDeltaInvalid)
	}
}

func TestExecute_RejectsInsufficientFeeBalance(t *testing.T) {
	id := newTestAccountID(t, AccountTypeRegularUpdatable)
	acc := NewAccount(id, NewFelt(0), EmptyWord)
	faucet := newTestAccountID(t, AccountTypeFungibleFaucet)
	// Fund with far less than the fee the default config will compute.
	asset, _ := NewFungibleAsset(faucet.Prefix, faucet.Suffix, 1)
	if _, err := acc.Vault.AddFungible(asset); err != nil {
		t.Fatal(err)
	}
	ref := ReferenceBlock{Commitment: k(1), Number: 1, FeeFaucet: faucet, VerificationBaseFee: 1000000}
	authProc := testSigner{}.authProcedure()

	txScript := func(ctx *TxContext) error {
		return ctx.API().UpdateExpirationBlockDelta(50)
	}
	_, err := Execute(ref, acc.Commitment(), acc, nil, 100, txScript, authProc, nil, 0, DefaultConfig())
	if err == nil {
		t.Fatalf("expected insufficient fee balance error")
	}
	if code, _ := CodeOf(err); code != ErrFeeInsufficientVault {
		t.Fatalf("got code %v, want %v", code, ErrFeeInsufficientVault)
	}
}

func TestExecute_RejectsInputNoteCountOverLimit(t *testing.T) {
	acc, _, ref, authProc := newLifecycleFixture(t)
	cfg := DefaultConfig()
	cfg.Params.MaxInputNotes = 1
	notes := []*InputNote{
		{SerialNumber: k(1), Script: func(ctx *TxContext) error { return nil }},
		{SerialNumber: k(2), Script: func(ctx *TxContext) error { return nil }},
	}
	_, err := Execute(ref, acc.Commitment(), acc, notes, 100, nil, authProc, nil, 0, cfg)
	if err == nil {
		t.Fatalf("expected input note limit error")
	}
	if code, _ := CodeOf(err); code != ErrInputNoteLimit {
		t.Fatalf("got code %v, want %v", code, ErrInputNoteLimit)
	}
}
