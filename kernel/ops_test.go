package kernel

import "testing"

func newOpsTestFixture(t *testing.T, accType AccountType) (*Account, *TxContext, *AccountAPI) {
	t.Helper()
	id := newTestAccountID(t, accType)
	acc := NewAccount(id, NewFelt(0), EmptyWord)
	ctx := NewTxContext(acc, nil, DefaultParams())
	delta := NewAccountDelta(acc.Storage.arena, acc)
	api := NewAccountAPI(ctx, delta)
	return acc, ctx, api
}

func TestAccountAPI_MintAssetRequiresFaucetAccount(t *testing.T) {
	acc, ctx, api := newOpsTestFixture(t, AccountTypeRegularUpdatable)
	_ = ctx
	asset, _ := NewFungibleAsset(acc.ID.Prefix, acc.ID.Suffix, 10)
	if _, err := api.MintAsset(asset); err == nil {
		t.Fatalf("expected MintAsset to fail from a regular (non-faucet) account")
	}
}

func TestAccountAPI_MintAssetRequiresOwnFaucet(t *testing.T) {
	acc, _, api := newOpsTestFixture(t, AccountTypeFungibleFaucet)
	other := AccountID{Prefix: NewFelt(0x100 | uint64(AccountTypeFungibleFaucet)<<4), Suffix: NewFelt(0x1234_5600)}
	if err := ValidateAccountID(other); err != nil {
		t.Fatal(err)
	}
	asset, _ := NewFungibleAsset(other.Prefix, other.Suffix, 10)
	if _, err := api.MintAsset(asset); err == nil {
		t.Fatalf("expected MintAsset to reject an asset from a different faucet")
	}
	_ = acc
}

func TestAccountAPI_MintAssetSucceedsForOwnFaucet(t *testing.T) {
	acc, _, api := newOpsTestFixture(t, AccountTypeFungibleFaucet)
	asset, _ := NewFungibleAsset(acc.ID.Prefix, acc.ID.Suffix, 500)
	if _, err := api.MintAsset(asset); err != nil {
		t.Fatalf("expected mint to succeed: %v", err)
	}
	bal, err := acc.Vault.GetBalance(acc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if bal != 500 {
		t.Fatalf("got balance=%d, want 500", bal)
	}
}

func TestAccountAPI_UpdateExpirationBlockDeltaRejectsZero(t *testing.T) {
	_, ctx, api := newOpsTestFixture(t, AccountTypeRegularUpdatable)
	ctx.expirationBlockDelta = 100
	restore := ctx.Enter(CtxNative)
	defer restore()
	if err := api.UpdateExpirationBlockDelta(0); err == nil {
		t.Fatalf("expected an error for a zero expiration block delta")
	}
	if ctx.expirationBlockDelta != 100 {
		t.Fatalf("rejected update mutated expirationBlockDelta to %d", ctx.expirationBlockDelta)
	}
}

func TestAccountAPI_UpdateExpirationBlockDeltaDecreaseApplies(t *testing.T) {
	_, ctx, api := newOpsTestFixture(t, AccountTypeRegularUpdatable)
	ctx.expirationBlockDelta = 100
	restore := ctx.Enter(CtxNative)
	defer restore()
	if err := api.UpdateExpirationBlockDelta(10); err != nil {
		t.Fatalf("expected decrease to succeed: %v", err)
	}
	if ctx.expirationBlockDelta != 10 {
		t.Fatalf("got expirationBlockDelta=%d, want 10", ctx.expirationBlockDelta)
	}
}

// An attempted increase after a decrease must be a silent no-op, leaving
// the previously-lowered value in place rather than aborting the
// transaction or applying the larger value.
func TestAccountAPI_UpdateExpirationBlockDeltaIncreaseAfterDecreaseIsNoOp(t *testing.T) {
	_, ctx, api := newOpsTestFixture(t, AccountTypeRegularUpdatable)
	ctx.expirationBlockDelta = 100
	restore := ctx.Enter(CtxNative)
	defer restore()
	if err := api.UpdateExpirationBlockDelta(10); err != nil {
		t.Fatalf("expected decrease to succeed: %v", err)
	}
	if err := api.UpdateExpirationBlockDelta(50); err != nil {
		t.Fatalf("expected attempted increase to be a silent no-op, got error: %v", err)
	}
	if ctx.expirationBlockDelta != 10 {
		t.Fatalf("attempted increase changed expirationBlockDelta to %d, want unchanged 10", ctx.expirationBlockDelta)
	}
}

func TestAccountAPI_AddAssetFailsOnForeignAccount(t *testing.T) {
	_, ctx, api := newOpsTestFixture(t, AccountTypeRegularUpdatable)
	foreign := newRegularTestAccount(t)
	restore := ctx.StartForeignContext(foreign)
	defer restore()

	asset, _ := NewFungibleAsset(NewFelt(1), NewFelt(2), 1)
	if _, err := api.AddAsset(asset); err == nil {
		t.Fatalf("expected mutation to fail while a foreign account is in scope")
	}
}

func TestAccountAPI_CreateNoteThenAddAssetToNote(t *testing.T) {
	acc, ctx, api := newOpsTestFixture(t, AccountTypeRegularUpdatable)
	faucet := newTestAccountID(t, AccountTypeFungibleFaucet)
	funding, _ := NewFungibleAsset(faucet.Prefix, faucet.Suffix, 100)
	if _, err := acc.Vault.AddFungible(funding); err != nil {
		t.Fatal(err)
	}

	restore := ctx.Enter(CtxNative)
	defer restore()

	idx, err := api.CreateNote(acc.ID, NoteTypePublic, ExecutionHint{}, 0, 0, EmptyWord)
	if err != nil {
		t.Fatal(err)
	}
	asset, _ := NewFungibleAsset(faucet.Prefix, faucet.Suffix, 40)
	if err := api.AddAssetToNote(asset, idx); err != nil {
		t.Fatal(err)
	}

	if len(ctx.outputNotes) != 1 || len(ctx.outputNotes[0].Assets) != 1 {
		t.Fatalf("expected exactly one output note carrying one asset")
	}
	bal, err := acc.Vault.GetBalance(faucet)
	if err != nil {
		t.Fatal(err)
	}
	if bal != 60 {
		t.Fatalf("got remaining balance=%d, want 60", bal)
	}
}

func TestAccountAPI_IncrementNonceOnlyFromAuthContext(t *testing.T) {
	_, ctx, api := newOpsTestFixture(t, AccountTypeRegularUpdatable)
	if err := api.IncrementNonce(); err == nil {
		t.Fatalf("expected IncrementNonce to fail outside Auth context")
	}
	restore := ctx.Enter(CtxAuth)
	defer restore()
	if err := api.IncrementNonce(); err != nil {
		t.Fatalf("expected IncrementNonce to succeed in Auth context: %v", err)
	}
}

func TestAccountAPI_AssertAuthProcedureRequiresPriorTracking(t *testing.T) {
	_, ctx, api := newOpsTestFixture(t, AccountTypeRegularUpdatable)
	restore := ctx.Enter(CtxAuth)
	defer restore()

	if err := api.AssertAuthProcedure("auth::verify_signature"); err == nil {
		t.Fatalf("expected failure before the procedure has been tracked")
	}
	api.AuthenticateAndTrackProcedure("auth::verify_signature")
	if err := api.AssertAuthProcedure("auth::verify_signature"); err != nil {
		t.Fatalf("expected success after tracking: %v", err)
	}
}
