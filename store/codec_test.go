package store

import (
	"testing"

	"txkernel.dev/kernel"
)

func TestEncodeDecodeReferenceBlock_Roundtrip(t *testing.T) {
	faucet := testAccountID(t, kernel.AccountTypeFungibleFaucet)
	ref := kernel.ReferenceBlock{
		Commitment:          k(7),
		Number:              1000,
		FeeFaucet:           faucet,
		VerificationBaseFee: 55,
	}
	got, err := decodeReferenceBlock(encodeReferenceBlock(ref))
	if err != nil {
		t.Fatal(err)
	}
	if got != ref {
		t.Fatalf("got=%+v, want=%+v", got, ref)
	}
}

func TestDecodeReferenceBlock_RejectsTruncated(t *testing.T) {
	if _, err := decodeReferenceBlock([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected a truncation error")
	}
}

func TestEncodeDecodeExecutionResult_Roundtrip(t *testing.T) {
	res := kernel.ExecutionResult{
		FinalAccountCommitment:  k(1),
		DeltaCommitment:         k(2),
		AccountUpdateCommitment: k(3),
		OutputNotesCommitment:   k(4),
		InputNotesCommitment:    k(5),
		FeeAsset:                k(6),
		ExpirationBlockNum:      0xDEADBEEF,
	}
	got, err := decodeExecutionResult(encodeExecutionResult(res))
	if err != nil {
		t.Fatal(err)
	}
	if got != res {
		t.Fatalf("got=%+v, want=%+v", got, res)
	}
}

func TestDecodeExecutionResult_RejectsTruncated(t *testing.T) {
	if _, err := decodeExecutionResult([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected a truncation error")
	}
}

func TestSnapshotAccount_RoundtripWithMultipleVaultEntriesAndStorage(t *testing.T) {
	id := testAccountID(t, kernel.AccountTypeRegularUpdatable)
	faucetA := testAccountID(t, kernel.AccountTypeFungibleFaucet)
	faucetB := kernel.AccountID{Prefix: kernel.NewFelt(uint64(kernel.AccountTypeFungibleFaucet) << 4), Suffix: kernel.NewFelt(0x9900)}
	if err := kernel.ValidateAccountID(faucetB); err != nil {
		t.Fatalf("constructed an invalid faucet id: %v", err)
	}

	acc := kernel.NewAccount(id, kernel.NewFelt(2), k(0xCAFE))
	assetA, err := kernel.NewFungibleAsset(faucetA.Prefix, faucetA.Suffix, 10)
	if err != nil {
		t.Fatal(err)
	}
	assetB, err := kernel.NewFungibleAsset(faucetB.Prefix, faucetB.Suffix, 20)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := acc.Vault.AddFungible(assetA); err != nil {
		t.Fatal(err)
	}
	if _, err := acc.Vault.AddFungible(assetB); err != nil {
		t.Fatal(err)
	}
	if _, err := acc.Storage.SetItem(0, k(1)); err != nil {
		t.Fatal(err)
	}
	if _, err := acc.Storage.SetItem(254, k(2)); err != nil {
		t.Fatal(err)
	}

	snap := SnapshotAccount(acc)
	encoded, err := encodeAccountSnapshot(snap)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := decodeAccountSnapshot(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded.VaultEntries) != 2 {
		t.Fatalf("got %d vault entries, want 2", len(decoded.VaultEntries))
	}
	if decoded.StorageValues[0] != k(1) || decoded.StorageValues[254] != k(2) {
		t.Fatalf("storage values did not round-trip at the expected slots")
	}

	rebuilt, err := decoded.ToAccount()
	if err != nil {
		t.Fatal(err)
	}
	if rebuilt.Commitment() != acc.Commitment() {
		t.Fatalf("rebuilt account commitment does not match the original")
	}
}

func TestDecodeAccountSnapshot_RejectsTruncated(t *testing.T) {
	if _, err := decodeAccountSnapshot([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected a truncation error")
	}
}
