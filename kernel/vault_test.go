package kernel

import "testing"

func TestVault_AddFungibleAccumulatesBalance(t *testing.T) {
	v := NewAssetVault(NewArena(), 0)
	faucet := newTestAccountID(t, AccountTypeFungibleFaucet)
	a1, _ := NewFungibleAsset(faucet.Prefix, faucet.Suffix, 100)
	a2, _ := NewFungibleAsset(faucet.Prefix, faucet.Suffix, 50)

	if _, err := v.AddFungible(a1); err != nil {
		t.Fatal(err)
	}
	if _, err := v.AddFungible(a2); err != nil {
		t.Fatal(err)
	}
	bal, err := v.GetBalance(faucet)
	if err != nil {
		t.Fatal(err)
	}
	if bal != 150 {
		t.Fatalf("got=%d, want 150", bal)
	}
}

func TestVault_AddFungibleRejectsOverflow(t *testing.T) {
	v := NewAssetVault(NewArena(), 0)
	faucet := AccountID{Prefix: NewFelt(1), Suffix: NewFelt(2)}
	a1, _ := NewFungibleAsset(faucet.Prefix, faucet.Suffix, MaxFungibleAmount)
	a2, _ := NewFungibleAsset(faucet.Prefix, faucet.Suffix, 1)

	if _, err := v.AddFungible(a1); err != nil {
		t.Fatal(err)
	}
	if _, err := v.AddFungible(a2); err == nil {
		t.Fatalf("expected overflow error")
	} else if code, _ := CodeOf(err); code != ErrFungibleOverflow {
		t.Fatalf("got code %v, want %v", code, ErrFungibleOverflow)
	}
}

func TestVault_RemoveFungibleRejectsUnderflow(t *testing.T) {
	v := NewAssetVault(NewArena(), 0)
	faucet := AccountID{Prefix: NewFelt(1), Suffix: NewFelt(2)}
	a, _ := NewFungibleAsset(faucet.Prefix, faucet.Suffix, 100)
	if _, err := v.AddFungible(a); err != nil {
		t.Fatal(err)
	}
	tooMuch, _ := NewFungibleAsset(faucet.Prefix, faucet.Suffix, 101)
	if _, err := v.RemoveFungible(tooMuch); err == nil {
		t.Fatalf("expected underflow error")
	} else if code, _ := CodeOf(err); code != ErrFungibleUnderflow {
		t.Fatalf("got code %v, want %v", code, ErrFungibleUnderflow)
	}
}

func TestVault_AddNonFungibleRejectsDuplicate(t *testing.T) {
	v := NewAssetVault(NewArena(), 0)
	asset, _ := NewNonFungibleAsset(NewFelt(1), NewFelt(2), NewFelt(3), NewFelt(4))
	if _, err := v.AddNonFungible(asset); err != nil {
		t.Fatal(err)
	}
	if _, err := v.AddNonFungible(asset); err == nil {
		t.Fatalf("expected duplicate error")
	} else if code, _ := CodeOf(err); code != ErrNonFungibleDuplicate {
		t.Fatalf("got code %v, want %v", code, ErrNonFungibleDuplicate)
	}
}

func TestVault_RemoveNonFungibleRejectsAbsent(t *testing.T) {
	v := NewAssetVault(NewArena(), 0)
	asset, _ := NewNonFungibleAsset(NewFelt(1), NewFelt(2), NewFelt(3), NewFelt(4))
	if _, err := v.RemoveNonFungible(asset); err == nil {
		t.Fatalf("expected not-found error")
	} else if code, _ := CodeOf(err); code != ErrNonFungibleNotFound {
		t.Fatalf("got code %v, want %v", code, ErrNonFungibleNotFound)
	}
}

func TestVault_HasNonFungible(t *testing.T) {
	v := NewAssetVault(NewArena(), 0)
	asset, _ := NewNonFungibleAsset(NewFelt(1), NewFelt(2), NewFelt(3), NewFelt(4))
	has, err := v.HasNonFungible(asset)
	if err != nil {
		t.Fatal(err)
	}
	if has {
		t.Fatalf("expected asset to be absent before Add")
	}
	if _, err := v.AddNonFungible(asset); err != nil {
		t.Fatal(err)
	}
	has, err = v.HasNonFungible(asset)
	if err != nil {
		t.Fatal(err)
	}
	if !has {
		t.Fatalf("expected asset to be present after Add")
	}
}

func TestVault_EntriesEnumeratesNonEmptyLeaves(t *testing.T) {
	v := NewAssetVault(NewArena(), 0)
	faucet := AccountID{Prefix: NewFelt(1), Suffix: NewFelt(2)}
	a, _ := NewFungibleAsset(faucet.Prefix, faucet.Suffix, 10)
	if _, err := v.AddFungible(a); err != nil {
		t.Fatal(err)
	}
	entries := v.Entries()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if FungibleAssetAmount(entries[0][1]) != 10 {
		t.Fatalf("got amount=%d, want 10", FungibleAssetAmount(entries[0][1]))
	}
}
