package kernel

// AssetKind distinguishes fungible from non-fungible assets.
type AssetKind int

const (
	KindFungible AssetKind = iota
	KindNonFungible
)

// MaxFungibleAmount is the largest amount a single fungible asset word may
// carry (§3): 2^63 - 1.
const MaxFungibleAmount uint64 = (1 << 63) - 1

const fungibleBit uint64 = 0x20

// IsFungibleAssetWord reports an asset word's kind by inspecting position 2,
// per §3: zero means fungible, non-zero means non-fungible.
func IsFungibleAssetWord(w Word) bool { return w[2].IsZero() }

// KindOf returns the kind of an asset word.
func KindOf(w Word) AssetKind {
	if IsFungibleAssetWord(w) {
		return KindFungible
	}
	return KindNonFungible
}

// NewFungibleAsset builds a fungible asset word [amount, 0, faucet_suffix,
// faucet_prefix] for the given faucet and amount.
func NewFungibleAsset(faucetPrefix, faucetSuffix Felt, amount uint64) (Word, error) {
	if amount > MaxFungibleAmount {
		return EmptyWord, kerrf(ErrFungibleOverflow, "fungible amount %d exceeds max %d", amount, MaxFungibleAmount)
	}
	return Word{NewFelt(amount), 0, faucetSuffix, faucetPrefix}, nil
}

// FungibleAssetAmount extracts the amount carried by a fungible asset word.
func FungibleAssetAmount(w Word) uint64 { return w[0].Uint64() }

// FungibleAssetFaucet extracts the issuing faucet id from a fungible asset
// word.
func FungibleAssetFaucet(w Word) AccountID { return AccountID{Prefix: w[3], Suffix: w[2]} }

// NewNonFungibleAsset builds a non-fungible asset word [hash0, hash1, hash2,
// faucet_prefix]. hash2 (position 2) must be non-zero so the word is
// distinguishable from a fungible asset under the §3 classification rule.
func NewNonFungibleAsset(hash0, hash1, hash2, faucetPrefix Felt) (Word, error) {
	if hash2.IsZero() {
		return EmptyWord, kerr(ErrMalformedAsset, "non-fungible asset position-2 element must be non-zero")
	}
	return Word{hash0, hash1, hash2, faucetPrefix}, nil
}

// NonFungibleAssetFaucetPrefix extracts the issuing faucet id prefix from a
// non-fungible asset word.
func NonFungibleAssetFaucetPrefix(w Word) Felt { return w[3] }

// ValidateAssetFaucetType checks that an asset word's kind matches the type
// of its issuing faucet account.
func ValidateAssetFaucetType(w Word, faucetType AccountType) error {
	switch KindOf(w) {
	case KindFungible:
		if faucetType != AccountTypeFungibleFaucet {
			return kerr(ErrMalformedAsset, "fungible asset issued by a non-fungible-faucet account")
		}
	case KindNonFungible:
		if faucetType != AccountTypeNonFungibleFaucet {
			return kerr(ErrMalformedAsset, "non-fungible asset issued by a non-faucet or fungible-faucet account")
		}
	}
	return nil
}

// FungibleVaultKey builds the sparse-merkle key under which a fungible
// balance for the given faucet is stored: [faucet_prefix, faucet_suffix, 0, 0].
func FungibleVaultKey(faucetPrefix, faucetSuffix Felt) Word {
	return Word{faucetPrefix, faucetSuffix, 0, 0}
}

func clearFungibleBit(f Felt) Felt {
	return NewFelt(f.Uint64() &^ fungibleBit)
}

// NonFungibleVaultKey builds the sparse-merkle key for a non-fungible asset:
// the asset word itself with its fungible-classification bit cleared in
// position 0, so that keys never collide with fungible vault keys.
func NonFungibleVaultKey(asset Word) Word {
	key := asset
	key[0] = clearFungibleBit(key[0])
	return key
}
