// Command txkernel-cli is a thin JSON-over-stdio demonstration harness for
// the kernel package, adapted from the teacher's rubin-consensus-cli: one
// request in on stdin, one response out on stdout, no flags, no subcommand
// tree. It is not a node — each invocation handles one op; only the
// execute_transfer op drives a kernel.Execute call, and it persists the
// result via store.DB only when a datadir is given.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"txkernel.dev/auth"
	"txkernel.dev/kernel"
	"txkernel.dev/store"
)

// Request mirrors the teacher's flat op-keyed Request struct: every field
// any op might need, most left zero-valued by ops that don't use them.
type Request struct {
	Op string `json:"op"`

	DataDir string `json:"datadir,omitempty"`

	AccountPrefixHex     string `json:"account_prefix,omitempty"`
	AccountSuffixHex     string `json:"account_suffix,omitempty"`
	NonceHex             string `json:"nonce,omitempty"`
	CodeCommitmentHex    string `json:"code_commitment,omitempty"`
	InitialBalance       uint64 `json:"initial_balance,omitempty"`

	FaucetPrefixHex string `json:"faucet_prefix,omitempty"`
	FaucetSuffixHex string `json:"faucet_suffix,omitempty"`

	RecipientPrefixHex string `json:"recipient_prefix,omitempty"`
	RecipientSuffixHex string `json:"recipient_suffix,omitempty"`
	TransferAmount     uint64 `json:"transfer_amount,omitempty"`

	RefBlockNumber      uint64 `json:"ref_block_number,omitempty"`
	RefCommitmentHex    string `json:"ref_commitment,omitempty"`
	VerificationBaseFee uint32 `json:"verification_base_fee,omitempty"`
	CurrentCycles       uint64 `json:"current_cycles,omitempty"`
	ExpirationDelta     uint32 `json:"expiration_delta,omitempty"`

	SeedHex string `json:"seed,omitempty"`

	KekHex      string `json:"kek,omitempty"`
	KeyHex      string `json:"key,omitempty"`
	WrappedHex  string `json:"wrapped,omitempty"`
	WitnessFile string `json:"witness_file,omitempty"`
}

// Response mirrors the teacher's flat Response struct.
type Response struct {
	Ok  bool   `json:"ok"`
	Err string `json:"err,omitempty"`

	AccountCommitmentHex string `json:"account_commitment,omitempty"`
	PublicKeyHex         string `json:"public_key,omitempty"`
	WrappedHex           string `json:"wrapped,omitempty"`
	KeyHex               string `json:"key,omitempty"`

	FinalAccountCommitmentHex  string `json:"final_account_commitment,omitempty"`
	DeltaCommitmentHex         string `json:"delta_commitment,omitempty"`
	AccountUpdateCommitmentHex string `json:"account_update_commitment,omitempty"`
	OutputNotesCommitmentHex   string `json:"output_notes_commitment,omitempty"`
	InputNotesCommitmentHex    string `json:"input_notes_commitment,omitempty"`
	FeeAssetHex                string `json:"fee_asset,omitempty"`
	ExpirationBlockNum         uint64 `json:"expiration_block_num,omitempty"`
}

func writeResp(w io.Writer, resp Response) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}

func fail(err error) Response { return Response{Ok: false, Err: err.Error()} }

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResp(os.Stdout, Response{Ok: false, Err: fmt.Sprintf("bad request: %v", err)})
		return
	}

	switch req.Op {
	case "account_commitment":
		writeResp(os.Stdout, runAccountCommitment(req))
	case "new_signer":
		writeResp(os.Stdout, runNewSigner(req))
	case "seal_witness":
		writeResp(os.Stdout, runSealWitness(req))
	case "open_witness":
		writeResp(os.Stdout, runOpenWitness(req))
	case "execute_transfer":
		writeResp(os.Stdout, runExecuteTransfer(req))
	default:
		writeResp(os.Stdout, Response{Ok: false, Err: "unknown op"})
	}
}

func runAccountCommitment(req Request) Response {
	id, err := parseAccountID(req.AccountPrefixHex, req.AccountSuffixHex)
	if err != nil {
		return fail(err)
	}
	nonce, err := parseFelt(req.NonceHex)
	if err != nil {
		return fail(err)
	}
	codeCommitment, err := parseWord(req.CodeCommitmentHex)
	if err != nil {
		return fail(err)
	}
	acc := kernel.NewAccount(id, nonce, codeCommitment)
	if req.InitialBalance > 0 {
		faucet, err := parseAccountID(req.FaucetPrefixHex, req.FaucetSuffixHex)
		if err != nil {
			return fail(err)
		}
		asset, err := kernel.NewFungibleAsset(faucet.Prefix, faucet.Suffix, req.InitialBalance)
		if err != nil {
			return fail(err)
		}
		if _, err := acc.Vault.AddFungible(asset); err != nil {
			return fail(err)
		}
	}
	return Response{Ok: true, AccountCommitmentHex: wordHex(acc.Commitment())}
}

func runNewSigner(req Request) Response {
	var provider *auth.SoftwareProvider
	if req.SeedHex != "" {
		seedBytes, err := hex.DecodeString(req.SeedHex)
		if err != nil || len(seedBytes) != 32 {
			return fail(fmt.Errorf("seed must be 32 bytes hex"))
		}
		var seed [32]byte
		copy(seed[:], seedBytes)
		provider = auth.NewSoftwareProviderFromSeed(seed)
	} else {
		p, err := auth.NewSoftwareProvider()
		if err != nil {
			return fail(err)
		}
		provider = p
	}
	return Response{Ok: true, PublicKeyHex: hex.EncodeToString(provider.PublicKey())}
}

// runSealWitness wraps a signing key under a key-encryption key. If DataDir
// and WitnessFile are both set, the sealed witness is also persisted to disk;
// it is always returned inline as well.
func runSealWitness(req Request) Response {
	kek, err := hex.DecodeString(req.KekHex)
	if err != nil {
		return fail(fmt.Errorf("bad kek hex"))
	}
	key, err := hex.DecodeString(req.KeyHex)
	if err != nil {
		return fail(fmt.Errorf("bad key hex"))
	}
	wrapped, err := auth.SealWitness(kek, key)
	if err != nil {
		return fail(err)
	}
	if req.DataDir != "" && req.WitnessFile != "" {
		db, err := store.Open(req.DataDir)
		if err != nil {
			return fail(err)
		}
		defer db.Close()
		if err := db.SaveWitnessFile(req.WitnessFile, wrapped); err != nil {
			return fail(err)
		}
	}
	return Response{Ok: true, WrappedHex: hex.EncodeToString(wrapped)}
}

// runOpenWitness unwraps a sealed signing key, either from WrappedHex
// directly or, when DataDir and WitnessFile are set, from a witness blob
// previously persisted via runSealWitness.
func runOpenWitness(req Request) Response {
	kek, err := hex.DecodeString(req.KekHex)
	if err != nil {
		return fail(fmt.Errorf("bad kek hex"))
	}
	var wrapped []byte
	if req.DataDir != "" && req.WitnessFile != "" {
		db, err := store.Open(req.DataDir)
		if err != nil {
			return fail(err)
		}
		defer db.Close()
		wrapped, err = db.LoadWitnessFile(req.WitnessFile)
		if err != nil {
			return fail(err)
		}
	} else {
		wrapped, err = hex.DecodeString(req.WrappedHex)
		if err != nil {
			return fail(fmt.Errorf("bad wrapped hex"))
		}
	}
	key, err := auth.OpenWitness(kek, wrapped)
	if err != nil {
		return fail(err)
	}
	return Response{Ok: true, KeyHex: hex.EncodeToString(key)}
}

// runExecuteTransfer builds a funded account, a reference block, a
// transaction script that mints nothing but moves part of the account's own
// fungible balance into a single freshly created output note, signs the
// epilogue's auth procedure with a software key, runs kernel.Execute end to
// end, and, when DataDir is set, persists the reference block, the account
// snapshot and the result.
func runExecuteTransfer(req Request) Response {
	id, err := parseAccountID(req.AccountPrefixHex, req.AccountSuffixHex)
	if err != nil {
		return fail(err)
	}
	nonce, err := parseFelt(req.NonceHex)
	if err != nil {
		return fail(err)
	}
	codeCommitment, err := parseWord(req.CodeCommitmentHex)
	if err != nil {
		return fail(err)
	}
	faucet, err := parseAccountID(req.FaucetPrefixHex, req.FaucetSuffixHex)
	if err != nil {
		return fail(err)
	}
	recipient, err := parseAccountID(req.RecipientPrefixHex, req.RecipientSuffixHex)
	if err != nil {
		return fail(err)
	}
	refCommitment, err := parseWord(req.RefCommitmentHex)
	if err != nil {
		return fail(err)
	}
	if req.ExpirationDelta == 0 {
		req.ExpirationDelta = 100
	}

	acc := kernel.NewAccount(id, nonce, codeCommitment)
	fundingAsset, err := kernel.NewFungibleAsset(faucet.Prefix, faucet.Suffix, req.InitialBalance)
	if err != nil {
		return fail(err)
	}
	if _, err := acc.Vault.AddFungible(fundingAsset); err != nil {
		return fail(err)
	}

	initialCommitment := acc.Commitment()

	var seed [32]byte
	if req.SeedHex != "" {
		seedBytes, err := hex.DecodeString(req.SeedHex)
		if err != nil || len(seedBytes) != 32 {
			return fail(fmt.Errorf("seed must be 32 bytes hex"))
		}
		copy(seed[:], seedBytes)
	} else {
		if _, err := rand.Read(seed[:]); err != nil {
			return fail(err)
		}
	}
	provider := auth.NewSoftwareProviderFromSeed(seed)

	digest := auth.DigestWord(acc.NonceWord())
	sig, err := provider.Sign(digest)
	if err != nil {
		return fail(err)
	}
	authProc := auth.AuthProcedure(provider, sig)

	serialNumber := kernel.Word{kernel.NewFelt(1), 0, 0, 0}
	recipientDigest := kernel.Recipient(serialNumber, kernel.EmptyWord, kernel.EmptyWord)

	transferAmount := req.TransferAmount
	txScript := func(ctx *kernel.TxContext) error {
		api := ctx.API()
		noteIdx, err := api.CreateNote(id, kernel.NoteTypePublic, kernel.ExecutionHint{}, 0, 0, recipientDigest)
		if err != nil {
			return err
		}
		asset, err := kernel.NewFungibleAsset(faucet.Prefix, faucet.Suffix, transferAmount)
		if err != nil {
			return err
		}
		return api.AddAssetToNote(asset, noteIdx)
	}

	ref := kernel.ReferenceBlock{
		Commitment:          refCommitment,
		Number:              req.RefBlockNumber,
		FeeFaucet:           faucet,
		VerificationBaseFee: req.VerificationBaseFee,
	}
	if ref.VerificationBaseFee == 0 {
		ref.VerificationBaseFee = 1
	}
	cfg := kernel.DefaultConfig()

	result, err := kernel.Execute(ref, initialCommitment, acc, nil, req.ExpirationDelta, txScript, authProc, nil, req.CurrentCycles, cfg)
	if err != nil {
		return fail(err)
	}

	if req.DataDir != "" {
		db, err := store.Open(req.DataDir)
		if err != nil {
			return fail(err)
		}
		defer db.Close()
		if err := db.PutReferenceBlock(ref); err != nil {
			return fail(err)
		}
		if err := db.PutAccountSnapshot(result.FinalAccountCommitment, store.SnapshotAccount(acc)); err != nil {
			return fail(err)
		}
		if err := db.PutExecutionResult(*result); err != nil {
			return fail(err)
		}
	}

	return Response{
		Ok:                         true,
		FinalAccountCommitmentHex:  wordHex(result.FinalAccountCommitment),
		DeltaCommitmentHex:         wordHex(result.DeltaCommitment),
		AccountUpdateCommitmentHex: wordHex(result.AccountUpdateCommitment),
		OutputNotesCommitmentHex:   wordHex(result.OutputNotesCommitment),
		InputNotesCommitmentHex:    wordHex(result.InputNotesCommitment),
		FeeAssetHex:                wordHex(result.FeeAsset),
		ExpirationBlockNum:         result.ExpirationBlockNum,
	}
}

func parseAccountID(prefixHex, suffixHex string) (kernel.AccountID, error) {
	prefix, err := parseFelt(prefixHex)
	if err != nil {
		return kernel.AccountID{}, fmt.Errorf("bad account prefix: %w", err)
	}
	suffix, err := parseFelt(suffixHex)
	if err != nil {
		return kernel.AccountID{}, fmt.Errorf("bad account suffix: %w", err)
	}
	id := kernel.AccountID{Prefix: prefix, Suffix: suffix}
	if err := kernel.ValidateAccountID(id); err != nil {
		return kernel.AccountID{}, err
	}
	return id, nil
}

func parseFelt(s string) (kernel.Felt, error) {
	if s == "" {
		return kernel.NewFelt(0), nil
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("bad felt hex %q: %w", s, err)
	}
	return kernel.NewFelt(v), nil
}

// wordHex renders a Word as 4 concatenated 16-hex-digit felts, position 0
// (least significant) first, the same order parseWord reads them in.
func wordHex(w kernel.Word) string {
	out := make([]byte, 0, 64)
	for _, f := range w {
		out = append(out, []byte(fmt.Sprintf("%016x", f.Uint64()))...)
	}
	return string(out)
}

func parseWord(s string) (kernel.Word, error) {
	if s == "" {
		return kernel.EmptyWord, nil
	}
	if len(s) != 64 {
		return kernel.Word{}, fmt.Errorf("word hex must be 64 chars, got %d", len(s))
	}
	var w kernel.Word
	for i := range w {
		f, err := parseFelt(s[i*16 : i*16+16])
		if err != nil {
			return kernel.Word{}, err
		}
		w[i] = f
	}
	return w, nil
}
