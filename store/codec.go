package store

import (
	"encoding/binary"
	"fmt"

	"txkernel.dev/kernel"
)

func putFelt(b []byte, f kernel.Felt) {
	binary.LittleEndian.PutUint64(b, f.Uint64())
}

func getFelt(b []byte) kernel.Felt {
	return kernel.NewFelt(binary.LittleEndian.Uint64(b))
}

func putWord(b []byte, w kernel.Word) {
	for i, f := range w {
		putFelt(b[i*8:i*8+8], f)
	}
}

func getWord(b []byte) kernel.Word {
	var w kernel.Word
	for i := range w {
		w[i] = getFelt(b[i*8 : i*8+8])
	}
	return w
}

// encodeReferenceBlock lays out a ReferenceBlock as:
// commitment(32) | number u64le(8) | fee_faucet_prefix u64le(8) |
// fee_faucet_suffix u64le(8) | verification_base_fee u32le(4)
func encodeReferenceBlock(ref kernel.ReferenceBlock) []byte {
	out := make([]byte, 32+8+8+8+4)
	putWord(out[0:32], ref.Commitment)
	binary.LittleEndian.PutUint64(out[32:40], ref.Number)
	binary.LittleEndian.PutUint64(out[40:48], ref.FeeFaucet.Prefix.Uint64())
	binary.LittleEndian.PutUint64(out[48:56], ref.FeeFaucet.Suffix.Uint64())
	binary.LittleEndian.PutUint32(out[56:60], ref.VerificationBaseFee)
	return out
}

func decodeReferenceBlock(b []byte) (kernel.ReferenceBlock, error) {
	if len(b) != 60 {
		return kernel.ReferenceBlock{}, fmt.Errorf("store: truncated reference block (%d bytes)", len(b))
	}
	return kernel.ReferenceBlock{
		Commitment: getWord(b[0:32]),
		Number:     binary.LittleEndian.Uint64(b[32:40]),
		FeeFaucet: kernel.AccountID{
			Prefix: kernel.NewFelt(binary.LittleEndian.Uint64(b[40:48])),
			Suffix: kernel.NewFelt(binary.LittleEndian.Uint64(b[48:56])),
		},
		VerificationBaseFee: binary.LittleEndian.Uint32(b[56:60]),
	}, nil
}

// encodeExecutionResult lays out an ExecutionResult as six consecutive
// Words (32 bytes each): final account commitment, delta commitment,
// account update commitment, output notes commitment, input notes
// commitment, fee asset, then a seventh 8-byte field for the expiration
// block number.
func encodeExecutionResult(r kernel.ExecutionResult) []byte {
	out := make([]byte, 32*6+8)
	putWord(out[0:32], r.FinalAccountCommitment)
	putWord(out[32:64], r.DeltaCommitment)
	putWord(out[64:96], r.AccountUpdateCommitment)
	putWord(out[96:128], r.OutputNotesCommitment)
	putWord(out[128:160], r.InputNotesCommitment)
	putWord(out[160:192], r.FeeAsset)
	binary.LittleEndian.PutUint64(out[192:200], r.ExpirationBlockNum)
	return out
}

func decodeExecutionResult(b []byte) (kernel.ExecutionResult, error) {
	if len(b) != 32*6+8 {
		return kernel.ExecutionResult{}, fmt.Errorf("store: truncated execution result (%d bytes)", len(b))
	}
	return kernel.ExecutionResult{
		FinalAccountCommitment:  getWord(b[0:32]),
		DeltaCommitment:         getWord(b[32:64]),
		AccountUpdateCommitment: getWord(b[64:96]),
		OutputNotesCommitment:   getWord(b[96:128]),
		InputNotesCommitment:    getWord(b[128:160]),
		FeeAsset:                getWord(b[160:192]),
		ExpirationBlockNum:      binary.LittleEndian.Uint64(b[192:200]),
	}, nil
}

// AccountSnapshot is the persisted form of a kernel.Account: its identity,
// nonce, code commitment, its vault as raw (key, value) pairs, and its
// storage as the NumStorageSlots slot words. A map slot is kept only as its
// root word: its entries are not stored, and ToAccount restores that slot as
// a value slot holding the root.
type AccountSnapshot struct {
	ID             kernel.AccountID
	Nonce          kernel.Felt
	CodeCommitment kernel.Digest
	VaultEntries   []KV
	StorageValues  [kernel.NumStorageSlots]kernel.Word
}

// KV is one sparse-merkle (key, value) pair.
type KV struct {
	Key   kernel.Word
	Value kernel.Word
}

// ToAccount rebuilds a live kernel.Account from the snapshot.
func (s AccountSnapshot) ToAccount() (*kernel.Account, error) {
	acc := kernel.NewAccount(s.ID, s.Nonce, s.CodeCommitment)
	for _, kv := range s.VaultEntries {
		if kernel.IsFungibleAssetWord(kv.Value) {
			if _, err := acc.Vault.AddFungible(kv.Value); err != nil {
				return nil, err
			}
		} else {
			if _, err := acc.Vault.AddNonFungible(kv.Value); err != nil {
				return nil, err
			}
		}
	}
	for i, v := range s.StorageValues {
		if v == kernel.EmptyWord {
			continue
		}
		if _, err := acc.Storage.SetItem(i, v); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// SnapshotAccount captures acc's persistable state.
func SnapshotAccount(acc *kernel.Account) AccountSnapshot {
	entries := acc.Vault.Entries()
	vault := make([]KV, len(entries))
	for i, e := range entries {
		vault[i] = KV{Key: e[0], Value: e[1]}
	}
	return AccountSnapshot{
		ID:             acc.ID,
		Nonce:          acc.Nonce,
		CodeCommitment: acc.CodeCommitment,
		VaultEntries:   vault,
		StorageValues:  storageWords(acc),
	}
}

func storageWords(acc *kernel.Account) [kernel.NumStorageSlots]kernel.Word {
	var out [kernel.NumStorageSlots]kernel.Word
	for i := range out {
		w, err := acc.Storage.GetItem(i)
		if err == nil {
			out[i] = w
		}
	}
	return out
}

func encodeAccountSnapshot(s AccountSnapshot) ([]byte, error) {
	out := make([]byte, 0, 8+32+4+len(s.VaultEntries)*64+len(s.StorageValues)*32)
	var head [8 + 8 + 32 + 8 + 4]byte
	binary.LittleEndian.PutUint64(head[0:8], s.ID.Prefix.Uint64())
	binary.LittleEndian.PutUint64(head[8:16], s.ID.Suffix.Uint64())
	putWord(head[16:48], s.CodeCommitment)
	binary.LittleEndian.PutUint64(head[48:56], s.Nonce.Uint64())
	binary.LittleEndian.PutUint32(head[56:60], uint32(len(s.VaultEntries)))
	out = append(out, head[:60]...)
	for _, kv := range s.VaultEntries {
		var buf [64]byte
		putWord(buf[0:32], kv.Key)
		putWord(buf[32:64], kv.Value)
		out = append(out, buf[:]...)
	}
	for _, v := range s.StorageValues {
		var buf [32]byte
		putWord(buf[:], v)
		out = append(out, buf[:]...)
	}
	return out, nil
}

func decodeAccountSnapshot(b []byte) (AccountSnapshot, error) {
	if len(b) < 60 {
		return AccountSnapshot{}, fmt.Errorf("store: truncated account snapshot")
	}
	var s AccountSnapshot
	s.ID = kernel.AccountID{
		Prefix: kernel.NewFelt(binary.LittleEndian.Uint64(b[0:8])),
		Suffix: kernel.NewFelt(binary.LittleEndian.Uint64(b[8:16])),
	}
	s.CodeCommitment = getWord(b[16:48])
	s.Nonce = kernel.NewFelt(binary.LittleEndian.Uint64(b[48:56]))
	n := int(binary.LittleEndian.Uint32(b[56:60]))
	off := 60
	if len(b) < off+n*64+len(s.StorageValues)*32 {
		return AccountSnapshot{}, fmt.Errorf("store: truncated account snapshot body")
	}
	s.VaultEntries = make([]KV, n)
	for i := 0; i < n; i++ {
		s.VaultEntries[i] = KV{Key: getWord(b[off : off+32]), Value: getWord(b[off+32 : off+64])}
		off += 64
	}
	for i := range s.StorageValues {
		s.StorageValues[i] = getWord(b[off : off+32])
		off += 32
	}
	return s, nil
}
