// Package state binds the Token Registry, Commitment Ledger and
// Attestation Engine's narrow State interfaces to the storage.Store keyed
// abstraction, the way core/state/manager.go binds every native module to
// the chain's trie — minus the trie layer, since spec.md §6's store
// abstraction is a flat keyed map with no state-root concept for this
// bounded core to produce (see DESIGN.md's note on the dropped
// storage/trie dependency). Structured records are RLP-encoded, mirroring
// core/state/manager.go's own encode-then-Set pattern; flags and counters
// are stored as raw bytes (putBool, putUint32, putUint64).
package state

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"nhbchain/crypto"
	"nhbchain/storage"
)

// Manager is the shared persistence layer all three engines' State
// interfaces are implemented on, namespaced by key prefix per module. A
// single Manager over one Store is the intended wiring: it is what lets
// the Commitment Ledger's writes (persist commitment) and the Token
// Registry's writes it triggers (mint token) land in the same
// underlying store within one operation.
type Manager struct {
	store storage.Store
}

// NewManager constructs a Manager over store.
func NewManager(store storage.Store) *Manager {
	return &Manager{store: store}
}

// --- shared encode/decode helpers ---

// addrRLP mirrors crypto.Address with exported fields, since RLP requires
// exported struct fields and Address deliberately keeps its own
// unexported to force construction through NewAddress/DecodeAddress.
type addrRLP struct {
	Prefix string
	Bytes  []byte
}

func encodeAddr(a crypto.Address) addrRLP {
	if a.IsZero() {
		return addrRLP{}
	}
	return addrRLP{Prefix: string(a.Prefix()), Bytes: a.Bytes()}
}

func decodeAddr(r addrRLP) crypto.Address {
	if len(r.Bytes) == 0 {
		return crypto.Address{}
	}
	addr, err := crypto.NewAddress(crypto.AddressPrefix(r.Prefix), r.Bytes)
	if err != nil {
		// r.Bytes came from our own encodeAddr, so this can only happen on
		// corrupted storage; surfacing it as a zero address would silently
		// misattribute ownership, which is worse than a clear panic.
		panic(err)
	}
	return addr
}

func encodeBig(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

func putRLP(s storage.Store, key []byte, v interface{}) error {
	enc, err := rlp.EncodeToBytes(v)
	if err != nil {
		return err
	}
	return s.Set(key, enc)
}

func getRLP(s storage.Store, key []byte, out interface{}) (bool, error) {
	has, err := s.Has(key)
	if err != nil {
		return false, err
	}
	if !has {
		return false, nil
	}
	raw, err := s.Get(key)
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func putBool(s storage.Store, key []byte, v bool) error {
	if v {
		return s.Set(key, []byte{1})
	}
	return s.Set(key, []byte{0})
}

func getBool(s storage.Store, key []byte) (bool, error) {
	has, err := s.Has(key)
	if err != nil || !has {
		return false, err
	}
	raw, err := s.Get(key)
	if err != nil {
		return false, err
	}
	return len(raw) > 0 && raw[0] == 1, nil
}

func putUint32(s storage.Store, key []byte, v uint32) error {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return s.Set(key, buf)
}

func getUint32(s storage.Store, key []byte) (uint32, bool, error) {
	has, err := s.Has(key)
	if err != nil || !has {
		return 0, false, err
	}
	raw, err := s.Get(key)
	if err != nil {
		return 0, false, err
	}
	if len(raw) != 4 {
		return 0, false, nil
	}
	return binary.BigEndian.Uint32(raw), true, nil
}

func putUint64(s storage.Store, key []byte, v uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return s.Set(key, buf)
}

func getUint64(s storage.Store, key []byte) (uint64, bool, error) {
	has, err := s.Has(key)
	if err != nil || !has {
		return 0, false, err
	}
	raw, err := s.Get(key)
	if err != nil {
		return 0, false, err
	}
	if len(raw) != 8 {
		return 0, false, nil
	}
	return binary.BigEndian.Uint64(raw), true, nil
}

func uint32Key(id uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, id)
	return buf
}

func uint64Key(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func concatKey(parts ...[]byte) []byte {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]byte, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
