package state

import (
	"math/big"

	"nhbchain/crypto"
	"nhbchain/native/token"
)

// Key prefixes are namespaced per module so one Manager/Store can safely
// back all three engines at once.
var (
	tokenInitKey   = []byte("token/init")
	tokenAdminKey  = []byte("token/admin")
	tokenCoreKey   = []byte("token/core")
	tokenNextIDKey = []byte("token/nextid")
	tokenSupplyKey = []byte("token/supply")
	tokenRecPrefix = []byte("token/rec/")
	tokenOwnPrefix = []byte("token/owner/")
)

type tokenRecordRLP struct {
	ID               uint32
	Owner            addrRLP
	IsActive         bool
	CommitmentID     string
	DurationDays     uint32
	MaxLossPercent   uint32
	CommitmentType   string
	InitialAmount    *big.Int
	AssetAddress     addrRLP
	EarlyExitPenalty uint32
	CreatedAt        uint64
	ExpiresAt        uint64
}

func toTokenRecord(t *token.Token) *tokenRecordRLP {
	return &tokenRecordRLP{
		ID:               t.ID,
		Owner:            encodeAddr(t.Owner),
		IsActive:         t.IsActive,
		CommitmentID:     t.Metadata.CommitmentID,
		DurationDays:     t.Metadata.DurationDays,
		MaxLossPercent:   t.Metadata.MaxLossPercent,
		CommitmentType:   string(t.Metadata.CommitmentType),
		InitialAmount:    encodeBig(t.Metadata.InitialAmount),
		AssetAddress:     encodeAddr(t.Metadata.AssetAddress),
		EarlyExitPenalty: t.Metadata.EarlyExitPenalty,
		CreatedAt:        t.Metadata.CreatedAt,
		ExpiresAt:        t.Metadata.ExpiresAt,
	}
}

func fromTokenRecord(r *tokenRecordRLP) *token.Token {
	return &token.Token{
		ID:       r.ID,
		Owner:    decodeAddr(r.Owner),
		IsActive: r.IsActive,
		Metadata: token.Metadata{
			CommitmentID:     r.CommitmentID,
			DurationDays:     r.DurationDays,
			MaxLossPercent:   r.MaxLossPercent,
			CommitmentType:   token.CommitmentType(r.CommitmentType),
			InitialAmount:    r.InitialAmount,
			AssetAddress:     decodeAddr(r.AssetAddress),
			EarlyExitPenalty: r.EarlyExitPenalty,
			CreatedAt:        r.CreatedAt,
			ExpiresAt:        r.ExpiresAt,
		},
	}
}

func (m *Manager) Initialized() (bool, error) { return getBool(m.store, tokenInitKey) }
func (m *Manager) SetInitialized(v bool) error { return putBool(m.store, tokenInitKey, v) }

func (m *Manager) Admin() (crypto.Address, bool, error) {
	var a addrRLP
	ok, err := getRLP(m.store, tokenAdminKey, &a)
	if err != nil || !ok {
		return crypto.Address{}, ok, err
	}
	return decodeAddr(a), true, nil
}
func (m *Manager) SetAdmin(addr crypto.Address) error {
	return putRLP(m.store, tokenAdminKey, encodeAddr(addr))
}

func (m *Manager) CoreContract() (crypto.Address, bool, error) {
	var a addrRLP
	ok, err := getRLP(m.store, tokenCoreKey, &a)
	if err != nil || !ok {
		return crypto.Address{}, ok, err
	}
	return decodeAddr(a), true, nil
}
func (m *Manager) SetCoreContract(addr crypto.Address) error {
	return putRLP(m.store, tokenCoreKey, encodeAddr(addr))
}

func (m *Manager) NextTokenID() (uint32, error) {
	id, ok, err := getUint32(m.store, tokenNextIDKey)
	if err != nil || !ok {
		return 0, err
	}
	return id, nil
}
func (m *Manager) SetNextTokenID(id uint32) error { return putUint32(m.store, tokenNextIDKey, id) }

func (m *Manager) TotalSupply() (uint64, error) {
	v, ok, err := getUint64(m.store, tokenSupplyKey)
	if err != nil || !ok {
		return 0, err
	}
	return v, nil
}
func (m *Manager) SetTotalSupply(v uint64) error { return putUint64(m.store, tokenSupplyKey, v) }

func tokenRecKey(id uint32) []byte { return concatKey(tokenRecPrefix, uint32Key(id)) }

func (m *Manager) TokenPut(t *token.Token) error {
	return putRLP(m.store, tokenRecKey(t.ID), toTokenRecord(t))
}
func (m *Manager) TokenGet(id uint32) (*token.Token, bool, error) {
	var rec tokenRecordRLP
	ok, err := getRLP(m.store, tokenRecKey(id), &rec)
	if err != nil || !ok {
		return nil, ok, err
	}
	return fromTokenRecord(&rec), true, nil
}
func (m *Manager) TokenExists(id uint32) (bool, error) {
	return m.store.Has(tokenRecKey(id))
}
func (m *Manager) AllTokenIDs() ([]uint32, error) {
	var ids []uint32
	err := m.store.Iterate(tokenRecPrefix, func(key, _ []byte) bool {
		suffix := key[len(tokenRecPrefix):]
		if len(suffix) == 4 {
			ids = append(ids, uint32(suffix[0])<<24|uint32(suffix[1])<<16|uint32(suffix[2])<<8|uint32(suffix[3]))
		}
		return true
	})
	return ids, err
}

func tokenOwnerKey(owner crypto.Address) []byte {
	return concatKey(tokenOwnPrefix, []byte(owner.String()))
}

func (m *Manager) ownerTokenList(owner crypto.Address) ([]uint32, error) {
	var ids []uint32
	_, err := getRLP(m.store, tokenOwnerKey(owner), &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (m *Manager) OwnerAddToken(owner crypto.Address, id uint32) error {
	ids, err := m.ownerTokenList(owner)
	if err != nil {
		return err
	}
	ids = append(ids, id)
	return putRLP(m.store, tokenOwnerKey(owner), ids)
}

func (m *Manager) OwnerRemoveToken(owner crypto.Address, id uint32) error {
	ids, err := m.ownerTokenList(owner)
	if err != nil {
		return err
	}
	for i, existing := range ids {
		if existing == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return putRLP(m.store, tokenOwnerKey(owner), ids)
}

func (m *Manager) OwnerTokens(owner crypto.Address) ([]uint32, error) {
	ids, err := m.ownerTokenList(owner)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, len(ids))
	copy(out, ids)
	return out, nil
}

func (m *Manager) BalanceOf(owner crypto.Address) (uint64, error) {
	ids, err := m.ownerTokenList(owner)
	if err != nil {
		return 0, err
	}
	return uint64(len(ids)), nil
}
