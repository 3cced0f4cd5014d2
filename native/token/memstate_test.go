package token

import "nhbchain/crypto"

// mockState is an in-memory State double used across this package's tests.
type mockState struct {
	initialized bool
	admin       crypto.Address
	hasAdmin    bool
	core        crypto.Address
	hasCore     bool
	nextID      uint32
	supply      uint64
	tokens      map[uint32]*Token
	owners      map[string][]uint32
}

func newMockState() *mockState {
	return &mockState{
		tokens: make(map[uint32]*Token),
		owners: make(map[string][]uint32),
	}
}

func (m *mockState) Initialized() (bool, error)     { return m.initialized, nil }
func (m *mockState) SetInitialized(v bool) error     { m.initialized = v; return nil }
func (m *mockState) Admin() (crypto.Address, bool, error) {
	return m.admin, m.hasAdmin, nil
}
func (m *mockState) SetAdmin(a crypto.Address) error {
	m.admin, m.hasAdmin = a, true
	return nil
}
func (m *mockState) CoreContract() (crypto.Address, bool, error) {
	return m.core, m.hasCore, nil
}
func (m *mockState) SetCoreContract(a crypto.Address) error {
	m.core, m.hasCore = a, true
	return nil
}

func (m *mockState) NextTokenID() (uint32, error) { return m.nextID, nil }
func (m *mockState) SetNextTokenID(id uint32) error {
	m.nextID = id
	return nil
}
func (m *mockState) TotalSupply() (uint64, error) { return m.supply, nil }
func (m *mockState) SetTotalSupply(v uint64) error {
	m.supply = v
	return nil
}

func (m *mockState) TokenPut(t *Token) error {
	m.tokens[t.ID] = t.Clone()
	return nil
}
func (m *mockState) TokenGet(id uint32) (*Token, bool, error) {
	t, ok := m.tokens[id]
	if !ok {
		return nil, false, nil
	}
	return t.Clone(), true, nil
}
func (m *mockState) TokenExists(id uint32) (bool, error) {
	_, ok := m.tokens[id]
	return ok, nil
}
func (m *mockState) AllTokenIDs() ([]uint32, error) {
	ids := make([]uint32, 0, len(m.tokens))
	for id := range m.tokens {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *mockState) OwnerAddToken(owner crypto.Address, id uint32) error {
	key := owner.String()
	m.owners[key] = append(m.owners[key], id)
	return nil
}
func (m *mockState) OwnerRemoveToken(owner crypto.Address, id uint32) error {
	key := owner.String()
	list := m.owners[key]
	for i, existing := range list {
		if existing == id {
			m.owners[key] = append(list[:i], list[i+1:]...)
			break
		}
	}
	return nil
}
func (m *mockState) OwnerTokens(owner crypto.Address) ([]uint32, error) {
	list := m.owners[owner.String()]
	out := make([]uint32, len(list))
	copy(out, list)
	return out, nil
}
func (m *mockState) BalanceOf(owner crypto.Address) (uint64, error) {
	return uint64(len(m.owners[owner.String()])), nil
}

func makeAddress(prefix crypto.AddressPrefix, suffix byte) crypto.Address {
	b := make([]byte, 20)
	b[19] = suffix
	return crypto.MustNewAddress(prefix, b)
}
