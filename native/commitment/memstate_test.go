package commitment

import (
	"sort"

	"nhbchain/crypto"
	"nhbchain/native/token"
)

// mockLedgerState is an in-memory State double used across this package's
// tests.
type mockLedgerState struct {
	initialized bool
	admin       crypto.Address
	hasAdmin    bool
	nftContract crypto.Address
	hasNFT      bool

	commitments map[string]*Commitment
	order       []string
}

func newMockLedgerState() *mockLedgerState {
	return &mockLedgerState{commitments: make(map[string]*Commitment)}
}

func (m *mockLedgerState) Initialized() (bool, error) { return m.initialized, nil }
func (m *mockLedgerState) SetInitialized(v bool) error {
	m.initialized = v
	return nil
}
func (m *mockLedgerState) Admin() (crypto.Address, bool, error) { return m.admin, m.hasAdmin, nil }
func (m *mockLedgerState) SetAdmin(a crypto.Address) error {
	m.admin, m.hasAdmin = a, true
	return nil
}
func (m *mockLedgerState) NFTContract() (crypto.Address, bool, error) {
	return m.nftContract, m.hasNFT, nil
}
func (m *mockLedgerState) SetNFTContract(a crypto.Address) error {
	m.nftContract, m.hasNFT = a, true
	return nil
}

func (m *mockLedgerState) CommitmentPut(c *Commitment) error {
	if _, exists := m.commitments[c.ID]; !exists {
		m.order = append(m.order, c.ID)
	}
	m.commitments[c.ID] = c.Clone()
	return nil
}
func (m *mockLedgerState) CommitmentGet(id string) (*Commitment, bool, error) {
	c, ok := m.commitments[id]
	if !ok {
		return nil, false, nil
	}
	return c.Clone(), true, nil
}
func (m *mockLedgerState) CommitmentExists(id string) (bool, error) {
	_, ok := m.commitments[id]
	return ok, nil
}
func (m *mockLedgerState) CommitmentsCreatedBetween(fromTS, toTS uint64) ([]string, error) {
	type entry struct {
		id  string
		seq int
	}
	matches := make([]entry, 0)
	for seq, id := range m.order {
		c := m.commitments[id]
		if c.CreatedAt >= fromTS && c.CreatedAt <= toTS {
			matches = append(matches, entry{id: id, seq: seq})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		ci, cj := m.commitments[matches[i].id], m.commitments[matches[j].id]
		if ci.CreatedAt != cj.CreatedAt {
			return ci.CreatedAt < cj.CreatedAt
		}
		return matches[i].seq < matches[j].seq
	})
	out := make([]string, len(matches))
	for i, e := range matches {
		out[i] = e.id
	}
	return out, nil
}

// mockTokenState is a minimal token.State double, used only to back the
// *token.Registry a Ledger is wired to in tests.
type mockTokenState struct {
	initialized bool
	admin       crypto.Address
	hasAdmin    bool
	core        crypto.Address
	hasCore     bool
	nextID      uint32
	supply      uint64
	tokens      map[uint32]*token.Token
	owners      map[string][]uint32
}

func newMockTokenState() *mockTokenState {
	return &mockTokenState{tokens: make(map[uint32]*token.Token), owners: make(map[string][]uint32)}
}

func (m *mockTokenState) Initialized() (bool, error)       { return m.initialized, nil }
func (m *mockTokenState) SetInitialized(v bool) error       { m.initialized = v; return nil }
func (m *mockTokenState) Admin() (crypto.Address, bool, error) {
	return m.admin, m.hasAdmin, nil
}
func (m *mockTokenState) SetAdmin(a crypto.Address) error { m.admin, m.hasAdmin = a, true; return nil }
func (m *mockTokenState) CoreContract() (crypto.Address, bool, error) {
	return m.core, m.hasCore, nil
}
func (m *mockTokenState) SetCoreContract(a crypto.Address) error {
	m.core, m.hasCore = a, true
	return nil
}
func (m *mockTokenState) NextTokenID() (uint32, error) { return m.nextID, nil }
func (m *mockTokenState) SetNextTokenID(id uint32) error {
	m.nextID = id
	return nil
}
func (m *mockTokenState) TotalSupply() (uint64, error) { return m.supply, nil }
func (m *mockTokenState) SetTotalSupply(v uint64) error {
	m.supply = v
	return nil
}
func (m *mockTokenState) TokenPut(t *token.Token) error {
	m.tokens[t.ID] = t.Clone()
	return nil
}
func (m *mockTokenState) TokenGet(id uint32) (*token.Token, bool, error) {
	t, ok := m.tokens[id]
	if !ok {
		return nil, false, nil
	}
	return t.Clone(), true, nil
}
func (m *mockTokenState) TokenExists(id uint32) (bool, error) {
	_, ok := m.tokens[id]
	return ok, nil
}
func (m *mockTokenState) AllTokenIDs() ([]uint32, error) {
	ids := make([]uint32, 0, len(m.tokens))
	for id := range m.tokens {
		ids = append(ids, id)
	}
	return ids, nil
}
func (m *mockTokenState) OwnerAddToken(owner crypto.Address, id uint32) error {
	key := owner.String()
	m.owners[key] = append(m.owners[key], id)
	return nil
}
func (m *mockTokenState) OwnerRemoveToken(owner crypto.Address, id uint32) error {
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
func (m *mockTokenState) OwnerTokens(owner crypto.Address) ([]uint32, error) {
	list := m.owners[owner.String()]
	out := make([]uint32, len(list))
	copy(out, list)
	return out, nil
}
func (m *mockTokenState) BalanceOf(owner crypto.Address) (uint64, error) {
	return uint64(len(m.owners[owner.String()])), nil
}

func makeAddress(prefix crypto.AddressPrefix, suffix byte) crypto.Address {
	b := make([]byte, 20)
	b[19] = suffix
	return crypto.MustNewAddress(prefix, b)
}
