package attestation

import (
	"math/big"

	"nhbchain/crypto"
)

// mockState is an in-memory State double used across this package's tests.
type mockState struct {
	initialized bool
	admin       crypto.Address
	hasAdmin    bool
	core        crypto.Address
	hasCore     bool

	verifiers map[string]bool
	types     map[string]bool

	attestations map[string][]Attestation
	metrics      map[string]*HealthMetrics

	feeAsset       crypto.Address
	hasFeeAsset    bool
	feeRecipient   crypto.Address
	hasFeeRecipient bool
	fee            *big.Int
	collected      map[string]*big.Int
}

func newMockState() *mockState {
	return &mockState{
		verifiers:    make(map[string]bool),
		types:        make(map[string]bool),
		attestations: make(map[string][]Attestation),
		metrics:      make(map[string]*HealthMetrics),
		fee:          big.NewInt(0),
		collected:    make(map[string]*big.Int),
	}
}

func (m *mockState) Initialized() (bool, error)  { return m.initialized, nil }
func (m *mockState) SetInitialized(v bool) error { m.initialized = v; return nil }
func (m *mockState) Admin() (crypto.Address, bool, error) {
	return m.admin, m.hasAdmin, nil
}
func (m *mockState) SetAdmin(a crypto.Address) error { m.admin, m.hasAdmin = a, true; return nil }
func (m *mockState) CoreContract() (crypto.Address, bool, error) {
	return m.core, m.hasCore, nil
}
func (m *mockState) SetCoreContract(a crypto.Address) error { m.core, m.hasCore = a, true; return nil }

func (m *mockState) AddVerifier(a crypto.Address) error {
	m.verifiers[a.String()] = true
	return nil
}
func (m *mockState) RemoveVerifier(a crypto.Address) error {
	delete(m.verifiers, a.String())
	return nil
}
func (m *mockState) IsVerifier(a crypto.Address) (bool, error) {
	return m.verifiers[a.String()], nil
}

func (m *mockState) RegisterAttestationType(name string) error {
	m.types[name] = true
	return nil
}
func (m *mockState) IsAttestationTypeRecognized(name string) (bool, error) {
	return m.types[name], nil
}

func (m *mockState) AttestationAppend(commitmentID string, a Attestation) error {
	m.attestations[commitmentID] = append(m.attestations[commitmentID], a.Clone())
	return nil
}
func (m *mockState) Attestations(commitmentID string) ([]Attestation, error) {
	list := m.attestations[commitmentID]
	out := make([]Attestation, len(list))
	for i, a := range list {
		out[i] = a.Clone()
	}
	return out, nil
}
func (m *mockState) AttestationCount(commitmentID string) (uint32, error) {
	return uint32(len(m.attestations[commitmentID])), nil
}

func (m *mockState) HealthMetricsGet(commitmentID string) (*HealthMetrics, bool, error) {
	h, ok := m.metrics[commitmentID]
	if !ok {
		return nil, false, nil
	}
	return h.Clone(), true, nil
}
func (m *mockState) HealthMetricsPut(commitmentID string, h *HealthMetrics) error {
	m.metrics[commitmentID] = h.Clone()
	return nil
}

func (m *mockState) FeeConfig() (crypto.Address, bool, crypto.Address, bool, *big.Int, error) {
	fee := m.fee
	if fee == nil {
		fee = big.NewInt(0)
	}
	return m.feeAsset, m.hasFeeAsset, m.feeRecipient, m.hasFeeRecipient, new(big.Int).Set(fee), nil
}
func (m *mockState) SetFeeConfig(asset crypto.Address, hasAsset bool, recipient crypto.Address, hasRecipient bool, fee *big.Int) error {
	m.feeAsset, m.hasFeeAsset = asset, hasAsset
	m.feeRecipient, m.hasFeeRecipient = recipient, hasRecipient
	if fee == nil {
		fee = big.NewInt(0)
	}
	m.fee = new(big.Int).Set(fee)
	return nil
}
func (m *mockState) CollectedFees(asset crypto.Address) (*big.Int, error) {
	v, ok := m.collected[asset.String()]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(v), nil
}
func (m *mockState) AddCollectedFees(asset crypto.Address, amount *big.Int) error {
	key := asset.String()
	cur, ok := m.collected[key]
	if !ok {
		cur = big.NewInt(0)
	}
	m.collected[key] = new(big.Int).Add(cur, amount)
	return nil
}

// mockLedger is an in-memory LedgerView double: tests register commitments
// directly rather than driving a real commitment.Ledger, keeping this
// package's tests focused on the Attestation Engine's own logic.
type mockLedger struct {
	commitments map[string]mockCommitment
}

type mockCommitment struct {
	amount         *big.Int
	currentValue   *big.Int
	maxLossPercent uint32
	minFeeThresh   uint64
}

func newMockLedger() *mockLedger {
	return &mockLedger{commitments: make(map[string]mockCommitment)}
}

func (l *mockLedger) put(id string, amount, current *big.Int, maxLoss uint32, minFee uint64) {
	l.commitments[id] = mockCommitment{amount: amount, currentValue: current, maxLossPercent: maxLoss, minFeeThresh: minFee}
}

func (l *mockLedger) CommitmentExists(commitmentID string) (bool, error) {
	_, ok := l.commitments[commitmentID]
	return ok, nil
}

func (l *mockLedger) CommitmentTerms(commitmentID string) (*big.Int, *big.Int, uint32, uint64, bool, error) {
	c, ok := l.commitments[commitmentID]
	if !ok {
		return nil, nil, 0, 0, false, nil
	}
	return new(big.Int).Set(c.amount), new(big.Int).Set(c.currentValue), c.maxLossPercent, c.minFeeThresh, true, nil
}

func makeAddress(prefix crypto.AddressPrefix, suffix byte) crypto.Address {
	b := make([]byte, 20)
	b[19] = suffix
	return crypto.MustNewAddress(prefix, b)
}
