package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"nhbchain/crypto"
	"nhbchain/native/attestation"
)

var (
	attestationInitKey   = []byte("attestation/init")
	attestationAdminKey  = []byte("attestation/admin")
	attestationCoreKey   = []byte("attestation/core")
	attestationVerPrefix = []byte("attestation/verifier/")
	attestationTypePfx   = []byte("attestation/type/")
	attestationLogPrefix = []byte("attestation/log/")
	attestationCntPrefix = []byte("attestation/count/")
	attestationMetPrefix = []byte("attestation/metrics/")
	attestationFeeKey    = []byte("attestation/feecfg")
	attestationCollPfx   = []byte("attestation/collected/")
)

// attestationRLP mirrors attestation.Attestation with exported fields and a
// plain map so rlp (which cannot encode crypto.Address's unexported fields
// directly) has something it can round-trip.
type attestationRLP struct {
	CommitmentID    string
	AttestationType string
	DataKeys        []string
	DataVals        []string
	Caller          addrRLP
	Timestamp       int64
	Compliant       bool
}

func toAttestationRLP(a attestation.Attestation) attestationRLP {
	keys := make([]string, 0, len(a.Data))
	vals := make([]string, 0, len(a.Data))
	for k, v := range a.Data {
		keys = append(keys, k)
		vals = append(vals, v)
	}
	return attestationRLP{
		CommitmentID:    a.CommitmentID,
		AttestationType: a.AttestationType,
		DataKeys:        keys,
		DataVals:        vals,
		Caller:          encodeAddr(a.Caller),
		Timestamp:       a.Timestamp,
		Compliant:       a.Compliant,
	}
}

func fromAttestationRLP(r attestationRLP) attestation.Attestation {
	var data map[string]string
	if len(r.DataKeys) > 0 {
		data = make(map[string]string, len(r.DataKeys))
		for i, k := range r.DataKeys {
			data[k] = r.DataVals[i]
		}
	}
	return attestation.Attestation{
		CommitmentID:    r.CommitmentID,
		AttestationType: r.AttestationType,
		Data:            data,
		Caller:          decodeAddr(r.Caller),
		Timestamp:       r.Timestamp,
		Compliant:       r.Compliant,
	}
}

// healthMetricsRLP mirrors attestation.HealthMetrics with non-nil big.Int
// fields, since rlp.EncodeToBytes rejects nil pointers inside structs.
type healthMetricsRLP struct {
	InitialValue     *big.Int
	CurrentValue     *big.Int
	DrawdownPercent  uint32
	FeesGenerated    *big.Int
	LastAttestation  uint64
	AttestationCount uint32
}

func toHealthMetricsRLP(h *attestation.HealthMetrics) healthMetricsRLP {
	return healthMetricsRLP{
		InitialValue:     encodeBig(h.InitialValue),
		CurrentValue:     encodeBig(h.CurrentValue),
		DrawdownPercent:  h.DrawdownPercent,
		FeesGenerated:    encodeBig(h.FeesGenerated),
		LastAttestation:  h.LastAttestation,
		AttestationCount: h.AttestationCount,
	}
}

func fromHealthMetricsRLP(r healthMetricsRLP) *attestation.HealthMetrics {
	return &attestation.HealthMetrics{
		InitialValue:     r.InitialValue,
		CurrentValue:     r.CurrentValue,
		DrawdownPercent:  r.DrawdownPercent,
		FeesGenerated:    r.FeesGenerated,
		LastAttestation:  r.LastAttestation,
		AttestationCount: r.AttestationCount,
	}
}

// feeConfigRLP persists the Attestation Engine's fee asset/recipient/amount
// as a single record, with explicit has-flags since addrRLP alone can't
// distinguish "unset" from "zero address".
type feeConfigRLP struct {
	Asset         addrRLP
	HasAsset      bool
	Recipient     addrRLP
	HasRecipient  bool
	Fee           *big.Int
}

// AttestationState is the attestation.State view over a shared Manager,
// mirroring LedgerState's role for the Commitment Ledger: Go won't let one
// type implement three interfaces with colliding Initialized/Admin method
// bodies, so the Attestation Engine gets its own thin view type instead of
// its own store.
type AttestationState struct{ m *Manager }

// ForAttestation returns the attestation.State view of this Manager.
func (m *Manager) ForAttestation() *AttestationState { return &AttestationState{m: m} }

func (s *AttestationState) Initialized() (bool, error) { return getBool(s.m.store, attestationInitKey) }
func (s *AttestationState) SetInitialized(v bool) error {
	return putBool(s.m.store, attestationInitKey, v)
}

func (s *AttestationState) Admin() (crypto.Address, bool, error) {
	var a addrRLP
	ok, err := getRLP(s.m.store, attestationAdminKey, &a)
	if err != nil || !ok {
		return crypto.Address{}, ok, err
	}
	return decodeAddr(a), true, nil
}
func (s *AttestationState) SetAdmin(addr crypto.Address) error {
	return putRLP(s.m.store, attestationAdminKey, encodeAddr(addr))
}

func (s *AttestationState) CoreContract() (crypto.Address, bool, error) {
	var a addrRLP
	ok, err := getRLP(s.m.store, attestationCoreKey, &a)
	if err != nil || !ok {
		return crypto.Address{}, ok, err
	}
	return decodeAddr(a), true, nil
}
func (s *AttestationState) SetCoreContract(addr crypto.Address) error {
	return putRLP(s.m.store, attestationCoreKey, encodeAddr(addr))
}

func verifierKey(a crypto.Address) []byte {
	return concatKey(attestationVerPrefix, []byte(a.String()))
}

func (s *AttestationState) AddVerifier(a crypto.Address) error {
	return putBool(s.m.store, verifierKey(a), true)
}
func (s *AttestationState) RemoveVerifier(a crypto.Address) error {
	return s.m.store.Delete(verifierKey(a))
}
func (s *AttestationState) IsVerifier(a crypto.Address) (bool, error) {
	return getBool(s.m.store, verifierKey(a))
}

func attestationTypeKey(name string) []byte {
	return concatKey(attestationTypePfx, []byte(name))
}

func (s *AttestationState) RegisterAttestationType(name string) error {
	return putBool(s.m.store, attestationTypeKey(name), true)
}
func (s *AttestationState) IsAttestationTypeRecognized(name string) (bool, error) {
	return getBool(s.m.store, attestationTypeKey(name))
}

func attestationCountKey(commitmentID string) []byte {
	return concatKey(attestationCntPrefix, []byte(commitmentID))
}

func attestationLogKey(commitmentID string, index uint32) []byte {
	return concatKey(attestationLogPrefix, []byte(commitmentID), []byte("/"), uint32Key(index))
}

// AttestationAppend writes a to the next free slot in commitmentID's
// ordered log and bumps its count, the way LedgerState.CommitmentPut bumps
// commitment/seq: the count doubles as the next insertion index so the log
// never needs a separate cursor.
func (s *AttestationState) AttestationAppend(commitmentID string, a attestation.Attestation) error {
	count, err := s.AttestationCount(commitmentID)
	if err != nil {
		return err
	}
	if err := putRLP(s.m.store, attestationLogKey(commitmentID, count), toAttestationRLP(a)); err != nil {
		return err
	}
	return putUint32(s.m.store, attestationCountKey(commitmentID), count+1)
}

func (s *AttestationState) Attestations(commitmentID string) ([]attestation.Attestation, error) {
	count, err := s.AttestationCount(commitmentID)
	if err != nil {
		return nil, err
	}
	out := make([]attestation.Attestation, 0, count)
	for i := uint32(0); i < count; i++ {
		var rec attestationRLP
		ok, err := getRLP(s.m.store, attestationLogKey(commitmentID, i), &rec)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, fromAttestationRLP(rec))
	}
	return out, nil
}

func (s *AttestationState) AttestationCount(commitmentID string) (uint32, error) {
	count, ok, err := getUint32(s.m.store, attestationCountKey(commitmentID))
	if err != nil || !ok {
		return 0, err
	}
	return count, nil
}

func healthMetricsKey(commitmentID string) []byte {
	return concatKey(attestationMetPrefix, []byte(commitmentID))
}

func (s *AttestationState) HealthMetricsGet(commitmentID string) (*attestation.HealthMetrics, bool, error) {
	var rec healthMetricsRLP
	ok, err := getRLP(s.m.store, healthMetricsKey(commitmentID), &rec)
	if err != nil || !ok {
		return nil, ok, err
	}
	return fromHealthMetricsRLP(rec), true, nil
}

func (s *AttestationState) HealthMetricsPut(commitmentID string, h *attestation.HealthMetrics) error {
	return putRLP(s.m.store, healthMetricsKey(commitmentID), toHealthMetricsRLP(h))
}

func (s *AttestationState) FeeConfig() (asset crypto.Address, hasAsset bool, recipient crypto.Address, hasRecipient bool, fee *big.Int, err error) {
	var rec feeConfigRLP
	ok, getErr := getRLP(s.m.store, attestationFeeKey, &rec)
	if getErr != nil {
		return crypto.Address{}, false, crypto.Address{}, false, big.NewInt(0), getErr
	}
	if !ok {
		return crypto.Address{}, false, crypto.Address{}, false, big.NewInt(0), nil
	}
	feeVal := rec.Fee
	if feeVal == nil {
		feeVal = big.NewInt(0)
	}
	var assetAddr, recipAddr crypto.Address
	if rec.HasAsset {
		assetAddr = decodeAddr(rec.Asset)
	}
	if rec.HasRecipient {
		recipAddr = decodeAddr(rec.Recipient)
	}
	return assetAddr, rec.HasAsset, recipAddr, rec.HasRecipient, feeVal, nil
}

func (s *AttestationState) SetFeeConfig(asset crypto.Address, hasAsset bool, recipient crypto.Address, hasRecipient bool, fee *big.Int) error {
	rec := feeConfigRLP{
		HasAsset:     hasAsset,
		HasRecipient: hasRecipient,
		Fee:          encodeBig(fee),
	}
	if hasAsset {
		rec.Asset = encodeAddr(asset)
	}
	if hasRecipient {
		rec.Recipient = encodeAddr(recipient)
	}
	return putRLP(s.m.store, attestationFeeKey, rec)
}

func collectedFeesKey(asset crypto.Address) []byte {
	return concatKey(attestationCollPfx, []byte(asset.String()))
}

func (s *AttestationState) CollectedFees(asset crypto.Address) (*big.Int, error) {
	has, err := s.m.store.Has(collectedFeesKey(asset))
	if err != nil {
		return nil, err
	}
	if !has {
		return big.NewInt(0), nil
	}
	raw, err := s.m.store.Get(collectedFeesKey(asset))
	if err != nil {
		return nil, err
	}
	var v big.Int
	if err := rlp.DecodeBytes(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *AttestationState) AddCollectedFees(asset crypto.Address, amount *big.Int) error {
	cur, err := s.CollectedFees(asset)
	if err != nil {
		return err
	}
	total := new(big.Int).Add(cur, amount)
	enc, err := rlp.EncodeToBytes(total)
	if err != nil {
		return err
	}
	return s.m.store.Set(collectedFeesKey(asset), enc)
}
