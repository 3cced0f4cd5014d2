package attestation

import (
	"math/big"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"nhbchain/assets"
	"nhbchain/core/events"
	"nhbchain/crypto"
	nativecommon "nhbchain/native/common"
	"nhbchain/native/commitment"
	"nhbchain/observability/metrics"
)

const moduleName = "attestation"

// Engine is the Attestation Engine described by spec.md §4.3: an
// admin-maintained verifier whitelist gating an append-only per-commitment
// attestation log, with derived health metrics and a compliance predicate
// read off the bound Commitment Ledger. The engine never mutates Ledger
// state; it only reads rules and current value through LedgerView.
type Engine struct {
	state      State
	ledger     LedgerView
	transferer assets.Transferer
	emitter    events.Emitter
	pauses     nativecommon.PauseView
	nowFn      func() int64

	mu               sync.Mutex
	limiters         map[string]*rate.Limiter
	verifierRatePerMin float64

	telemetry *metrics.VaultMetrics
}

// NewEngine constructs an Engine bound to state and ledger. transferer may
// be nil if no attestation fee is ever configured; a fee configured without
// a transferer fails closed with ErrAssetTransferFailed rather than
// silently skipping the charge. Telemetry is bound to the process-wide
// metrics.Vault() singleton.
func NewEngine(state State, ledger LedgerView, transferer assets.Transferer) *Engine {
	return &Engine{
		state:      state,
		ledger:     ledger,
		transferer: transferer,
		emitter:    events.NoopEmitter{},
		nowFn:      func() int64 { return time.Now().Unix() },
		telemetry:  metrics.Vault(),
	}
}

func (e *Engine) SetEmitter(em events.Emitter) {
	if em == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = em
}

func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetNowFunc overrides the time source; used by tests to control attestation
// timestamps and staleness calculations.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetVerifierRateLimit caps each verifier to perMinute Attest/RecordFees/
// RecordDrawdown calls per rolling minute. 0 (the default) is unlimited.
// This is the supplemented per-verifier rate limiter described by
// SPEC_FULL.md §4.2, grounded on the original implementation's
// shared_utils rate_limiting module but backed here by golang.org/x/time/rate
// rather than a reimplemented epoch counter.
func (e *Engine) SetVerifierRateLimit(perMinute float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.verifierRatePerMin = perMinute
	e.limiters = make(map[string]*rate.Limiter)
}

func (e *Engine) now() uint64 {
	n := e.nowFn()
	if n < 0 {
		return 0
	}
	return uint64(n)
}

func (e *Engine) emit(ev events.Event) {
	if e.emitter == nil || ev == nil {
		return
	}
	e.emitter.Emit(ev)
}

func (e *Engine) guardPaused() error {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return ErrPaused
	}
	return nil
}

func (e *Engine) requireInitialized() error {
	initialized, err := e.state.Initialized()
	if err != nil {
		return err
	}
	if !initialized {
		return ErrNotInitialized
	}
	return nil
}

func (e *Engine) requireAdmin(caller crypto.Address) error {
	admin, set, err := e.state.Admin()
	if err != nil {
		return err
	}
	if !set || !caller.Equal(admin) {
		return ErrUnauthorized
	}
	return nil
}

func (e *Engine) requireVerifier(caller crypto.Address) error {
	ok, err := e.state.IsVerifier(caller)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// checkRateLimit enforces the optional per-verifier cap. A zero limit (the
// default) never rejects. This is a distinct error from ErrUnauthorized, by
// design: a rate-limited call and an unauthorized caller are different
// conditions a client needs to tell apart.
func (e *Engine) checkRateLimit(verifier crypto.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.verifierRatePerMin <= 0 {
		return nil
	}
	if e.limiters == nil {
		e.limiters = make(map[string]*rate.Limiter)
	}
	key := verifier.String()
	lim, ok := e.limiters[key]
	if !ok {
		burst := int(e.verifierRatePerMin)
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(e.verifierRatePerMin/60.0), burst)
		e.limiters[key] = lim
	}
	if !lim.Allow() {
		e.telemetry.IncRateLimited(key)
		return ErrRateLimited
	}
	return nil
}

// Initialize binds the engine to its admin and the Commitment Ledger
// contract once. A second call fails with ErrAlreadyInitialized.
func (e *Engine) Initialize(admin, coreContract crypto.Address) error {
	initialized, err := e.state.Initialized()
	if err != nil {
		return err
	}
	if initialized {
		return ErrAlreadyInitialized
	}
	if err := e.state.SetAdmin(admin); err != nil {
		return err
	}
	if err := e.state.SetCoreContract(coreContract); err != nil {
		return err
	}
	return e.state.SetInitialized(true)
}

// AddVerifier admits verifier to the whitelist. Admin-gated, idempotent.
func (e *Engine) AddVerifier(caller, verifier crypto.Address) error {
	if err := e.requireInitialized(); err != nil {
		return err
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	return e.state.AddVerifier(verifier)
}

// RemoveVerifier revokes verifier from the whitelist. Admin-gated,
// idempotent.
func (e *Engine) RemoveVerifier(caller, verifier crypto.Address) error {
	if err := e.requireInitialized(); err != nil {
		return err
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	return e.state.RemoveVerifier(verifier)
}

// RegisterAttestationType admits name as a recognized attestation type that
// Attest will accept. Admin-gated.
func (e *Engine) RegisterAttestationType(caller crypto.Address, name string) error {
	if err := e.requireInitialized(); err != nil {
		return err
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	return e.state.RegisterAttestationType(name)
}

// SetFeeConfig sets the optional attestation fee charged per Attest call.
// Admin-gated. hasAsset/hasRecipient distinguish "not configured" from the
// zero address; a fee of 0 (the default) is a no-op regardless.
func (e *Engine) SetFeeConfig(caller, asset crypto.Address, hasAsset bool, recipient crypto.Address, hasRecipient bool, fee *big.Int) error {
	if err := e.requireInitialized(); err != nil {
		return err
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if fee == nil {
		fee = big.NewInt(0)
	}
	return e.state.SetFeeConfig(asset, hasAsset, recipient, hasRecipient, fee)
}

// Attest appends a verifier-signed record to commitmentID's log and
// recomputes its cached health metrics. The precondition order is
// load-bearing, per spec.md §4.3's closing paragraph: NotInitialized,
// paused, Unauthorized (caller not a verifier — checked before the
// commitment is even looked up), rate limit, CommitmentNotFound, then
// attestation_type recognized.
func (e *Engine) Attest(caller crypto.Address, commitmentID, attestationType string, data map[string]string, compliant bool) error {
	if err := e.requireInitialized(); err != nil {
		return err
	}
	if err := e.guardPaused(); err != nil {
		return err
	}
	if err := e.requireVerifier(caller); err != nil {
		return err
	}
	if err := e.checkRateLimit(caller); err != nil {
		return err
	}
	exists, err := e.ledger.CommitmentExists(commitmentID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrCommitmentNotFound
	}
	recognized, err := e.state.IsAttestationTypeRecognized(attestationType)
	if err != nil {
		return err
	}
	if !recognized {
		return ErrTypeNotRecognized
	}

	if err := e.chargeAttestationFee(caller); err != nil {
		return err
	}

	a := Attestation{
		CommitmentID:    commitmentID,
		AttestationType: attestationType,
		Data:            cloneData(data),
		Caller:          caller,
		Timestamp:       int64(e.now()),
		Compliant:       compliant,
	}
	if err := e.appendAndRecompute(a); err != nil {
		return err
	}
	e.telemetry.ObserveAttestation(attestationType)
	e.emit(events.Attested{CommitmentID: commitmentID, AttestationType: attestationType, Verifier: caller.String(), Timestamp: a.Timestamp})
	return nil
}

// RecordFees is a verifier-gated convenience that adds feeAmount to
// commitmentID's fees_generated and appends an internal fee_generation
// attestation. feeAmount must be positive.
func (e *Engine) RecordFees(caller crypto.Address, commitmentID string, feeAmount *big.Int) error {
	if err := e.requireInitialized(); err != nil {
		return err
	}
	if err := e.guardPaused(); err != nil {
		return err
	}
	if err := e.requireVerifier(caller); err != nil {
		return err
	}
	if err := e.checkRateLimit(caller); err != nil {
		return err
	}
	exists, err := e.ledger.CommitmentExists(commitmentID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrCommitmentNotFound
	}
	if feeAmount == nil || feeAmount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	a := Attestation{
		CommitmentID:    commitmentID,
		AttestationType: typeFeeGeneration,
		Data:            map[string]string{dataFeeAmount: feeAmount.String()},
		Caller:          caller,
		Timestamp:       int64(e.now()),
		Compliant:       true,
	}
	if err := e.appendAndRecompute(a); err != nil {
		return err
	}
	e.telemetry.ObserveAttestation(typeFeeGeneration)
	return nil
}

// RecordDrawdown is a verifier-gated convenience that writes
// drawdownPercent into commitmentID's cached health metrics as an
// independent verifier assertion (see SPEC_FULL.md §1.3's open-question
// note: this need not equal the ledger-derived figure; VerifyCompliance
// checks both) and appends an internal drawdown attestation.
func (e *Engine) RecordDrawdown(caller crypto.Address, commitmentID string, drawdownPercent uint32) error {
	if err := e.requireInitialized(); err != nil {
		return err
	}
	if err := e.guardPaused(); err != nil {
		return err
	}
	if err := e.requireVerifier(caller); err != nil {
		return err
	}
	if err := e.checkRateLimit(caller); err != nil {
		return err
	}
	exists, err := e.ledger.CommitmentExists(commitmentID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrCommitmentNotFound
	}
	if drawdownPercent > 100 {
		return ErrInvalidDrawdownPercent
	}

	a := Attestation{
		CommitmentID:    commitmentID,
		AttestationType: typeDrawdown,
		Data:            map[string]string{dataDrawdownPercent: strconv.FormatUint(uint64(drawdownPercent), 10)},
		Caller:          caller,
		Timestamp:       int64(e.now()),
		Compliant:       true,
	}
	if err := e.appendAndRecompute(a); err != nil {
		return err
	}
	e.telemetry.ObserveAttestation(typeDrawdown)
	return nil
}

func (e *Engine) chargeAttestationFee(caller crypto.Address) error {
	asset, hasAsset, recipient, hasRecipient, fee, err := e.state.FeeConfig()
	if err != nil {
		return err
	}
	if fee == nil || fee.Sign() <= 0 || !hasAsset || !hasRecipient {
		return nil
	}
	if e.transferer == nil {
		return ErrAssetTransferFailed
	}
	if err := e.transferer.Transfer(asset, caller, recipient, fee); err != nil {
		return ErrAssetTransferFailed
	}
	if err := e.state.AddCollectedFees(asset, fee); err != nil {
		return err
	}
	total, err := e.state.CollectedFees(asset)
	if err != nil {
		return err
	}
	e.telemetry.SetFeesCollected(asset.String(), bigIntToFloat(total))
	return nil
}

// bigIntToFloat converts an amount to the float64 Prometheus gauges require.
// Precision loss above 2^53 is acceptable for a dashboard-facing metric.
func bigIntToFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

func (e *Engine) appendAndRecompute(a Attestation) error {
	if err := e.state.AttestationAppend(a.CommitmentID, a); err != nil {
		return err
	}
	metrics, err := e.recomputeMetrics(a.CommitmentID)
	if err != nil {
		return err
	}
	return e.state.HealthMetricsPut(a.CommitmentID, metrics)
}

// recomputeMetrics rebuilds health metrics purely from the attestation log
// plus the ledger's authoritative amount/current-value, per §9's "the truth
// is in the attestation log plus commitment state" instruction. The cache
// HealthMetricsPut writes is always reconstructible this way.
func (e *Engine) recomputeMetrics(commitmentID string) (*HealthMetrics, error) {
	atts, err := e.state.Attestations(commitmentID)
	if err != nil {
		return nil, err
	}
	metrics := &HealthMetrics{
		InitialValue:  big.NewInt(0),
		CurrentValue:  big.NewInt(0),
		FeesGenerated: big.NewInt(0),
	}
	for _, a := range atts {
		if a.Timestamp >= 0 && uint64(a.Timestamp) > metrics.LastAttestation {
			metrics.LastAttestation = uint64(a.Timestamp)
		}
		switch a.AttestationType {
		case typeFeeGeneration:
			if raw, ok := a.Data[dataFeeAmount]; ok {
				if amt, ok := new(big.Int).SetString(raw, 10); ok {
					metrics.FeesGenerated.Add(metrics.FeesGenerated, amt)
				}
			}
		case typeDrawdown:
			if raw, ok := a.Data[dataDrawdownPercent]; ok {
				if v, err := strconv.ParseUint(raw, 10, 32); err == nil {
					metrics.DrawdownPercent = uint32(v)
				}
			}
		}
	}
	metrics.AttestationCount = uint32(len(atts))

	if e.ledger != nil {
		amount, current, _, _, ok, err := e.ledger.CommitmentTerms(commitmentID)
		if err != nil {
			return nil, err
		}
		if ok {
			metrics.InitialValue = amount
			metrics.CurrentValue = current
		}
	}
	return metrics, nil
}

// VerifyCompliance is compliant iff commitmentID exists, its cached
// drawdown assertion is within the Ledger's configured max loss, and the
// drawdown derived from the Ledger's own amount/current-value is too. A
// missing commitment is non-compliant rather than an error, per spec.md
// §4.3.
func (e *Engine) VerifyCompliance(commitmentID string) (bool, error) {
	amount, current, maxLoss, _, ok, err := e.ledger.CommitmentTerms(commitmentID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	metrics, found, err := e.state.HealthMetricsGet(commitmentID)
	if err != nil {
		return false, err
	}
	var asserted uint32
	if found && metrics != nil {
		asserted = metrics.DrawdownPercent
	}
	if asserted > maxLoss {
		return false, nil
	}
	if commitment.DrawdownPercent(amount, current) > maxLoss {
		return false, nil
	}
	return true, nil
}

// CalculateComplianceScore weights a base score of 100 down for drawdown
// beyond the configured max loss and for attestation staleness, and up
// slightly for fees generated above the commitment's minimum threshold,
// clamped to [0,100]. A commitment the Ledger does not recognize scores 0.
func (e *Engine) CalculateComplianceScore(commitmentID string) (uint32, error) {
	_, _, maxLoss, minFeeThreshold, ok, err := e.ledger.CommitmentTerms(commitmentID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	metrics, found, err := e.state.HealthMetricsGet(commitmentID)
	if err != nil {
		return 0, err
	}
	if !found || metrics == nil {
		metrics = &HealthMetrics{FeesGenerated: big.NewInt(0)}
	}

	score := int64(100)
	if metrics.DrawdownPercent > maxLoss {
		score -= int64(metrics.DrawdownPercent-maxLoss) * 2
	}
	now := e.now()
	if metrics.LastAttestation == 0 || now < metrics.LastAttestation || now-metrics.LastAttestation > staleAfterSeconds {
		score -= 10
	}
	if minFeeThreshold > 0 && metrics.FeesGenerated != nil {
		threshold := new(big.Int).SetUint64(minFeeThreshold)
		if metrics.FeesGenerated.Cmp(threshold) > 0 {
			score += 5
		}
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	e.telemetry.SetComplianceScore(commitmentID, float64(score))
	return uint32(score), nil
}

// --- Queries ---

func (e *Engine) GetAttestations(commitmentID string) ([]Attestation, error) {
	atts, err := e.state.Attestations(commitmentID)
	if err != nil {
		return nil, err
	}
	out := make([]Attestation, len(atts))
	for i, a := range atts {
		out[i] = a.Clone()
	}
	return out, nil
}

func (e *Engine) GetAttestationCount(commitmentID string) (uint32, error) {
	return e.state.AttestationCount(commitmentID)
}

// GetAttestationsPage returns up to limit attestations starting at offset.
// next_offset is offset+limit if more remain, 0 otherwise (including when
// offset is already at or past the end).
func (e *Engine) GetAttestationsPage(commitmentID string, offset, limit uint32) (AttestationsPage, error) {
	atts, err := e.state.Attestations(commitmentID)
	if err != nil {
		return AttestationsPage{}, err
	}
	total := uint32(len(atts))
	if offset >= total {
		return AttestationsPage{Attestations: []Attestation{}}, nil
	}
	end := offset + limit
	if end > total || end < offset {
		end = total
	}
	page := make([]Attestation, end-offset)
	for i, a := range atts[offset:end] {
		page[i] = a.Clone()
	}
	next := uint32(0)
	if end < total {
		next = end
	}
	return AttestationsPage{Attestations: page, NextOffset: next}, nil
}

// GetHealthMetrics recomputes a commitment's health metrics fresh from the
// attestation log and the Ledger's current amount/value, rather than
// reading the cache. Tests use this to confirm the cache GetStoredHealthMetrics
// returns is always reconstructible from the log.
func (e *Engine) GetHealthMetrics(commitmentID string) (*HealthMetrics, error) {
	return e.recomputeMetrics(commitmentID)
}

// GetStoredHealthMetrics returns the cached metrics written on the last
// Attest/RecordFees/RecordDrawdown call, or a zero-value metrics struct if
// none has ever been written.
func (e *Engine) GetStoredHealthMetrics(commitmentID string) (*HealthMetrics, error) {
	metrics, found, err := e.state.HealthMetricsGet(commitmentID)
	if err != nil {
		return nil, err
	}
	if !found || metrics == nil {
		return &HealthMetrics{InitialValue: big.NewInt(0), CurrentValue: big.NewInt(0), FeesGenerated: big.NewInt(0)}, nil
	}
	return metrics.Clone(), nil
}

// GetAttestationFee, GetFeeRecipient and GetCollectedFees surface the
// supplemented fee-collection feature's configuration and accrued totals
// (SPEC_FULL.md §4.1).
func (e *Engine) GetAttestationFee() (*big.Int, error) {
	_, _, _, _, fee, err := e.state.FeeConfig()
	if err != nil {
		return nil, err
	}
	if fee == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(fee), nil
}

func (e *Engine) GetFeeRecipient() (crypto.Address, bool, error) {
	_, _, recipient, hasRecipient, _, err := e.state.FeeConfig()
	if err != nil {
		return crypto.Address{}, false, err
	}
	return recipient, hasRecipient, nil
}

func (e *Engine) GetCollectedFees(asset crypto.Address) (*big.Int, error) {
	return e.state.CollectedFees(asset)
}

func (e *Engine) GetAdmin() (crypto.Address, error) {
	admin, set, err := e.state.Admin()
	if err != nil {
		return crypto.Address{}, err
	}
	if !set {
		return crypto.Address{}, ErrNotInitialized
	}
	return admin, nil
}

func (e *Engine) IsVerifier(addr crypto.Address) (bool, error) {
	return e.state.IsVerifier(addr)
}

func cloneData(data map[string]string) map[string]string {
	if data == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
