package commitment

import (
	"math/big"
	"time"

	"nhbchain/assets"
	"nhbchain/core/events"
	"nhbchain/crypto"
	nativecommon "nhbchain/native/common"
	"nhbchain/native/token"
	"nhbchain/observability/metrics"

	"github.com/google/uuid"
)

const moduleName = "commitment"

// Ledger is the Commitment Ledger engine described by spec.md §4.2. It owns
// the active→settled|violated|early_exit state machine, the asset custody
// that backs it, and the Token Registry calls that lock/unlock the
// commitment's ownership token.
type Ledger struct {
	state      State
	registry   *token.Registry
	transferer assets.Transferer
	emitter    events.Emitter
	pauses     nativecommon.PauseView
	nowFn      func() int64
	idGen      func() string

	self        crypto.Address
	custody     crypto.Address
	penaltySink crypto.Address

	telemetry   *metrics.VaultMetrics
	activeCount int64
}

// NewLedger constructs a Ledger. self is the address the Ledger presents to
// the Token Registry as its caller; custody is the address asset balances
// move into on create and out of on settle/early-exit. The penalty sink
// defaults to custody; override with SetPenaltySink. Telemetry is bound to
// the process-wide metrics.Vault() singleton. activeCount starts at zero and
// tracks only commitments created/resolved in this process's lifetime; it is
// not rehydrated from persisted state on restart (see DESIGN.md).
func NewLedger(state State, registry *token.Registry, transferer assets.Transferer, self, custody crypto.Address) *Ledger {
	return &Ledger{
		state:       state,
		registry:    registry,
		transferer:  transferer,
		emitter:     events.NoopEmitter{},
		nowFn:       func() int64 { return time.Now().Unix() },
		idGen:       func() string { return uuid.NewString() },
		self:        self,
		custody:     custody,
		penaltySink: custody,
		telemetry:   metrics.Vault(),
	}
}

func (l *Ledger) SetEmitter(e events.Emitter) {
	if e == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = e
}

func (l *Ledger) SetPauses(p nativecommon.PauseView) { l.pauses = p }

// SetNowFunc overrides the time source; used by tests to control expiry.
func (l *Ledger) SetNowFunc(now func() int64) {
	if now == nil {
		l.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	l.nowFn = now
}

// SetIDGenerator overrides commitment id generation; used by tests that
// need deterministic ids.
func (l *Ledger) SetIDGenerator(gen func() string) {
	if gen == nil {
		l.idGen = func() string { return uuid.NewString() }
		return
	}
	l.idGen = gen
}

// SetPenaltySink overrides the address early-exit penalties are moved to.
func (l *Ledger) SetPenaltySink(addr crypto.Address) { l.penaltySink = addr }

func (l *Ledger) now() uint64 {
	n := l.nowFn()
	if n < 0 {
		return 0
	}
	return uint64(n)
}

func (l *Ledger) emit(e events.Event) {
	if l.emitter == nil || e == nil {
		return
	}
	l.emitter.Emit(e)
}

func (l *Ledger) guardPaused() error {
	if err := nativecommon.Guard(l.pauses, moduleName); err != nil {
		return ErrPaused
	}
	return nil
}

func (l *Ledger) requireInitialized() error {
	initialized, err := l.state.Initialized()
	if err != nil {
		return err
	}
	if !initialized {
		return ErrNotInitialized
	}
	return nil
}

// Initialize records the admin and the bound Token Registry contract once.
func (l *Ledger) Initialize(admin, nftContract crypto.Address) error {
	initialized, err := l.state.Initialized()
	if err != nil {
		return err
	}
	if initialized {
		return ErrAlreadyInitialized
	}
	if err := l.state.SetAdmin(admin); err != nil {
		return err
	}
	if err := l.state.SetNFTContract(nftContract); err != nil {
		return err
	}
	return l.state.SetInitialized(true)
}

func (l *Ledger) requireAdmin(caller crypto.Address) error {
	admin, set, err := l.state.Admin()
	if err != nil {
		return err
	}
	if !set || !caller.Equal(admin) {
		return ErrUnauthorized
	}
	return nil
}

// CreateCommitment locks amount of asset from owner into custody, mints a
// locked ownership token, and persists the new commitment as active.
func (l *Ledger) CreateCommitment(owner crypto.Address, amount *big.Int, asset crypto.Address, rules Rules) (string, error) {
	if err := l.requireInitialized(); err != nil {
		return "", err
	}
	if err := l.guardPaused(); err != nil {
		return "", err
	}
	if err := rules.validate(); err != nil {
		return "", err
	}

	id, err := l.uniqueID()
	if err != nil {
		return "", err
	}

	if err := l.transferer.Transfer(asset, owner, l.custody, amount); err != nil {
		return "", ErrAssetTransferFailed
	}

	tokenID, err := l.registry.Mint(l.self, owner, id, rules.DurationDays, rules.MaxLossPercent, rules.CommitmentType, amount, asset, rules.EarlyExitPenalty)
	if err != nil {
		return "", err
	}
	meta, err := l.registry.GetMetadata(tokenID)
	if err != nil {
		return "", err
	}

	c := &Commitment{
		ID:           id,
		Owner:        owner,
		Amount:       new(big.Int).Set(amount),
		CurrentValue: new(big.Int).Set(amount),
		Asset:        asset,
		Rules:        rules,
		Status:       StatusActive,
		CreatedAt:    meta.CreatedAt,
		ExpiresAt:    meta.ExpiresAt,
		NFTTokenID:   tokenID,
	}
	if err := l.state.CommitmentPut(c); err != nil {
		return "", err
	}

	l.activeCount++
	l.telemetry.SetActiveCommitments(float64(l.activeCount))
	l.emit(events.CommitmentCreated{CommitmentID: id, Owner: owner.String(), Amount: amount.String(), Timestamp: int64(l.now())})
	return id, nil
}

func (l *Ledger) uniqueID() (string, error) {
	for attempt := 0; attempt < 8; attempt++ {
		id := l.idGen()
		exists, err := l.state.CommitmentExists(id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
	return "", ErrInvalidState
}

// UpdateValue re-marks a commitment's current value and transitions it to
// violated when the resulting drawdown exceeds the commitment's rules.
// Admin-gated; only permitted while the commitment is active.
func (l *Ledger) UpdateValue(caller crypto.Address, commitmentID string, newValue *big.Int) error {
	if err := l.requireInitialized(); err != nil {
		return err
	}
	if err := l.requireAdmin(caller); err != nil {
		return err
	}
	if err := l.guardPaused(); err != nil {
		return err
	}
	c, ok, err := l.state.CommitmentGet(commitmentID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCommitmentNotFound
	}
	if c.Status != StatusActive {
		return ErrInvalidState
	}

	c.CurrentValue = new(big.Int).Set(newValue)
	drawPercent := DrawdownPercent(c.Amount, newValue)
	if drawPercent > c.Rules.MaxLossPercent {
		c.Status = StatusViolated
		if err := l.state.CommitmentPut(c); err != nil {
			return err
		}
		l.activeCount--
		l.telemetry.SetActiveCommitments(float64(l.activeCount))
		l.telemetry.ObserveSettlement("violated")
		l.emit(events.Violation{CommitmentID: commitmentID, DrawdownPct: drawPercent, MaxLossPercent: c.Rules.MaxLossPercent, Timestamp: int64(l.now())})
		return nil
	}
	return l.state.CommitmentPut(c)
}

// Settle closes an expired, still-active commitment: it credits the current
// value back to the owner, unlocks the ownership token, and marks the
// commitment settled.
func (l *Ledger) Settle(commitmentID string) error {
	if err := l.requireInitialized(); err != nil {
		return err
	}
	if err := l.guardPaused(); err != nil {
		return err
	}
	c, ok, err := l.state.CommitmentGet(commitmentID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCommitmentNotFound
	}
	if c.Status != StatusActive {
		if c.Status == StatusSettled {
			return ErrAlreadySettled
		}
		return ErrInvalidState
	}
	now := l.now()
	if now < c.ExpiresAt {
		return ErrNotExpired
	}

	if err := l.transferer.Transfer(c.Asset, l.custody, c.Owner, c.CurrentValue); err != nil {
		return ErrAssetTransferFailed
	}
	if err := l.registry.Settle(l.self, c.NFTTokenID); err != nil {
		return err
	}
	c.Status = StatusSettled
	if err := l.state.CommitmentPut(c); err != nil {
		return err
	}
	l.activeCount--
	l.telemetry.SetActiveCommitments(float64(l.activeCount))
	l.telemetry.ObserveSettlement("settled")
	return nil
}

// EarlyExit lets the owner terminate an active commitment before expiry,
// paying a percentage penalty out of the current value.
func (l *Ledger) EarlyExit(caller crypto.Address, commitmentID string) error {
	if err := l.requireInitialized(); err != nil {
		return err
	}
	if err := l.guardPaused(); err != nil {
		return err
	}
	c, ok, err := l.state.CommitmentGet(commitmentID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCommitmentNotFound
	}
	if c.Status != StatusActive {
		return ErrInvalidState
	}
	if !caller.Equal(c.Owner) {
		return ErrUnauthorized
	}

	penalty := earlyExitPenalty(c.CurrentValue, c.Rules.EarlyExitPenalty)
	returned := returnedAfterPenalty(c.CurrentValue, penalty)

	if returned.Sign() > 0 {
		if err := l.transferer.Transfer(c.Asset, l.custody, c.Owner, returned); err != nil {
			return ErrAssetTransferFailed
		}
	}
	if penalty.Sign() > 0 {
		if err := l.transferer.Transfer(c.Asset, l.custody, l.penaltySink, penalty); err != nil {
			return ErrAssetTransferFailed
		}
	}
	if err := l.registry.Settle(l.self, c.NFTTokenID); err != nil {
		return err
	}
	c.Status = StatusEarlyExit
	if err := l.state.CommitmentPut(c); err != nil {
		return err
	}

	l.activeCount--
	l.telemetry.SetActiveCommitments(float64(l.activeCount))
	l.telemetry.ObserveSettlement("early_exit")
	l.emit(events.EarlyExit{CommitmentID: commitmentID, Penalty: penalty.String(), Returned: returned.String(), Timestamp: int64(l.now())})
	return nil
}

// GetCommitment returns a defensive copy of the stored commitment.
func (l *Ledger) GetCommitment(commitmentID string) (*Commitment, bool, error) {
	c, ok, err := l.state.CommitmentGet(commitmentID)
	if err != nil || !ok {
		return nil, ok, err
	}
	return c.Clone(), true, nil
}

// CommitmentExists reports whether commitmentID names a persisted
// commitment. Exposed so the Attestation Engine can satisfy its LedgerView
// capability without this package depending on that one.
func (l *Ledger) CommitmentExists(commitmentID string) (bool, error) {
	return l.state.CommitmentExists(commitmentID)
}

// CommitmentTerms returns the fields the Attestation Engine's
// VerifyCompliance and CalculateComplianceScore read: the commitment's
// original amount, current marked value, configured max-loss percent and
// minimum fee threshold. found is false when commitmentID is unknown.
func (l *Ledger) CommitmentTerms(commitmentID string) (amount, currentValue *big.Int, maxLossPercent uint32, minFeeThreshold uint64, found bool, err error) {
	c, ok, err := l.state.CommitmentGet(commitmentID)
	if err != nil || !ok {
		return nil, nil, 0, 0, false, err
	}
	return new(big.Int).Set(c.Amount), new(big.Int).Set(c.CurrentValue), c.Rules.MaxLossPercent, c.Rules.MinFeeThreshold, true, nil
}

// GetCommitmentsCreatedBetween returns ids created within [fromTS, toTS],
// ordered by created_at ascending with insertion order as tiebreak. An
// inverted range or uninitialized ledger returns an empty slice.
func (l *Ledger) GetCommitmentsCreatedBetween(fromTS, toTS uint64) ([]string, error) {
	if fromTS > toTS {
		return nil, nil
	}
	return l.state.CommitmentsCreatedBetween(fromTS, toTS)
}
