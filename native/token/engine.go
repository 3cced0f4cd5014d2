package token

import (
	"math/big"
	"time"

	"nhbchain/core/events"
	"nhbchain/crypto"
	nativecommon "nhbchain/native/common"
	"nhbchain/observability/metrics"
)

const moduleName = "token"

// Registry is the Token Registry engine described by spec.md §4.1. It mints,
// transfers and settles ownership tokens, and answers ownership/metadata
// queries.
type Registry struct {
	state     State
	emitter   events.Emitter
	pauses    nativecommon.PauseView
	nowFn     func() int64
	telemetry *metrics.VaultMetrics
}

// NewRegistry constructs a Registry bound to state. Callers must still call
// SetEmitter/SetPauses if those capabilities are needed; a Registry with no
// emitter silently drops events and a Registry with no PauseView is never
// paused. Telemetry is bound to the process-wide metrics.Vault() singleton,
// the same pattern the teacher's native/potso engine uses.
func NewRegistry(state State) *Registry {
	return &Registry{
		state:     state,
		emitter:   events.NoopEmitter{},
		nowFn:     func() int64 { return time.Now().Unix() },
		telemetry: metrics.Vault(),
	}
}

func (r *Registry) SetEmitter(e events.Emitter) {
	if e == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = e
}

func (r *Registry) SetPauses(p nativecommon.PauseView) { r.pauses = p }

// SetNowFunc overrides the time source; used by tests to control expiry.
func (r *Registry) SetNowFunc(now func() int64) {
	if now == nil {
		r.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	r.nowFn = now
}

func (r *Registry) now() uint64 {
	n := r.nowFn()
	if n < 0 {
		return 0
	}
	return uint64(n)
}

func (r *Registry) emit(e events.Event) {
	if r.emitter == nil || e == nil {
		return
	}
	r.emitter.Emit(e)
}

func (r *Registry) guardPaused() error {
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return ErrPaused
	}
	return nil
}

// Initialize records the admin once. A second call fails with
// ErrAlreadyInitialized.
func (r *Registry) Initialize(admin crypto.Address) error {
	initialized, err := r.state.Initialized()
	if err != nil {
		return err
	}
	if initialized {
		return ErrAlreadyInitialized
	}
	if err := r.state.SetAdmin(admin); err != nil {
		return err
	}
	return r.state.SetInitialized(true)
}

func (r *Registry) requireInitialized() error {
	initialized, err := r.state.Initialized()
	if err != nil {
		return err
	}
	if !initialized {
		return ErrNotInitialized
	}
	return nil
}

// SetCoreContract designates the single caller allowed to invoke Mint and
// Settle. Admin-gated.
func (r *Registry) SetCoreContract(caller, core crypto.Address) error {
	if err := r.requireInitialized(); err != nil {
		return err
	}
	admin, _, err := r.state.Admin()
	if err != nil {
		return err
	}
	if !caller.Equal(admin) {
		return ErrUnauthorized
	}
	return r.state.SetCoreContract(core)
}

func (r *Registry) requireCoreCaller(caller crypto.Address) error {
	core, bound, err := r.state.CoreContract()
	if err != nil {
		return err
	}
	if !bound || !caller.Equal(core) {
		return ErrUnauthorized
	}
	return nil
}

// Mint allocates a new token id, persists its record, and updates supply and
// per-owner indices. Preconditions, in order: initialized; caller is the
// bound core contract; not paused; commitment_type recognized;
// commitment_id length bounds; duration_days >= 1; max_loss_percent <= 100.
func (r *Registry) Mint(caller, owner crypto.Address, commitmentID string, durationDays, maxLossPercent uint32, ctype CommitmentType, initialAmount *big.Int, asset crypto.Address, earlyExitPenalty uint32) (uint32, error) {
	if err := r.requireInitialized(); err != nil {
		return 0, err
	}
	if err := r.requireCoreCaller(caller); err != nil {
		return 0, err
	}
	if err := r.guardPaused(); err != nil {
		return 0, err
	}
	if !ctype.Valid() {
		return 0, ErrInvalidCommitmentType
	}
	if l := len(commitmentID); l < MinCommitmentIDLen || l > MaxCommitmentIDLen {
		return 0, ErrInvalidCommitmentID
	}
	if durationDays < 1 {
		return 0, ErrInvalidDuration
	}
	if maxLossPercent > 100 {
		return 0, ErrInvalidMaxLoss
	}
	if earlyExitPenalty > 100 {
		return 0, ErrInvalidMaxLoss
	}

	id, err := r.state.NextTokenID()
	if err != nil {
		return 0, err
	}
	now := r.now()
	expiresAt := saturatingExpiry(now, durationDays)

	amount := big.NewInt(0)
	if initialAmount != nil {
		amount = new(big.Int).Set(initialAmount)
	}

	tok := &Token{
		ID:       id,
		Owner:    owner,
		IsActive: true,
		Metadata: Metadata{
			CommitmentID:     commitmentID,
			DurationDays:     durationDays,
			MaxLossPercent:   maxLossPercent,
			CommitmentType:   ctype,
			InitialAmount:    amount,
			AssetAddress:     asset,
			EarlyExitPenalty: earlyExitPenalty,
			CreatedAt:        now,
			ExpiresAt:        expiresAt,
		},
	}
	if err := r.state.TokenPut(tok); err != nil {
		return 0, err
	}
	if err := r.state.SetNextTokenID(id + 1); err != nil {
		return 0, err
	}
	supply, err := r.state.TotalSupply()
	if err != nil {
		return 0, err
	}
	if err := r.state.SetTotalSupply(supply + 1); err != nil {
		return 0, err
	}
	if err := r.state.OwnerAddToken(owner, id); err != nil {
		return 0, err
	}

	r.telemetry.IncMint()
	r.telemetry.SetTotalSupply(float64(supply + 1))
	r.emit(events.Mint{TokenID: id, Owner: owner.String(), CommitmentID: commitmentID, Timestamp: int64(now)})
	return id, nil
}

// Transfer moves ownership of an unlocked token. Preconditions, in order:
// initialized; not paused; token exists; from is the current owner; to is
// not from (self-transfer rejected); token is inactive (unlocked).
func (r *Registry) Transfer(from, to crypto.Address, tokenID uint32) error {
	if err := r.requireInitialized(); err != nil {
		return err
	}
	if err := r.guardPaused(); err != nil {
		return err
	}
	tok, ok, err := r.state.TokenGet(tokenID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTokenNotFound
	}
	if !tok.Owner.Equal(from) {
		return ErrNotOwner
	}
	if to.IsZero() || to.Equal(from) {
		return ErrTransferToZero
	}
	if tok.IsActive {
		return ErrNFTLocked
	}

	if err := r.state.OwnerRemoveToken(from, tokenID); err != nil {
		return err
	}
	if err := r.state.OwnerAddToken(to, tokenID); err != nil {
		return err
	}
	tok.Owner = to
	if err := r.state.TokenPut(tok); err != nil {
		return err
	}

	r.telemetry.IncTransfer()
	r.emit(events.Transfer{TokenID: tokenID, From: from.String(), To: to.String(), Timestamp: int64(r.now())})
	return nil
}

// Settle flips a token's lock off. Callable only by the bound core
// contract. Preconditions, in order: initialized; caller is the core
// contract; token exists; not already settled; now >= expires_at.
func (r *Registry) Settle(caller crypto.Address, tokenID uint32) error {
	if err := r.requireInitialized(); err != nil {
		return err
	}
	if err := r.requireCoreCaller(caller); err != nil {
		return err
	}
	tok, ok, err := r.state.TokenGet(tokenID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTokenNotFound
	}
	if !tok.IsActive {
		return ErrAlreadySettled
	}
	now := r.now()
	if now < tok.Metadata.ExpiresAt {
		return ErrNotExpired
	}
	tok.IsActive = false
	if err := r.state.TokenPut(tok); err != nil {
		return err
	}
	r.emit(events.Settle{TokenID: tokenID, Timestamp: int64(now)})
	return nil
}

// --- Queries ---

func (r *Registry) GetAdmin() (crypto.Address, error) {
	admin, set, err := r.state.Admin()
	if err != nil {
		return crypto.Address{}, err
	}
	if !set {
		return crypto.Address{}, ErrNotInitialized
	}
	return admin, nil
}

func (r *Registry) GetCoreContract() (crypto.Address, error) {
	core, set, err := r.state.CoreContract()
	if err != nil {
		return crypto.Address{}, err
	}
	if !set {
		return crypto.Address{}, ErrNotInitialized
	}
	return core, nil
}

func (r *Registry) OwnerOf(tokenID uint32) (crypto.Address, error) {
	tok, ok, err := r.state.TokenGet(tokenID)
	if err != nil {
		return crypto.Address{}, err
	}
	if !ok {
		return crypto.Address{}, ErrTokenNotFound
	}
	return tok.Owner, nil
}

func (r *Registry) BalanceOf(owner crypto.Address) (uint64, error) {
	return r.state.BalanceOf(owner)
}

func (r *Registry) TotalSupply() (uint64, error) {
	return r.state.TotalSupply()
}

func (r *Registry) IsActive(tokenID uint32) (bool, error) {
	tok, ok, err := r.state.TokenGet(tokenID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, ErrTokenNotFound
	}
	return tok.IsActive, nil
}

func (r *Registry) IsExpired(tokenID uint32) (bool, error) {
	tok, ok, err := r.state.TokenGet(tokenID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, ErrTokenNotFound
	}
	return r.now() >= tok.Metadata.ExpiresAt, nil
}

func (r *Registry) TokenExists(tokenID uint32) (bool, error) {
	return r.state.TokenExists(tokenID)
}

func (r *Registry) GetMetadata(tokenID uint32) (*Metadata, error) {
	tok, ok, err := r.state.TokenGet(tokenID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTokenNotFound
	}
	return tok.Metadata.Clone(), nil
}

// GetAllMetadata returns every token's metadata keyed by token id. On
// uninitialized state it returns an empty map rather than an error.
func (r *Registry) GetAllMetadata() (map[uint32]*Metadata, error) {
	out := make(map[uint32]*Metadata)
	ids, err := r.state.AllTokenIDs()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		tok, ok, err := r.state.TokenGet(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out[id] = tok.Metadata.Clone()
	}
	return out, nil
}

// GetNFTsByOwner returns the token ids currently held by owner. On
// uninitialized state it returns an empty slice rather than an error.
func (r *Registry) GetNFTsByOwner(owner crypto.Address) ([]uint32, error) {
	return r.state.OwnerTokens(owner)
}
