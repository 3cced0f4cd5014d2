package state

import (
	"math/big"
	"sort"

	"nhbchain/crypto"
	"nhbchain/native/commitment"
	"nhbchain/native/token"
)

var (
	commitmentInitKey   = []byte("commitment/init")
	commitmentAdminKey  = []byte("commitment/admin")
	commitmentNFTKey    = []byte("commitment/nft")
	commitmentRecPrefix = []byte("commitment/rec/")
	commitmentTSPrefix  = []byte("commitment/bytime/")
	commitmentSeqKey    = []byte("commitment/seq")
)

type commitmentRecordRLP struct {
	ID               string
	Owner            addrRLP
	Amount           *big.Int
	CurrentValue     *big.Int
	Asset            addrRLP
	DurationDays     uint32
	MaxLossPercent   uint32
	CommitmentType   string
	EarlyExitPenalty uint32
	MinFeeThreshold  uint64
	GracePeriodDays  uint32
	Status           string
	CreatedAt        uint64
	ExpiresAt        uint64
	NFTTokenID       uint32
}

func toCommitmentRecord(c *commitment.Commitment) *commitmentRecordRLP {
	return &commitmentRecordRLP{
		ID:               c.ID,
		Owner:            encodeAddr(c.Owner),
		Amount:           encodeBig(c.Amount),
		CurrentValue:     encodeBig(c.CurrentValue),
		Asset:            encodeAddr(c.Asset),
		DurationDays:     c.Rules.DurationDays,
		MaxLossPercent:   c.Rules.MaxLossPercent,
		CommitmentType:   string(c.Rules.CommitmentType),
		EarlyExitPenalty: c.Rules.EarlyExitPenalty,
		MinFeeThreshold:  c.Rules.MinFeeThreshold,
		GracePeriodDays:  c.Rules.GracePeriodDays,
		Status:           string(c.Status),
		CreatedAt:        c.CreatedAt,
		ExpiresAt:        c.ExpiresAt,
		NFTTokenID:       c.NFTTokenID,
	}
}

func fromCommitmentRecord(r *commitmentRecordRLP) *commitment.Commitment {
	return &commitment.Commitment{
		ID:           r.ID,
		Owner:        decodeAddr(r.Owner),
		Amount:       r.Amount,
		CurrentValue: r.CurrentValue,
		Asset:        decodeAddr(r.Asset),
		Rules: commitment.Rules{
			DurationDays:     r.DurationDays,
			MaxLossPercent:   r.MaxLossPercent,
			CommitmentType:   token.CommitmentType(r.CommitmentType),
			EarlyExitPenalty: r.EarlyExitPenalty,
			MinFeeThreshold:  r.MinFeeThreshold,
			GracePeriodDays:  r.GracePeriodDays,
		},
		Status:     commitment.Status(r.Status),
		CreatedAt:  r.CreatedAt,
		ExpiresAt:  r.ExpiresAt,
		NFTTokenID: r.NFTTokenID,
	}
}

// Manager itself implements the Token Registry's token.State directly
// (package-level methods in token_state.go). The Commitment Ledger and
// Attestation Engine need their own Initialized/Admin methods under
// distinct keys, and Go does not allow a type to satisfy two interfaces
// with colliding method names differently — so each gets a thin view type
// over the same Manager/Store instead of its own separate store.
type LedgerState struct{ m *Manager }

// ForLedger returns the commitment.State view of this Manager.
func (m *Manager) ForLedger() *LedgerState { return &LedgerState{m: m} }

func (l *LedgerState) Initialized() (bool, error)  { return getBool(l.m.store, commitmentInitKey) }
func (l *LedgerState) SetInitialized(v bool) error { return putBool(l.m.store, commitmentInitKey, v) }

func (l *LedgerState) Admin() (crypto.Address, bool, error) {
	var a addrRLP
	ok, err := getRLP(l.m.store, commitmentAdminKey, &a)
	if err != nil || !ok {
		return crypto.Address{}, ok, err
	}
	return decodeAddr(a), true, nil
}
func (l *LedgerState) SetAdmin(addr crypto.Address) error {
	return putRLP(l.m.store, commitmentAdminKey, encodeAddr(addr))
}

func (l *LedgerState) NFTContract() (crypto.Address, bool, error) {
	var a addrRLP
	ok, err := getRLP(l.m.store, commitmentNFTKey, &a)
	if err != nil || !ok {
		return crypto.Address{}, ok, err
	}
	return decodeAddr(a), true, nil
}
func (l *LedgerState) SetNFTContract(addr crypto.Address) error {
	return putRLP(l.m.store, commitmentNFTKey, encodeAddr(addr))
}

func commitmentRecKey(id string) []byte { return concatKey(commitmentRecPrefix, []byte(id)) }

func (l *LedgerState) CommitmentPut(c *commitment.Commitment) error {
	existed, err := l.m.store.Has(commitmentRecKey(c.ID))
	if err != nil {
		return err
	}
	if !existed {
		seq, _, err := getUint64(l.m.store, commitmentSeqKey)
		if err != nil {
			return err
		}
		if err := putUint64(l.m.store, commitmentSeqKey, seq+1); err != nil {
			return err
		}
		tsKey := concatKey(commitmentTSPrefix, uint64Key(c.CreatedAt), uint64Key(seq))
		if err := l.m.store.Set(tsKey, []byte(c.ID)); err != nil {
			return err
		}
	}
	return putRLP(l.m.store, commitmentRecKey(c.ID), toCommitmentRecord(c))
}

func (l *LedgerState) CommitmentGet(id string) (*commitment.Commitment, bool, error) {
	var rec commitmentRecordRLP
	ok, err := getRLP(l.m.store, commitmentRecKey(id), &rec)
	if err != nil || !ok {
		return nil, ok, err
	}
	return fromCommitmentRecord(&rec), true, nil
}

func (l *LedgerState) CommitmentExists(id string) (bool, error) {
	return l.m.store.Has(commitmentRecKey(id))
}

// CommitmentsCreatedBetween scans the created_at-prefixed index, which is
// written in (createdAt, insertion-sequence) big-endian key order and
// therefore already iterates in exactly the order spec.md §9's resolved
// open question calls for: ascending created_at, insertion-order tiebreak.
func (l *LedgerState) CommitmentsCreatedBetween(fromTS, toTS uint64) ([]string, error) {
	if fromTS > toTS {
		return nil, nil
	}
	type entry struct {
		ts  uint64
		id  string
	}
	var matches []entry
	err := l.m.store.Iterate(commitmentTSPrefix, func(key, value []byte) bool {
		suffix := key[len(commitmentTSPrefix):]
		if len(suffix) < 8 {
			return true
		}
		ts := beUint64(suffix[:8])
		if ts >= fromTS && ts <= toTS {
			matches = append(matches, entry{ts: ts, id: string(value)})
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	// Iterate already yields ascending key order (ts, seq); MemDB/LevelDB
	// both guarantee lexicographic order, so no secondary sort is needed,
	// but SliceStable here is a cheap safeguard against a future backend
	// that doesn't.
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].ts < matches[j].ts })
	out := make([]string, len(matches))
	for i, e := range matches {
		out[i] = e.id
	}
	return out, nil
}

func beUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
