package commitment

import (
	"errors"
	"math/big"
	"testing"

	"nhbchain/assets"
	"nhbchain/crypto"
	"nhbchain/native/token"
)

func defaultRules() Rules {
	return Rules{
		DurationDays:     1,
		MaxLossPercent:   10,
		CommitmentType:   token.CommitmentSafe,
		EarlyExitPenalty: 5,
	}
}

func newTestLedger(t *testing.T) (*Ledger, *assets.MemLedger, crypto.Address, crypto.Address) {
	t.Helper()
	admin := makeAddress(crypto.VaultPrefix, 0x01)
	self := makeAddress(crypto.VaultPrefix, 0x02)
	custody := makeAddress(crypto.VaultPrefix, 0x03)
	nftContract := makeAddress(crypto.VaultPrefix, 0x04)

	registry := token.NewRegistry(newMockTokenState())
	if err := registry.Initialize(admin); err != nil {
		t.Fatalf("registry Initialize: %v", err)
	}
	if err := registry.SetCoreContract(admin, self); err != nil {
		t.Fatalf("SetCoreContract: %v", err)
	}

	mem := assets.NewMemLedger()
	ledger := NewLedger(newMockLedgerState(), registry, mem, self, custody)
	if err := ledger.Initialize(admin, nftContract); err != nil {
		t.Fatalf("ledger Initialize: %v", err)
	}
	return ledger, mem, admin, self
}

func TestCreateSettleRoundTrip(t *testing.T) {
	ledger, mem, admin, _ := newTestLedger(t)
	owner := makeAddress(crypto.VaultPrefix, 0x10)
	asset := makeAddress(crypto.AssetPrefix, 0x01)
	amount := big.NewInt(1_000_000_000_000)
	mem.Credit(asset, owner, amount)

	now := int64(1_000_000)
	ledger.SetNowFunc(func() int64 { return now })
	ledger.registry.SetNowFunc(func() int64 { return now })

	id, err := ledger.CreateCommitment(owner, amount, asset, defaultRules())
	if err != nil {
		t.Fatalf("CreateCommitment: %v", err)
	}
	c, ok, err := ledger.GetCommitment(id)
	if err != nil || !ok {
		t.Fatalf("expected commitment to exist, ok=%v err=%v", ok, err)
	}
	if c.NFTTokenID != 0 || c.Status != StatusActive {
		t.Fatalf("expected fresh active token 0, got id=%d status=%s", c.NFTTokenID, c.Status)
	}
	if mem.BalanceOf(asset, owner).Sign() != 0 {
		t.Fatalf("expected owner balance debited to zero")
	}

	now += 2 * secondsPerDayForTest
	ledger.SetNowFunc(func() int64 { return now })
	ledger.registry.SetNowFunc(func() int64 { return now })

	if err := ledger.Settle(id); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	c, _, err = ledger.GetCommitment(id)
	if err != nil {
		t.Fatalf("GetCommitment: %v", err)
	}
	if c.Status != StatusSettled {
		t.Fatalf("expected status settled, got %s", c.Status)
	}
	active, err := ledger.registry.IsActive(0)
	if err != nil || active {
		t.Fatalf("expected token unlocked after settle, active=%v err=%v", active, err)
	}
	if mem.BalanceOf(asset, owner).Cmp(amount) != 0 {
		t.Fatalf("expected owner balance restored to %s, got %s", amount, mem.BalanceOf(asset, owner))
	}
	supply, _ := ledger.registry.TotalSupply()
	if supply != 1 {
		t.Fatalf("expected supply unchanged at 1, got %d", supply)
	}
	_ = admin
}

const secondsPerDayForTest = 86400

func TestLockPreventsTransferUntilSettled(t *testing.T) {
	ledger, mem, _, _ := newTestLedger(t)
	owner := makeAddress(crypto.VaultPrefix, 0x10)
	other := makeAddress(crypto.VaultPrefix, 0x11)
	asset := makeAddress(crypto.AssetPrefix, 0x01)
	amount := big.NewInt(1_000_000_000_000)
	mem.Credit(asset, owner, amount)

	now := int64(1_000_000)
	ledger.SetNowFunc(func() int64 { return now })
	ledger.registry.SetNowFunc(func() int64 { return now })

	id, err := ledger.CreateCommitment(owner, amount, asset, defaultRules())
	if err != nil {
		t.Fatalf("CreateCommitment: %v", err)
	}

	if err := ledger.registry.Transfer(owner, other, 0); !errors.Is(err, token.ErrNFTLocked) {
		t.Fatalf("expected ErrNFTLocked, got %v", err)
	}

	now += 2 * secondsPerDayForTest
	ledger.SetNowFunc(func() int64 { return now })
	ledger.registry.SetNowFunc(func() int64 { return now })
	if err := ledger.Settle(id); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	if err := ledger.registry.Transfer(owner, other, 0); err != nil {
		t.Fatalf("Transfer after settle: %v", err)
	}
	newOwner, err := ledger.registry.OwnerOf(0)
	if err != nil || !newOwner.Equal(other) {
		t.Fatalf("expected owner %s, got %s (err=%v)", other, newOwner, err)
	}
}

func TestDrawdownViolation(t *testing.T) {
	ledger, mem, admin, _ := newTestLedger(t)
	owner := makeAddress(crypto.VaultPrefix, 0x10)
	asset := makeAddress(crypto.AssetPrefix, 0x01)
	amount := big.NewInt(1_000_000_000_000)
	mem.Credit(asset, owner, amount)

	id, err := ledger.CreateCommitment(owner, amount, asset, defaultRules())
	if err != nil {
		t.Fatalf("CreateCommitment: %v", err)
	}

	newValue := new(big.Int).Div(new(big.Int).Mul(amount, big.NewInt(80)), big.NewInt(100))
	if err := ledger.UpdateValue(admin, id, newValue); err != nil {
		t.Fatalf("UpdateValue: %v", err)
	}

	c, _, err := ledger.GetCommitment(id)
	if err != nil {
		t.Fatalf("GetCommitment: %v", err)
	}
	if c.Status != StatusViolated {
		t.Fatalf("expected violated status, got %s", c.Status)
	}
}

func TestEarlyExitZeroValueCompletesWithoutPanic(t *testing.T) {
	ledger, mem, admin, _ := newTestLedger(t)
	owner := makeAddress(crypto.VaultPrefix, 0x10)
	asset := makeAddress(crypto.AssetPrefix, 0x01)
	amount := big.NewInt(1_000_000_000_000)
	mem.Credit(asset, owner, amount)

	// A 100% max loss keeps the commitment active when its value is marked
	// down to zero, so EarlyExit sees an active commitment worth 0.
	rules := defaultRules()
	rules.MaxLossPercent = 100
	id, err := ledger.CreateCommitment(owner, amount, asset, rules)
	if err != nil {
		t.Fatalf("CreateCommitment: %v", err)
	}
	if err := ledger.UpdateValue(admin, id, big.NewInt(0)); err != nil {
		t.Fatalf("UpdateValue: %v", err)
	}

	if err := ledger.EarlyExit(owner, id); err != nil {
		t.Fatalf("EarlyExit: %v", err)
	}
	c, _, err := ledger.GetCommitment(id)
	if err != nil {
		t.Fatalf("GetCommitment: %v", err)
	}
	if c.Status != StatusEarlyExit {
		t.Fatalf("expected early_exit status, got %s", c.Status)
	}
}

func TestEarlyExitAppliesPenalty(t *testing.T) {
	ledger, mem, _, _ := newTestLedger(t)
	owner := makeAddress(crypto.VaultPrefix, 0x10)
	asset := makeAddress(crypto.AssetPrefix, 0x01)
	amount := big.NewInt(1000)
	mem.Credit(asset, owner, amount)

	id, err := ledger.CreateCommitment(owner, amount, asset, defaultRules())
	if err != nil {
		t.Fatalf("CreateCommitment: %v", err)
	}

	if err := ledger.EarlyExit(owner, id); err != nil {
		t.Fatalf("EarlyExit: %v", err)
	}
	// 5% penalty of 1000 = 50, returned = 950.
	if got := mem.BalanceOf(asset, owner); got.Cmp(big.NewInt(950)) != 0 {
		t.Fatalf("expected owner balance 950, got %s", got)
	}
}

func TestEarlyExitRejectsNonOwner(t *testing.T) {
	ledger, mem, _, _ := newTestLedger(t)
	owner := makeAddress(crypto.VaultPrefix, 0x10)
	intruder := makeAddress(crypto.VaultPrefix, 0x99)
	asset := makeAddress(crypto.AssetPrefix, 0x01)
	amount := big.NewInt(1000)
	mem.Credit(asset, owner, amount)

	id, err := ledger.CreateCommitment(owner, amount, asset, defaultRules())
	if err != nil {
		t.Fatalf("CreateCommitment: %v", err)
	}
	if err := ledger.EarlyExit(intruder, id); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestTerminalStatusRejectsMutation(t *testing.T) {
	ledger, mem, admin, _ := newTestLedger(t)
	owner := makeAddress(crypto.VaultPrefix, 0x10)
	asset := makeAddress(crypto.AssetPrefix, 0x01)
	amount := big.NewInt(1000)
	mem.Credit(asset, owner, amount)

	id, err := ledger.CreateCommitment(owner, amount, asset, defaultRules())
	if err != nil {
		t.Fatalf("CreateCommitment: %v", err)
	}
	if err := ledger.EarlyExit(owner, id); err != nil {
		t.Fatalf("EarlyExit: %v", err)
	}
	if err := ledger.UpdateValue(admin, id, big.NewInt(1)); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if err := ledger.EarlyExit(owner, id); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestSettleDistinguishesTerminalStatuses(t *testing.T) {
	ledger, mem, admin, _ := newTestLedger(t)
	owner := makeAddress(crypto.VaultPrefix, 0x10)
	asset := makeAddress(crypto.AssetPrefix, 0x01)
	amount := big.NewInt(1_000_000_000_000)
	mem.Credit(asset, owner, new(big.Int).Mul(amount, big.NewInt(3)))

	now := int64(1_000_000)
	ledger.SetNowFunc(func() int64 { return now })
	ledger.registry.SetNowFunc(func() int64 { return now })

	id, err := ledger.CreateCommitment(owner, amount, asset, defaultRules())
	if err != nil {
		t.Fatalf("CreateCommitment: %v", err)
	}

	newValue := new(big.Int).Div(new(big.Int).Mul(amount, big.NewInt(80)), big.NewInt(100))
	if err := ledger.UpdateValue(admin, id, newValue); err != nil {
		t.Fatalf("UpdateValue: %v", err)
	}
	now += 2 * secondsPerDayForTest
	ledger.SetNowFunc(func() int64 { return now })
	if err := ledger.Settle(id); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState settling a violated commitment, got %v", err)
	}

	id2, err := ledger.CreateCommitment(owner, amount, asset, defaultRules())
	if err != nil {
		t.Fatalf("CreateCommitment: %v", err)
	}
	if err := ledger.EarlyExit(owner, id2); err != nil {
		t.Fatalf("EarlyExit: %v", err)
	}
	if err := ledger.Settle(id2); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState settling an early-exited commitment, got %v", err)
	}

	id3, err := ledger.CreateCommitment(owner, amount, asset, defaultRules())
	if err != nil {
		t.Fatalf("CreateCommitment: %v", err)
	}
	now += 2 * secondsPerDayForTest
	if err := ledger.Settle(id3); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if err := ledger.Settle(id3); !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled re-settling a settled commitment, got %v", err)
	}
}

func TestCreatedBetweenOrdering(t *testing.T) {
	ledger, mem, _, _ := newTestLedger(t)
	owner := makeAddress(crypto.VaultPrefix, 0x10)
	asset := makeAddress(crypto.AssetPrefix, 0x01)
	amount := big.NewInt(1000)
	mem.Credit(asset, owner, new(big.Int).Mul(amount, big.NewInt(10)))

	var ids []string
	times := []int64{100, 100, 200}
	for _, ts := range times {
		ledger.SetNowFunc(func() int64 { return ts })
		ledger.registry.SetNowFunc(func() int64 { return ts })
		id, err := ledger.CreateCommitment(owner, amount, asset, defaultRules())
		if err != nil {
			t.Fatalf("CreateCommitment: %v", err)
		}
		ids = append(ids, id)
	}

	got, err := ledger.GetCommitmentsCreatedBetween(0, 1000)
	if err != nil {
		t.Fatalf("GetCommitmentsCreatedBetween: %v", err)
	}
	if len(got) != 3 || got[0] != ids[0] || got[1] != ids[1] || got[2] != ids[2] {
		t.Fatalf("expected ordering %v, got %v", ids, got)
	}

	empty, err := ledger.GetCommitmentsCreatedBetween(500, 100)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty slice for inverted range, got %v err=%v", empty, err)
	}
}
