package attestation

import (
	"math/big"

	"nhbchain/crypto"
)

// State is the narrow persistence surface the Engine needs. Production code
// binds this to state.Manager; tests bind it to an in-memory double.
type State interface {
	Initialized() (bool, error)
	SetInitialized(bool) error
	Admin() (crypto.Address, bool, error)
	SetAdmin(crypto.Address) error
	CoreContract() (crypto.Address, bool, error)
	SetCoreContract(crypto.Address) error

	AddVerifier(crypto.Address) error
	RemoveVerifier(crypto.Address) error
	IsVerifier(crypto.Address) (bool, error)

	RegisterAttestationType(name string) error
	IsAttestationTypeRecognized(name string) (bool, error)

	AttestationAppend(commitmentID string, a Attestation) error
	Attestations(commitmentID string) ([]Attestation, error)
	AttestationCount(commitmentID string) (uint32, error)

	HealthMetricsGet(commitmentID string) (*HealthMetrics, bool, error)
	HealthMetricsPut(commitmentID string, h *HealthMetrics) error

	FeeConfig() (asset crypto.Address, hasAsset bool, recipient crypto.Address, hasRecipient bool, fee *big.Int, err error)
	SetFeeConfig(asset crypto.Address, hasAsset bool, recipient crypto.Address, hasRecipient bool, fee *big.Int) error
	CollectedFees(asset crypto.Address) (*big.Int, error)
	AddCollectedFees(asset crypto.Address, amount *big.Int) error
}
