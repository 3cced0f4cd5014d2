package commitment

import "nhbchain/crypto"

// State is the narrow persistence surface the Ledger needs. Production code
// binds this to state.Manager; tests bind it to an in-memory double.
type State interface {
	Initialized() (bool, error)
	SetInitialized(bool) error
	Admin() (crypto.Address, bool, error)
	SetAdmin(crypto.Address) error
	NFTContract() (crypto.Address, bool, error)
	SetNFTContract(crypto.Address) error

	// CommitmentPut upserts a commitment. The first Put for a given id
	// fixes its position in the created_at index; later Puts (value
	// updates, status transitions) only update the stored record.
	CommitmentPut(*Commitment) error
	CommitmentGet(id string) (*Commitment, bool, error)
	CommitmentExists(id string) (bool, error)

	// CommitmentsCreatedBetween returns ids with created_at in
	// [fromTS, toTS], ordered by created_at ascending with insertion
	// order as tiebreak.
	CommitmentsCreatedBetween(fromTS, toTS uint64) ([]string, error)
}
