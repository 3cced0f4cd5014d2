package token

import "nhbchain/crypto"

// State is the narrow persistence surface the Registry needs. Production
// code binds this to state.Manager; tests bind it to an in-memory double,
// per SPEC_FULL.md §2.4 and §9's "re-architect as trait-shaped interfaces"
// instruction.
type State interface {
	Initialized() (bool, error)
	SetInitialized(bool) error
	Admin() (crypto.Address, bool, error)
	SetAdmin(crypto.Address) error
	CoreContract() (crypto.Address, bool, error)
	SetCoreContract(crypto.Address) error

	NextTokenID() (uint32, error)
	SetNextTokenID(uint32) error
	TotalSupply() (uint64, error)
	SetTotalSupply(uint64) error

	TokenPut(*Token) error
	TokenGet(id uint32) (*Token, bool, error)
	TokenExists(id uint32) (bool, error)
	AllTokenIDs() ([]uint32, error)

	OwnerAddToken(owner crypto.Address, id uint32) error
	OwnerRemoveToken(owner crypto.Address, id uint32) error
	OwnerTokens(owner crypto.Address) ([]uint32, error)
	BalanceOf(owner crypto.Address) (uint64, error)
}
