package token

import "errors"

var (
	ErrNotInitialized     = errors.New("token: not initialized")
	ErrAlreadyInitialized = errors.New("token: already initialized")
	ErrTokenNotFound      = errors.New("token: not found")
	ErrNotOwner           = errors.New("token: caller is not the current owner")
	ErrAlreadySettled     = errors.New("token: already settled")
	ErrNotExpired         = errors.New("token: not yet expired")
	ErrInvalidDuration     = errors.New("token: invalid duration")
	ErrInvalidMaxLoss      = errors.New("token: invalid max loss percent")
	ErrInvalidCommitmentID = errors.New("token: invalid commitment id")
	ErrInvalidCommitmentType = errors.New("token: invalid commitment type")
	ErrTransferToZero      = errors.New("token: transfer to zero address or self")
	ErrUnauthorized        = errors.New("token: unauthorized")
	ErrPaused              = errors.New("token: registry paused")
	ErrNFTLocked           = errors.New("token: locked while commitment is active")
)
