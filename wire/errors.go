// Package wire maps each engine's internal sentinel errors to the stable,
// wire-visible codes in native/common/errorcode.go. This is the boundary
// layer the teacher keeps separate from its RPC-facing types: engines never
// return a common.ErrorCode themselves (native/token, native/commitment and
// native/attestation depend on nativecommon, so the reverse mapping can't
// live there without an import cycle), so cmd/vaultd resolves a returned
// error into its code here, once, at the edge.
package wire

import (
	"errors"

	nativecommon "nhbchain/native/common"
	"nhbchain/native/attestation"
	"nhbchain/native/commitment"
	"nhbchain/native/token"
)

var sentinels = []struct {
	err  error
	code nativecommon.ErrorCode
}{
	{token.ErrNotInitialized, nativecommon.CodeNotInitialized},
	{token.ErrAlreadyInitialized, nativecommon.CodeAlreadyInitialized},
	{token.ErrTokenNotFound, nativecommon.CodeTokenNotFound},
	{token.ErrNotOwner, nativecommon.CodeNotOwner},
	{token.ErrAlreadySettled, nativecommon.CodeAlreadySettled},
	{token.ErrNotExpired, nativecommon.CodeNotExpired},
	{token.ErrInvalidDuration, nativecommon.CodeInvalidDuration},
	{token.ErrInvalidMaxLoss, nativecommon.CodeInvalidMaxLoss},
	{token.ErrInvalidCommitmentType, nativecommon.CodeInvalidCommitmentType},
	{token.ErrTransferToZero, nativecommon.CodeTransferToZero},
	{token.ErrInvalidCommitmentID, nativecommon.CodeInvalidCommitmentID},
	{token.ErrUnauthorized, nativecommon.CodeUnauthorized},
	{token.ErrNFTLocked, nativecommon.CodeNFTLocked},
	{token.ErrPaused, nativecommon.CodePaused},

	{commitment.ErrNotInitialized, nativecommon.CodeNotInitialized},
	{commitment.ErrAlreadyInitialized, nativecommon.CodeAlreadyInitialized},
	{commitment.ErrUnauthorized, nativecommon.CodeUnauthorized},
	{commitment.ErrCommitmentNotFound, nativecommon.CodeCommitmentNotFound},
	{commitment.ErrInvalidState, nativecommon.CodeInvalidState},
	{commitment.ErrInvalidDuration, nativecommon.CodeInvalidDuration},
	{commitment.ErrInvalidMaxLoss, nativecommon.CodeInvalidMaxLoss},
	{commitment.ErrInvalidCommitmentType, nativecommon.CodeInvalidCommitmentType},
	{commitment.ErrNotExpired, nativecommon.CodeNotExpired},
	{commitment.ErrAlreadySettled, nativecommon.CodeAlreadySettled},
	{commitment.ErrInvalidAmount, nativecommon.CodeInvalidAmount},
	{commitment.ErrAssetTransferFailed, nativecommon.CodeAssetTransferFailed},
	{commitment.ErrPaused, nativecommon.CodePaused},

	{attestation.ErrNotInitialized, nativecommon.CodeNotInitialized},
	{attestation.ErrAlreadyInitialized, nativecommon.CodeAlreadyInitialized},
	{attestation.ErrUnauthorized, nativecommon.CodeUnauthorized},
	{attestation.ErrCommitmentNotFound, nativecommon.CodeCommitmentNotFound},
	{attestation.ErrTypeNotRecognized, nativecommon.CodeInvalidState},
	{attestation.ErrInvalidAmount, nativecommon.CodeInvalidAmount},
	{attestation.ErrInvalidDrawdownPercent, nativecommon.CodeInvalidAmount},
	{attestation.ErrAssetTransferFailed, nativecommon.CodeAssetTransferFailed},
	{attestation.ErrPaused, nativecommon.CodePaused},
	{attestation.ErrRateLimited, nativecommon.CodeRateLimited},
}

// Resolve wraps err with its stable wire code, the way common.Coded does,
// looking the sentinel up by errors.Is so a wrapped error still resolves.
// An unrecognized error is returned unchanged.
func Resolve(err error) error {
	if err == nil {
		return nil
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return nativecommon.Coded(s.code, err)
		}
	}
	return err
}

// Code extracts the stable wire code from err if it (or something it
// wraps) was produced by Resolve, reporting ok=false otherwise.
func Code(err error) (nativecommon.ErrorCode, bool) {
	var coded *nativecommon.CodedError
	if errors.As(err, &coded) {
		return coded.Code, true
	}
	return 0, false
}
