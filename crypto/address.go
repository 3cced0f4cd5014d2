// Package crypto provides the address representation shared by every
// component of the vault: the token registry, the commitment ledger and the
// attestation engine all identify owners, verifiers and admins with the same
// 20-byte, bech32-encoded Address.
package crypto

import (
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
)

// AddressPrefix selects the human-readable prefix used when rendering an
// Address as bech32 text.
type AddressPrefix string

const (
	// VaultPrefix is used for ordinary owner/verifier/admin addresses.
	VaultPrefix AddressPrefix = "vlt"
	// AssetPrefix is used for addresses identifying an external asset
	// contract bound into a commitment's rules.
	AssetPrefix AddressPrefix = "vasset"
)

// Address is a 20-byte identifier, the unit every operation in this module
// uses for owners, verifiers, admins and asset contracts.
type Address struct {
	prefix AddressPrefix
	bytes  []byte
}

// ZeroAddress is the canonical zero-valued Address, used to detect missing or
// uninitialized address fields.
var ZeroAddress = Address{}

// NewAddress constructs an Address from exactly 20 raw bytes.
func NewAddress(prefix AddressPrefix, b []byte) (Address, error) {
	if len(b) != 20 {
		return Address{}, fmt.Errorf("crypto: address must be 20 bytes long, got %d", len(b))
	}
	cloned := append([]byte(nil), b...)
	return Address{prefix: prefix, bytes: cloned}, nil
}

// MustNewAddress constructs an Address and panics if the input is invalid.
// Callers should use this only for compile-time-known constants (tests,
// fixtures); runtime input must go through NewAddress.
func MustNewAddress(prefix AddressPrefix, b []byte) Address {
	addr, err := NewAddress(prefix, b)
	if err != nil {
		panic(err)
	}
	return addr
}

// IsZero reports whether the address has never been assigned 20 bytes.
func (a Address) IsZero() bool {
	return len(a.bytes) == 0
}

// Equal reports whether two addresses reference the same 20 bytes,
// regardless of prefix.
func (a Address) Equal(other Address) bool {
	if len(a.bytes) != len(other.bytes) {
		return false
	}
	for i := range a.bytes {
		if a.bytes[i] != other.bytes[i] {
			return false
		}
	}
	return true
}

// String renders the address as bech32 text.
func (a Address) String() string {
	if a.IsZero() {
		return ""
	}
	conv, err := bech32.ConvertBits(a.bytes, 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(string(a.prefix), conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

// Bytes returns a copy of the address's raw 20 bytes.
func (a Address) Bytes() []byte {
	return append([]byte(nil), a.bytes...)
}

// Prefix returns the human-readable prefix associated with the address.
func (a Address) Prefix() AddressPrefix {
	return a.prefix
}

// DecodeAddress parses a bech32-encoded address string.
func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("crypto: invalid bech32 string: %w", err)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("crypto: error converting bits: %w", err)
	}
	return NewAddress(AddressPrefix(prefix), conv)
}
