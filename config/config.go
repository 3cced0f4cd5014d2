// Package config loads the vault daemon's TOML configuration, the way
// the teacher's own config.Config is decoded with toml.DecodeFile and
// defaulted via createDefault.
package config

import (
	"math/big"
	"os"

	"github.com/BurntSushi/toml"

	"nhbchain/crypto"
)

// Config is the spec.md §6 "Configuration" block: the admin and core
// contract addresses, the global pause switch, and the optional
// attestation fee (asset, recipient, amount).
type Config struct {
	Admin          string `toml:"Admin"`
	CoreContract   string `toml:"CoreContract"`
	Paused         bool   `toml:"Paused"`
	FeeAsset       string `toml:"FeeAsset"`
	FeeRecipient   string `toml:"FeeRecipient"`
	AttestationFee string `toml:"AttestationFee"`
	DataDir        string `toml:"DataDir"`
	ListenAddress  string `toml:"ListenAddress"`
}

// Load reads path, creating a default file on first run the same way the
// teacher's config.Load does for a missing ValidatorKey file.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		Paused:         false,
		AttestationFee: "0",
		DataDir:        "./vault-data",
		ListenAddress:  ":8090",
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AdminAddress decodes Admin as a bech32 vault address. ok is false when
// the field is empty (admin not yet configured).
func (c *Config) AdminAddress() (addr crypto.Address, ok bool, err error) {
	return decodeOptionalAddress(c.Admin)
}

// CoreContractAddress decodes CoreContract the same way AdminAddress does.
func (c *Config) CoreContractAddress() (addr crypto.Address, ok bool, err error) {
	return decodeOptionalAddress(c.CoreContract)
}

// FeeAssetAddress decodes FeeAsset the same way AdminAddress does.
func (c *Config) FeeAssetAddress() (addr crypto.Address, ok bool, err error) {
	return decodeOptionalAddress(c.FeeAsset)
}

// FeeRecipientAddress decodes FeeRecipient the same way AdminAddress does.
func (c *Config) FeeRecipientAddress() (addr crypto.Address, ok bool, err error) {
	return decodeOptionalAddress(c.FeeRecipient)
}

func decodeOptionalAddress(s string) (crypto.Address, bool, error) {
	if s == "" {
		return crypto.Address{}, false, nil
	}
	addr, err := crypto.DecodeAddress(s)
	if err != nil {
		return crypto.Address{}, false, err
	}
	return addr, true, nil
}

// AttestationFeeAmount parses AttestationFee as a base-10 integer,
// defaulting to zero for an empty or unparseable field.
func (c *Config) AttestationFeeAmount() *big.Int {
	if c.AttestationFee == "" {
		return big.NewInt(0)
	}
	v, ok := new(big.Int).SetString(c.AttestationFee, 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}
