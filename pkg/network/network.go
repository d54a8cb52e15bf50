// Package network holds the static registry of supported networks.
package network

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ID identifies a supported network.
type ID string

const (
	Futurenet ID = "futurenet"
	Testnet   ID = "testnet"
	Mainnet   ID = "mainnet"
)

// DefaultID is used whenever a caller supplies no network or an unknown one.
const DefaultID = Futurenet

// Config is an immutable description of one network.
type Config struct {
	ID          ID     `yaml:"id"`
	DisplayName string `yaml:"display_name"`
	RPCURL      string `yaml:"rpc_url"`
	HorizonURL  string `yaml:"horizon_url"`
	ExplorerURL string `yaml:"explorer_url"`
	Passphrase  string `yaml:"passphrase"`
}

// Registry maps network ids to their configuration. It is populated once at
// process start and read-only afterwards.
type Registry struct {
	configs map[ID]Config
	def     ID
}

func builtin() map[ID]Config {
	return map[ID]Config{
		Futurenet: {
			ID:          Futurenet,
			DisplayName: "Futurenet",
			RPCURL:      "https://rpc-futurenet.stellar.org",
			HorizonURL:  "https://horizon-futurenet.stellar.org",
			ExplorerURL: "https://futurenet.stellarchain.io",
			Passphrase:  "Test SDF Future Network ; October 2022",
		},
		Testnet: {
			ID:          Testnet,
			DisplayName: "Testnet",
			RPCURL:      "https://rpc.testnet.stellar.org",
			HorizonURL:  "https://horizon-testnet.stellar.org",
			ExplorerURL: "https://testnet.stellarchain.io",
			Passphrase:  "Test SDF Network ; September 2015",
		},
		Mainnet: {
			ID:          Mainnet,
			DisplayName: "Mainnet",
			RPCURL:      "https://rpc.mainnet.stellar.org",
			HorizonURL:  "https://horizon.stellar.org",
			ExplorerURL: "https://stellarchain.io",
			Passphrase:  "Public Global Stellar Network ; September 2015",
		},
	}
}

// NewRegistry creates a registry with the built-in networks. If def is not a
// known network the package default is used.
func NewRegistry(def ID) *Registry {
	configs := builtin()
	if _, ok := configs[def]; !ok {
		def = DefaultID
	}
	return &Registry{configs: configs, def: def}
}

// LoadOverrides merges endpoint overrides from a YAML file into the registry.
// Only non-empty fields override the built-in values; unknown ids add new
// networks (local sandboxes).
func (r *Registry) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read network overrides: %w", err)
	}

	var overrides []Config
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("parse network overrides: %w", err)
	}

	for _, o := range overrides {
		if o.ID == "" {
			return fmt.Errorf("network override missing id")
		}
		base := r.configs[o.ID]
		base.ID = o.ID
		if o.DisplayName != "" {
			base.DisplayName = o.DisplayName
		}
		if o.RPCURL != "" {
			base.RPCURL = o.RPCURL
		}
		if o.HorizonURL != "" {
			base.HorizonURL = o.HorizonURL
		}
		if o.ExplorerURL != "" {
			base.ExplorerURL = o.ExplorerURL
		}
		if o.Passphrase != "" {
			base.Passphrase = o.Passphrase
		}
		r.configs[o.ID] = base
	}
	return nil
}

// Lookup returns the configuration for id and whether it was known.
// Unknown ids return the default network's configuration, matching the
// dashboard's historical fallback behavior.
func (r *Registry) Lookup(id ID) (Config, bool) {
	if cfg, ok := r.configs[id]; ok {
		return cfg, true
	}
	return r.configs[r.def], false
}

// Default returns the default network's configuration.
func (r *Registry) Default() Config {
	return r.configs[r.def]
}

// Passphrase returns the chain passphrase for id (default network's if unknown).
func (r *Registry) Passphrase(id ID) string {
	cfg, _ := r.Lookup(id)
	return cfg.Passphrase
}
