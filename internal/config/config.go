// Package config loads this client's YAML configuration file, following
// internal/appinit's LoadServerInfo idiom: read the whole file, then
// gopkg.in/yaml.v2 into a plain Go struct.
package config

import (
	"encoding/hex"
	"io/ioutil"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// KeyServerConfig is one entry of the configured key server set.
type KeyServerConfig struct {
	ObjectID string `yaml:"objectId"`
}

// LedgerConfig selects and configures the Fabric channel this client
// resolves key server objects against.
type LedgerConfig struct {
	ChannelID   string `yaml:"channelId"`
	ChaincodeID string `yaml:"chaincodeId"`
	OrgName     string `yaml:"orgName"`
	UserID      string `yaml:"userId"`
}

// RegistryDBConfig configures the optional local cache of resolved key
// server descriptors.
type RegistryDBConfig struct {
	DSN string `yaml:"dsn"`
}

// DebugServerConfig configures the optional read-only diagnostics HTTP
// server.
type DebugServerConfig struct {
	Port int `yaml:"port"`
}

// ClientConfig is the Go struct for contents in seal-client.yaml.
type ClientConfig struct {
	Ledger           LedgerConfig       `yaml:"ledger"`
	KeyServers       []KeyServerConfig  `yaml:"keyServers"`
	Threshold        int                `yaml:"threshold"`
	VerifyKeyServers bool               `yaml:"verifyKeyServers"`
	TimeoutMs        uint32             `yaml:"timeoutMs"`
	RegistryDB       *RegistryDBConfig  `yaml:"registryDb"`
	DebugServer      *DebugServerConfig `yaml:"debugServer"`
}

// Load reads and parses a client config file.
func Load(configFilePath string) (*ClientConfig, error) {
	yamlBytes, err := ioutil.ReadFile(configFilePath)
	if err != nil {
		return nil, errors.Wrap(err, "config: reading client config file")
	}
	var cfg ClientConfig
	if err := yaml.Unmarshal(yamlBytes, &cfg); err != nil {
		return nil, errors.Wrap(err, "config: parsing client config YAML")
	}
	return &cfg, nil
}

// ServerObjectIDs decodes every configured key server's hex object ID.
func (c *ClientConfig) ServerObjectIDs() ([][32]byte, error) {
	out := make([][32]byte, len(c.KeyServers))
	for i, ks := range c.KeyServers {
		b, err := hex.DecodeString(ks.ObjectID)
		if err != nil || len(b) != 32 {
			return nil, errors.Errorf("config: key server %d has an invalid object id", i)
		}
		copy(out[i][:], b)
	}
	return out, nil
}
