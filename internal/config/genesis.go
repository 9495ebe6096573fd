package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"trust-multisig/internal/model"
	"trust-multisig/internal/quorum"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Genesis describes the engine an empty store starts with.
type Genesis struct {
	Owners         []string `yaml:"owners"`
	Quorum         int      `yaml:"quorum"`
	RevocationRule string   `yaml:"revocationRule"`
	AutoExecute    bool     `yaml:"autoExecute"`
	Contracts      []string `yaml:"contracts"`
}

// Validate reports every problem at once.
func (g Genesis) Validate() error {
	var err error

	if len(g.Owners) < quorum.MinTrustedOwners {
		err = multierr.Append(err, fmt.Errorf("%d owners, need at least %d", len(g.Owners), quorum.MinTrustedOwners))
	}
	seen := make(map[string]bool, len(g.Owners))
	for _, owner := range g.Owners {
		if model.Address(owner).IsZero() {
			err = multierr.Append(err, fmt.Errorf("owner %q is a null address", owner))
		}
		if seen[owner] {
			err = multierr.Append(err, fmt.Errorf("owner %s is listed twice", owner))
		}
		seen[owner] = true
	}
	if g.Quorum < quorum.MinQuorum {
		err = multierr.Append(err, fmt.Errorf("quorum %d is below %d", g.Quorum, quorum.MinQuorum))
	}
	if g.Quorum > len(g.Owners) {
		err = multierr.Append(err, fmt.Errorf("quorum %d exceeds %d owners", g.Quorum, len(g.Owners)))
	}
	if _, ruleErr := quorum.ParseRevocationRule(g.RevocationRule); ruleErr != nil {
		err = multierr.Append(err, ruleErr)
	}
	for _, contract := range g.Contracts {
		if seen[contract] {
			err = multierr.Append(err, fmt.Errorf("owner %s is registered as a contract", contract))
		}
	}

	return err
}

func (g Genesis) OwnerAddresses() []model.Address {
	return model.Addresses(g.Owners...)
}

func (g Genesis) ContractAddresses() []model.Address {
	return model.Addresses(g.Contracts...)
}

// ParseGenesis decodes and validates a YAML genesis document.
func ParseGenesis(data []byte) (Genesis, error) {
	var g Genesis
	if err := yaml.Unmarshal(data, &g); err != nil {
		return Genesis{}, errors.New("failed to parse the genesis: " + err.Error())
	}
	if g.RevocationRule == "" {
		g.RevocationRule = viper.GetString("REVOCATION_RULE")
	}
	if err := g.Validate(); err != nil {
		return Genesis{}, err
	}
	return g, nil
}

// LoadGenesis reads the genesis from GetGenesisFile. Without a file the owners come
// from the comma separated OWNERS variable and the quorum from QUORUM.
func LoadGenesis() (Genesis, error) {
	if path := GetGenesisFile(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Genesis{}, err
		}
		return ParseGenesis(data)
	}

	g := Genesis{
		Owners:         splitList(viper.GetString("OWNERS")),
		Quorum:         viper.GetInt("QUORUM"),
		RevocationRule: viper.GetString("REVOCATION_RULE"),
		AutoExecute:    viper.GetBool("AUTO_EXECUTE"),
		Contracts:      splitList(viper.GetString("CONTRACTS")),
	}
	if err := g.Validate(); err != nil {
		return Genesis{}, err
	}
	return g, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
