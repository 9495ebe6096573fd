package config

import (
	"os"
	"path/filepath"
	"testing"
	"trust-multisig/internal/model"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestParseGenesis(t *testing.T) {
	data := []byte(`
owners: [alice, bob, carol]
quorum: 2
revocationRule: half-plus-one
autoExecute: true
contracts: [vault]
`)
	g, err := ParseGenesis(data)
	require.NoError(t, err)
	assert.Equal(t, model.Addresses("alice", "bob", "carol"), g.OwnerAddresses())
	assert.Equal(t, 2, g.Quorum)
	assert.Equal(t, "half-plus-one", g.RevocationRule)
	assert.True(t, g.AutoExecute)
	assert.Equal(t, model.Addresses("vault"), g.ContractAddresses())
}

func TestGenesisValidateCollectsAllProblems(t *testing.T) {
	g := Genesis{
		Owners:         []string{"alice", "alice"},
		Quorum:         1,
		RevocationRule: "most",
		Contracts:      []string{"alice"},
	}

	err := g.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 5)
	assert.ErrorIs(t, err, model.ErrInvalidQuorum)
}

func TestLoadGenesisFromEnvironment(t *testing.T) {
	viper.Set("GENESIS_FILE", "")
	viper.Set("OWNERS", "alice, bob,carol,")
	viper.Set("QUORUM", 3)
	defer func() {
		viper.Set("OWNERS", "")
		viper.Set("QUORUM", 0)
	}()

	g, err := LoadGenesis()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, g.Owners)
	assert.Equal(t, 3, g.Quorum)
	assert.Equal(t, "half", g.RevocationRule)
}

func TestLoadGenesisFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte("owners: [a, b, c, d]\nquorum: 3\n"), 0o600))

	viper.Set("GENESIS_FILE", path)
	defer viper.Set("GENESIS_FILE", "")

	g, err := LoadGenesis()
	require.NoError(t, err)
	assert.Len(t, g.Owners, 4)
	assert.Equal(t, "half", g.RevocationRule)
}
