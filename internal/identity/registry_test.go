package identity_test

import (
	"testing"
	"trust-multisig/internal/identity"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestContractRegistry(t *testing.T) {
	r := identity.NewContractRegistry(zap.NewNop(), "0xAbC0000000000000000000000000000000000001")

	assert.True(t, r.IsContract("0xabc0000000000000000000000000000000000001"))
	assert.False(t, r.IsEligiblePrincipal("0xABC0000000000000000000000000000000000001"))
	assert.True(t, r.IsEligiblePrincipal("0x1230000000000000000000000000000000000002"))
	assert.False(t, r.IsEligiblePrincipal(""))
	assert.False(t, r.IsEligiblePrincipal("0x0000000000000000000000000000000000000000"))

	r.Register(" vault")
	assert.False(t, r.IsEligiblePrincipal("vault"))
	assert.True(t, r.IsEligiblePrincipal("VAULT"), "only hex addresses ignore case")
}
