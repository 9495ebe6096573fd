// Package identity tells apart principals that may hold ownership from those that
// may not, such as contract accounts.
package identity

import (
	"sync"
	"trust-multisig/internal/model"

	"go.uber.org/zap"
)

// ContractRegistry marks principals as contracts. Contracts are not eligible as owners.
// Identifiers are compared in their normalized form.
type ContractRegistry struct {
	logger    *zap.Logger
	mu        sync.RWMutex
	contracts map[model.Address]struct{}
}

func NewContractRegistry(logger *zap.Logger, contracts ...model.Address) *ContractRegistry {
	r := &ContractRegistry{
		logger:    logger,
		contracts: make(map[model.Address]struct{}, len(contracts)),
	}
	for _, c := range contracts {
		r.Register(c)
	}
	return r
}

func (r *ContractRegistry) Register(contract model.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contracts[contract.Normalize()] = struct{}{}
	r.logger.Debug("contract registered", zap.String("contract", contract.String()))
}

func (r *ContractRegistry) IsContract(id model.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.contracts[id.Normalize()]
	return ok
}

// IsEligiblePrincipal rejects null identifiers and registered contracts.
func (r *ContractRegistry) IsEligiblePrincipal(id model.Address) bool {
	return !id.IsZero() && !r.IsContract(id)
}
