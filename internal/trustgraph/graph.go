// Package trustgraph keeps the set of owners and who vouches for whom.
//
// The graph stores supporter sets and maintains each owner's supporter count
// incrementally, so deriving a trust value never walks the graph. A Graph is not
// safe for concurrent use; callers serialize access.
package trustgraph

import (
	"fmt"
	"trust-multisig/internal/model"
)

type owner struct {
	id         model.Address
	supporters map[model.Address]struct{}
	count      int

	// supporters in the order the support was given
	order []model.Address
}

type Graph struct {
	owners map[model.Address]*owner
	order  []model.Address
}

func New() *Graph {
	return &Graph{
		owners: make(map[model.Address]*owner),
	}
}

// AddOwner registers id with the given initial supporters. Duplicate supporters are
// dropped. No trust check happens here; trust is derived lazily from the count.
func (g *Graph) AddOwner(id model.Address, supporters []model.Address) error {
	return g.insert(id, supporters, true)
}

// RestoreOwner registers a previously saved owner. Unlike AddOwner it accepts an owner
// whose supporters have all withdrawn.
func (g *Graph) RestoreOwner(id model.Address, supporters []model.Address) error {
	return g.insert(id, supporters, false)
}

func (g *Graph) insert(id model.Address, supporters []model.Address, needSupport bool) error {
	if id.IsZero() {
		return fmt.Errorf("owner %q: %w", id, model.ErrInvalidPrincipal)
	}
	if _, exists := g.owners[id]; exists {
		return fmt.Errorf("owner %s: %w", id, model.ErrAlreadyOwner)
	}

	o := &owner{
		id:         id,
		supporters: make(map[model.Address]struct{}, len(supporters)),
	}
	for _, s := range supporters {
		if s.IsZero() {
			return fmt.Errorf("supporter %q of %s: %w", s, id, model.ErrInvalidPrincipal)
		}
		if _, dup := o.supporters[s]; dup {
			continue
		}
		o.supporters[s] = struct{}{}
		o.order = append(o.order, s)
		o.count++
	}
	if needSupport && o.count == 0 {
		return fmt.Errorf("owner %s: %w", id, model.ErrNoSupporters)
	}

	g.owners[id] = o
	g.order = append(g.order, id)
	return nil
}

// AddSupport records that supporter vouches for the owner and returns the new count.
func (g *Graph) AddSupport(ownerID, supporter model.Address) (int, error) {
	o, err := g.get(ownerID)
	if err != nil {
		return 0, err
	}
	if _, exists := o.supporters[supporter]; exists {
		return o.count, fmt.Errorf("%s supporting %s: %w", supporter, ownerID, model.ErrAlreadySupporting)
	}

	o.supporters[supporter] = struct{}{}
	o.order = append(o.order, supporter)
	o.count++
	return o.count, nil
}

// RemoveSupport withdraws the supporter's vouch and returns the new count.
func (g *Graph) RemoveSupport(ownerID, supporter model.Address) (int, error) {
	o, err := g.get(ownerID)
	if err != nil {
		return 0, err
	}
	if _, exists := o.supporters[supporter]; !exists {
		return o.count, fmt.Errorf("%s for %s: %w", supporter, ownerID, model.ErrNotSupporter)
	}

	delete(o.supporters, supporter)
	for i, s := range o.order {
		if s == supporter {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
	o.count--
	return o.count, nil
}

// ResetSupporters replaces the supporter list of an existing owner. It is used to
// undo a support change that must not become visible.
func (g *Graph) ResetSupporters(ownerID model.Address, supporters []model.Address) error {
	o, err := g.get(ownerID)
	if err != nil {
		return err
	}

	o.supporters = make(map[model.Address]struct{}, len(supporters))
	o.order = o.order[:0]
	o.count = 0
	for _, s := range supporters {
		if _, dup := o.supporters[s]; dup {
			continue
		}
		o.supporters[s] = struct{}{}
		o.order = append(o.order, s)
		o.count++
	}
	return nil
}

func (g *Graph) SupporterCount(ownerID model.Address) (int, error) {
	o, err := g.get(ownerID)
	if err != nil {
		return 0, err
	}
	return o.count, nil
}

// Supporters returns a copy of the owner's supporters in the order support was given.
func (g *Graph) Supporters(ownerID model.Address) ([]model.Address, error) {
	o, err := g.get(ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Address, len(o.order))
	copy(out, o.order)
	return out, nil
}

func (g *Graph) IsSupporting(ownerID, supporter model.Address) bool {
	o, ok := g.owners[ownerID]
	if !ok {
		return false
	}
	_, ok = o.supporters[supporter]
	return ok
}

func (g *Graph) IsOwner(id model.Address) bool {
	_, ok := g.owners[id]
	return ok
}

// Owners lists owner identifiers in registration order.
func (g *Graph) Owners() []model.Address {
	out := make([]model.Address, len(g.order))
	copy(out, g.order)
	return out
}

func (g *Graph) Len() int {
	return len(g.order)
}

func (g *Graph) get(id model.Address) (*owner, error) {
	o, ok := g.owners[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, model.ErrOwnerNotFound)
	}
	return o, nil
}
