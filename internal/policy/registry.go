package policy

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrNotRegistered indicates no policy is bound to a resource type.
	ErrNotRegistered = errors.New("policy: no policy registered")
	// ErrDuplicate indicates a resource type was bound twice.
	ErrDuplicate = errors.New("policy: duplicate registration")
	// ErrInvalid indicates an empty type or nil policy was registered.
	ErrInvalid = errors.New("policy: invalid registration")
)

// Builder collects registrations before the registry is frozen.
type Builder struct {
	policies map[ResourceType]Policy
	errs     []error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{policies: make(map[ResourceType]Policy)}
}

// Register binds pol to t. Problems are reported by Build.
func (b *Builder) Register(t ResourceType, pol Policy) *Builder {
	switch {
	case t == "" || pol == nil:
		b.errs = append(b.errs, fmt.Errorf("%w: type %q", ErrInvalid, t))
	case b.policies[t] != nil:
		b.errs = append(b.errs, fmt.Errorf("%w: type %q", ErrDuplicate, t))
	default:
		b.policies[t] = pol
	}
	return b
}

// Build freezes the registrations. Every type in required must be bound.
func (b *Builder) Build(required ...ResourceType) (*Registry, error) {
	errs := append([]error(nil), b.errs...)
	for _, t := range required {
		if b.policies[t] == nil {
			errs = append(errs, fmt.Errorf("%w: type %q", ErrNotRegistered, t))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	policies := make(map[ResourceType]Policy, len(b.policies))
	for t, p := range b.policies {
		policies[t] = p
	}
	return &Registry{policies: policies}, nil
}

// Registry maps resource types to policies. It is read-only once built and
// safe for concurrent use.
type Registry struct {
	policies map[ResourceType]Policy
}

// For returns the policy bound to t.
func (r *Registry) For(t ResourceType) (Policy, error) {
	if r != nil {
		if p, ok := r.policies[t]; ok {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: type %q", ErrNotRegistered, t)
}

// MustFor is For for startup wiring; it panics on a missing registration.
func (r *Registry) MustFor(t ResourceType) Policy {
	p, err := r.For(t)
	if err != nil {
		panic(err)
	}
	return p
}

// Types lists the registered resource types in sorted order.
func (r *Registry) Types() []ResourceType {
	if r == nil {
		return nil
	}
	out := make([]ResourceType, 0, len(r.policies))
	for t := range r.policies {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
