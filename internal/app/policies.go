package app

import (
	"sync"

	"github.com/odyssey-erp/odyssey-hr/internal/payroll"
	"github.com/odyssey-erp/odyssey-hr/internal/policy"
	"github.com/odyssey-erp/odyssey-hr/internal/profiles"
)

var (
	policiesOnce sync.Once
	policies     *policy.Registry
	policiesErr  error
)

// GovernedResources lists the resource types that must have a policy.
func GovernedResources() []policy.ResourceType {
	return []policy.ResourceType{
		policy.ResourcePayslip,
		policy.ResourceProfile,
	}
}

// NewPolicyRegistry binds every governed resource type to its policy.
func NewPolicyRegistry() (*policy.Registry, error) {
	return policy.NewBuilder().
		Register(policy.ResourcePayslip, payroll.Policy{}).
		Register(policy.ResourceProfile, profiles.Policy{}).
		Build(GovernedResources()...)
}

// Policies returns the process-wide registry. It is built once, on first call,
// and never modified afterwards.
func Policies() (*policy.Registry, error) {
	policiesOnce.Do(func() {
		policies, policiesErr = NewPolicyRegistry()
	})
	return policies, policiesErr
}
