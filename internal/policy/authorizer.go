package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/odyssey-erp/odyssey-hr/internal/rbac"
)

// ErrTypeMismatch indicates a resource was checked under another type's tag.
var ErrTypeMismatch = errors.New("policy: resource type mismatch")

// Decision outcomes reported to a DecisionRecorder.
const (
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"
	OutcomeError   = "error"
)

// DecisionRecorder receives one observation per authorization check.
type DecisionRecorder interface {
	ObserveDecision(resource, action, outcome string)
}

// Authorizer resolves the policy for a resource type and evaluates it.
type Authorizer struct {
	registry *Registry
	recorder DecisionRecorder
	logger   *slog.Logger
}

// NewAuthorizer builds an Authorizer. recorder and logger may be nil.
func NewAuthorizer(registry *Registry, recorder DecisionRecorder, logger *slog.Logger) *Authorizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authorizer{registry: registry, recorder: recorder, logger: logger}
}

// Authorize decides action on a resource of type t. r may be nil for create
// and list. A denial is (false, nil); an error always means a wiring defect.
func (a *Authorizer) Authorize(ctx context.Context, p rbac.Principal, action Action, t ResourceType, r Resource) (bool, error) {
	pol, err := a.registry.For(t)
	if err != nil {
		a.logger.ErrorContext(ctx, "authorize: missing policy",
			slog.String("resource", string(t)),
			slog.String("action", string(action)),
			slog.Any("error", err))
		a.observe(t, action, OutcomeError)
		return false, err
	}
	if r != nil && r.ResourceType() != t {
		err := fmt.Errorf("%w: %q checked as %q", ErrTypeMismatch, r.ResourceType(), t)
		a.logger.ErrorContext(ctx, "authorize: resource mismatch", slog.Any("error", err))
		a.observe(t, action, OutcomeError)
		return false, err
	}
	allowed := Check(pol, action, p, r)
	if allowed {
		a.observe(t, action, OutcomeAllowed)
		return true, nil
	}
	id, _ := rbac.IdentityOf(p)
	a.logger.DebugContext(ctx, "authorize: denied",
		slog.Int64("user_id", int64(id)),
		slog.String("resource", string(t)),
		slog.String("action", string(action)))
	a.observe(t, action, OutcomeDenied)
	return false, nil
}

// AuthorizeType decides a type-level action such as create or list, where no
// instance exists yet. Instance actions are denied here.
func (a *Authorizer) AuthorizeType(ctx context.Context, p rbac.Principal, action Action, t ResourceType) (bool, error) {
	return a.Authorize(ctx, p, action, t, nil)
}

func (a *Authorizer) observe(t ResourceType, action Action, outcome string) {
	if a.recorder == nil {
		return
	}
	a.recorder.ObserveDecision(string(t), string(action), outcome)
}
