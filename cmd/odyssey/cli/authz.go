package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/odyssey-erp/odyssey-hr/internal/policy"
	"github.com/odyssey-erp/odyssey-hr/internal/rbac"
)

// Exit codes returned by the authz commands.
const (
	ExitAllowed = 0
	ExitError   = 1
	ExitDenied  = 10
)

// PrincipalLoader resolves the principal a check runs as.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, id rbac.UserID) (*rbac.User, error)
}

// AuthzCLI answers "may user X do Y on Z" against the live policy registry.
type AuthzCLI struct {
	loader PrincipalLoader
	authz  *policy.Authorizer
	types  []policy.ResourceType
}

// NewAuthzCLI builds the helper. registry must be the one the server uses.
func NewAuthzCLI(loader PrincipalLoader, registry *policy.Registry) (*AuthzCLI, error) {
	if loader == nil {
		return nil, errors.New("authz cli: principal loader required")
	}
	if registry == nil {
		return nil, errors.New("authz cli: policy registry required")
	}
	return &AuthzCLI{
		loader: loader,
		authz:  policy.NewAuthorizer(registry, nil, nil),
		types:  registry.Types(),
	}, nil
}

// AuthzCheckOptions defines the flags of the authz check command.
type AuthzCheckOptions struct {
	UserID     int64
	Action     string
	Resource   string
	OwnerID    int64
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// AuthzCheckResult is the JSON document printed by authz check.
type AuthzCheckResult struct {
	UserID   int64  `json:"user_id"`
	Action   string `json:"action"`
	Resource string `json:"resource"`
	OwnerID  int64  `json:"owner_id,omitempty"`
	Allowed  bool   `json:"allowed"`
}

// probe stands in for a stored record when only its owner matters.
type probe struct {
	t     policy.ResourceType
	owner rbac.UserID
}

func (p probe) ResourceType() policy.ResourceType { return p.t }

func (p probe) Owner() (rbac.UserID, bool) { return p.owner, p.owner != 0 }

// ParseCheckFlags reads authz check flags from args.
func ParseCheckFlags(args []string, stderr io.Writer) (AuthzCheckOptions, error) {
	var opts AuthzCheckOptions
	fs := pflag.NewFlagSet("authz check", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Int64Var(&opts.UserID, "user", 0, "user ID to evaluate as")
	fs.StringVar(&opts.Action, "action", "", "create, view, edit, delete or list")
	fs.StringVar(&opts.Resource, "resource", "", "resource type (payslip, profile)")
	fs.Int64Var(&opts.OwnerID, "owner", 0, "owner of the target record, 0 for none")
	fs.BoolVar(&opts.JSONOutput, "json", false, "print the result as JSON")
	if err := fs.Parse(args); err != nil {
		return AuthzCheckOptions{}, err
	}
	return opts, nil
}

// CheckCommand evaluates one decision and prints the outcome.
func (c *AuthzCLI) CheckCommand(ctx context.Context, opts AuthzCheckOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.UserID <= 0 {
		_, _ = fmt.Fprintln(opts.Stderr, "authz check: --user is required and must be positive")
		return ExitError
	}
	action, ok := policy.ParseAction(opts.Action)
	if !ok {
		_, _ = fmt.Fprintf(opts.Stderr, "authz check: unknown action %q\n", opts.Action)
		return ExitError
	}
	resourceType := policy.ResourceType(strings.ToLower(strings.TrimSpace(opts.Resource)))
	if !c.knows(resourceType) {
		_, _ = fmt.Fprintf(opts.Stderr, "authz check: unknown resource %q\n", opts.Resource)
		return ExitError
	}
	principal, err := c.loader.LoadPrincipal(ctx, rbac.UserID(opts.UserID))
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "authz check: load user %d: %v\n", opts.UserID, err)
		return ExitError
	}

	var allowed bool
	if action.NeedsResource() {
		target := probe{t: resourceType, owner: rbac.UserID(opts.OwnerID)}
		allowed, err = c.authz.Authorize(ctx, principal, action, resourceType, target)
	} else {
		allowed, err = c.authz.AuthorizeType(ctx, principal, action, resourceType)
	}
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "authz check: %v\n", err)
		return ExitError
	}

	result := AuthzCheckResult{
		UserID:   opts.UserID,
		Action:   string(action),
		Resource: string(resourceType),
		OwnerID:  opts.OwnerID,
		Allowed:  allowed,
	}
	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(result); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "authz check: encode json: %v\n", err)
			return ExitError
		}
	} else {
		renderCheckHuman(opts.Stdout, result)
	}
	if !allowed {
		return ExitDenied
	}
	return ExitAllowed
}

// PoliciesCommand prints the registered resource types.
func (c *AuthzCLI) PoliciesCommand(out io.Writer) int {
	if out == nil {
		out = os.Stdout
	}
	for _, t := range c.types {
		_, _ = fmt.Fprintln(out, t)
	}
	return ExitAllowed
}

func (c *AuthzCLI) knows(t policy.ResourceType) bool {
	for _, known := range c.types {
		if known == t {
			return true
		}
	}
	return false
}

func renderCheckHuman(out io.Writer, result AuthzCheckResult) {
	verdict := "DENIED"
	if result.Allowed {
		verdict = "ALLOWED"
	}
	target := result.Resource
	if result.OwnerID != 0 {
		target = fmt.Sprintf("%s owned by user %d", result.Resource, result.OwnerID)
	}
	_, _ = fmt.Fprintf(out, "user %d %s %s: %s\n", result.UserID, result.Action, target, verdict)
}
