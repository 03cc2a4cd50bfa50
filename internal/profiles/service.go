package profiles

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-hr/internal/rbac"
	"github.com/odyssey-erp/odyssey-hr/internal/shared"
)

// RepositoryPort defines data access methods for profiles.
type RepositoryPort interface {
	GetProfile(ctx context.Context, id uuid.UUID) (Profile, error)
	ListProfiles(ctx context.Context, filters ListFilters) ([]Profile, int, error)
	CreateProfile(ctx context.Context, p Profile) error
	UpdateProfile(ctx context.Context, p Profile) error
	DeleteProfile(ctx context.Context, id uuid.UUID) error
}

// Service handles profile business logic.
type Service struct {
	repo     RepositoryPort
	audit    shared.AuditRecorder
	validate *validator.Validate
	logger   *slog.Logger
	clock    func() time.Time
}

// NewService builds Service instance. audit may be nil.
func NewService(repo RepositoryPort, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		audit:    audit,
		validate: validator.New(),
		logger:   logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// GetProfile returns a single profile.
func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (Profile, error) {
	return s.repo.GetProfile(ctx, id)
}

// ListProfiles returns a page of profiles.
func (s *Service) ListProfiles(ctx context.Context, filters ListFilters) ([]Profile, shared.Pagination, error) {
	paging := shared.NewPagination(filters.Page, filters.Limit, 0)
	filters.Page, filters.Limit = paging.Page, paging.PerPage
	filters.Department = strings.TrimSpace(filters.Department)
	rows, total, err := s.repo.ListProfiles(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return rows, shared.NewPagination(filters.Page, filters.Limit, total), nil
}

// CreateProfile validates and stores a new profile.
func (s *Service) CreateProfile(ctx context.Context, req CreateProfileRequest, actor rbac.UserID) (Profile, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Department = strings.TrimSpace(req.Department)
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validate.Struct(req); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	now := s.clock()
	p := Profile{
		ID:         uuid.New(),
		OwnerID:    rbac.UserID(req.OwnerID),
		FullName:   req.FullName,
		Email:      req.Email,
		Department: req.Department,
		Title:      req.Title,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateProfile(ctx, p); err != nil {
		return Profile{}, err
	}
	s.record(ctx, actor, "CREATE", p.ID)
	return p, nil
}

// UpdateProfile applies the non-nil fields of req to an already-loaded profile.
func (s *Service) UpdateProfile(ctx context.Context, current Profile, req UpdateProfileRequest, actor rbac.UserID) (Profile, error) {
	if err := s.validate.Struct(req); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	updated := current
	if req.FullName != nil {
		updated.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Email != nil {
		updated.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Department != nil {
		updated.Department = strings.TrimSpace(*req.Department)
	}
	if req.Title != nil {
		updated.Title = strings.TrimSpace(*req.Title)
	}
	if updated.FullName == "" {
		return Profile{}, fmt.Errorf("%w: full name required", ErrValidation)
	}
	updated.UpdatedAt = s.clock()
	if err := s.repo.UpdateProfile(ctx, updated); err != nil {
		return Profile{}, err
	}
	s.record(ctx, actor, "UPDATE", updated.ID)
	return updated, nil
}

// DeleteProfile removes a profile.
func (s *Service) DeleteProfile(ctx context.Context, id uuid.UUID, actor rbac.UserID) error {
	if err := s.repo.DeleteProfile(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actor, "DELETE", id)
	return nil
}

func (s *Service) record(ctx context.Context, actor rbac.UserID, action string, id uuid.UUID) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  int64(actor),
		Action:   action,
		Entity:   "profiles",
		EntityID: id.String(),
		At:       s.clock(),
	})
	if err != nil {
		s.logger.Warn("profiles audit", slog.String("action", action), slog.String("profile_id", id.String()), slog.Any("error", err))
	}
}
