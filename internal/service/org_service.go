package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/smallbiznis/orghub/internal/domain"
	"github.com/smallbiznis/orghub/internal/repository"
)

// OrgService encapsulates organisation and membership operations.
type OrgService struct {
	orgs      repository.OrgRepository
	users     repository.UserRepository
	snowflake *snowflake.Node
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewOrgService wires dependencies.
func NewOrgService(orgs repository.OrgRepository, users repository.UserRepository, node *snowflake.Node, logger *zap.Logger) *OrgService {
	return &OrgService{
		orgs:      orgs,
		users:     users,
		snowflake: node,
		logger:    logger,
		tracer:    otel.Tracer("github.com/smallbiznis/orghub/internal/service"),
	}
}

// ListForUser returns every organisation the caller belongs to.
func (s *OrgService) ListForUser(ctx context.Context, userID string) (OrgListData, error) {
	ctx, span := s.startSpan(ctx, "OrgService.ListForUser")
	defer span.End()

	user, err := s.users.GetByPublicID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OrgListData{}, newAPIError("Not found", "User not found", http.StatusNotFound)
		}
		span.RecordError(err)
		return OrgListData{}, fmt.Errorf("load user: %w", err)
	}

	orgs, err := s.orgs.ListForUser(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		return OrgListData{}, fmt.Errorf("list organisations: %w", err)
	}

	views := make([]OrgView, 0, len(orgs))
	for _, org := range orgs {
		views = append(views, newOrgView(org))
	}
	return OrgListData{Organisations: views}, nil
}

// Create adds a new organisation. The caller is not made a member; that
// is a separate explicit step via AddMember.
func (s *OrgService) Create(ctx context.Context, name, description string) (OrgView, error) {
	ctx, span := s.startSpan(ctx, "OrgService.Create")
	defer span.End()

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return OrgView{}, FieldErrors{{Field: "name", Message: "Name must not be null"}}
	}

	if _, err := s.orgs.GetByName(ctx, trimmed); err == nil {
		return OrgView{}, newAPIError("Bad request", "Client error", http.StatusBadRequest)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		span.RecordError(err)
		return OrgView{}, fmt.Errorf("check organisation name: %w", err)
	}

	org := domain.Organisation{
		ID:          s.snowflake.Generate().Int64(),
		OrgID:       uuid.NewString(),
		Name:        trimmed,
		Description: strings.TrimSpace(description),
	}

	created, err := s.orgs.Create(ctx, org)
	if err != nil {
		span.RecordError(err)
		if repository.IsUniqueViolation(err) {
			return OrgView{}, newAPIError("Bad request", "Client error", http.StatusBadRequest)
		}
		return OrgView{}, fmt.Errorf("create organisation: %w", err)
	}

	s.log().Info("organisation created", zap.String("org_id", created.OrgID), zap.String("name", created.Name))

	return newOrgView(created), nil
}

// Get returns one organisation by public identifier. Visibility is not
// restricted to members.
func (s *OrgService) Get(ctx context.Context, orgID string) (OrgView, error) {
	ctx, span := s.startSpan(ctx, "OrgService.Get")
	defer span.End()

	org, err := s.orgs.GetByPublicID(ctx, orgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OrgView{}, newAPIError("Not found", "Organisation not found", http.StatusNotFound)
		}
		span.RecordError(err)
		return OrgView{}, fmt.Errorf("load organisation: %w", err)
	}

	return newOrgView(org), nil
}

// AddMember links the token's user to the organisation. Re-adding an
// existing member is a no-op success; the composite key keeps the edge
// unique either way.
func (s *OrgService) AddMember(ctx context.Context, orgID, userID string) error {
	ctx, span := s.startSpan(ctx, "OrgService.AddMember")
	defer span.End()

	org, err := s.orgs.GetByPublicID(ctx, orgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return newAPIError("Not found", "Organisation not found", http.StatusNotFound)
		}
		span.RecordError(err)
		return fmt.Errorf("load organisation: %w", err)
	}

	user, err := s.users.GetByPublicID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return newAPIError("Not found", "User not found", http.StatusNotFound)
		}
		span.RecordError(err)
		return fmt.Errorf("load user: %w", err)
	}

	if err := s.orgs.AddMember(ctx, user.ID, org.ID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("add member: %w", err)
	}

	s.log().Info("user added to organisation",
		zap.String("user_id", user.UserID),
		zap.String("org_id", org.OrgID),
	)

	return nil
}

func (s *OrgService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s == nil || s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

func (s *OrgService) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}
