package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/smallbiznis/orghub/internal/domain"
	"github.com/smallbiznis/orghub/internal/jwt"
	pw "github.com/smallbiznis/orghub/internal/password"
	"github.com/smallbiznis/orghub/internal/repository"
)

// AuthService encapsulates registration, login and token validation.
type AuthService struct {
	users     repository.UserRepository
	snowflake *snowflake.Node
	jwt       *jwt.Generator
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewAuthService wires dependencies.
func NewAuthService(users repository.UserRepository, node *snowflake.Node, generator *jwt.Generator, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:     users,
		snowflake: node,
		jwt:       generator,
		logger:    logger,
		tracer:    otel.Tracer("github.com/smallbiznis/orghub/internal/service"),
	}
}

// RegisterInput is the decoded registration request.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
}

// Register creates the user, their default organisation and the linking
// membership as one transaction, then issues an access token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (RegisterData, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Register")
	defer span.End()

	if errs := validateRegistration(input); len(errs) > 0 {
		return RegisterData{}, errs
	}

	normalized := normalizeEmail(input.Email)
	if _, err := s.users.GetByEmail(ctx, normalized); err == nil {
		return RegisterData{}, newAPIError("Bad request", "Registration unsuccessful", http.StatusBadRequest)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		span.RecordError(err)
		return RegisterData{}, fmt.Errorf("check existing user: %w", err)
	}

	hashed, err := pw.Hash(input.Password)
	if err != nil {
		span.RecordError(err)
		return RegisterData{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           s.snowflake.Generate().Int64(),
		UserID:       uuid.NewString(),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        normalized,
		PasswordHash: hashed,
		Phone:        strings.TrimSpace(input.Phone),
	}

	org := domain.Organisation{
		ID:          s.snowflake.Generate().Int64(),
		OrgID:       uuid.NewString(),
		Name:        user.FirstName + "'s Organization",
		Description: fmt.Sprintf("This organization was created by %s", user.FirstName),
	}

	created, _, err := s.users.CreateWithDefaultOrg(ctx, user, org)
	if err != nil {
		span.RecordError(err)
		// Another registration with the same email may win the race at
		// commit time; report it the same as the pre-insert check.
		if repository.IsUniqueViolation(err) {
			return RegisterData{}, newAPIError("Bad request", "Registration unsuccessful", http.StatusBadRequest)
		}
		return RegisterData{}, fmt.Errorf("register user: %w", err)
	}

	token, err := s.jwt.GenerateAccessToken(ctx, created)
	if err != nil {
		span.RecordError(err)
		return RegisterData{}, fmt.Errorf("generate access token: %w", err)
	}

	s.log().Info("user registered",
		zap.String("user_id", created.UserID),
		zap.String("org_id", org.OrgID),
	)

	return RegisterData{AccessToken: token, User: newUserView(created)}, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password fail identically so callers cannot enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginData, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		span.RecordError(err)
		return LoginData{}, newAPIError("Bad request", "Authentication failed", http.StatusUnauthorized)
	}

	valid, err := pw.Verify(password, user.PasswordHash)
	if err != nil || !valid {
		return LoginData{}, newAPIError("Bad request", "Authentication failed", http.StatusUnauthorized)
	}

	token, err := s.jwt.GenerateAccessToken(ctx, user)
	if err != nil {
		span.RecordError(err)
		return LoginData{}, fmt.Errorf("generate access token: %w", err)
	}

	s.log().Info("user logged in", zap.String("user_id", user.UserID))

	return LoginData{AccessToken: token, User: newUserView(user)}, nil
}

// GetUser returns the public projection for the given public identifier.
func (s *AuthService) GetUser(ctx context.Context, userID string) (UserView, error) {
	ctx, span := s.startSpan(ctx, "AuthService.GetUser")
	defer span.End()

	user, err := s.users.GetByPublicID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserView{}, newAPIError("Not found", "User not found", http.StatusNotFound)
		}
		span.RecordError(err)
		return UserView{}, fmt.Errorf("load user: %w", err)
	}

	return newUserView(user), nil
}

// ValidateToken checks the bearer token and returns its claims.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*gojwt.Claims, *jwt.AccessTokenClaims, error) {
	return s.jwt.ValidateAccessToken(ctx, token)
}

func validateRegistration(input RegisterInput) FieldErrors {
	var errs FieldErrors

	if strings.TrimSpace(input.FirstName) == "" {
		errs = append(errs, FieldError{Field: "firstName", Message: "First Name must not be null"})
	}
	if strings.TrimSpace(input.LastName) == "" {
		errs = append(errs, FieldError{Field: "lastName", Message: "Last Name must not be null"})
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "Email field must not be null"})
	} else if !strings.Contains(email, "@") {
		errs = append(errs, FieldError{Field: "email", Message: "Invalid email"})
	}
	if input.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "Password field cannot be null"})
	}
	if strings.TrimSpace(input.Phone) == "" {
		errs = append(errs, FieldError{Field: "phone", Message: "Phone must not be null"})
	}

	return errs
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func (s *AuthService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s == nil || s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

func (s *AuthService) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}
