package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smallbiznis/orghub/internal/config"
	"github.com/smallbiznis/orghub/internal/domain"
	"github.com/smallbiznis/orghub/internal/password"
	"github.com/smallbiznis/orghub/internal/repository"
)

// EnsureAdmin creates a default admin account for dev/e2e if configured
// and missing. The admin gets the same default organisation every
// registration does.
func EnsureAdmin(lc fx.Lifecycle, cfg config.Config, users repository.UserRepository, node *snowflake.Node, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return ensureAdmin(ctx, cfg, users, node, logger)
		},
	})
}

func ensureAdmin(ctx context.Context, cfg config.Config, users repository.UserRepository, node *snowflake.Node, logger *zap.Logger) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || strings.TrimSpace(cfg.AdminPassword) == "" {
		return nil
	}

	if _, err := users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("bootstrap lookup user: %w", err)
	}

	hashed, err := password.Hash(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("bootstrap hash password: %w", err)
	}

	user := domain.User{
		ID:           node.Generate().Int64(),
		UserID:       uuid.NewString(),
		FirstName:    "Admin",
		LastName:     "User",
		Email:        email,
		PasswordHash: hashed,
	}

	org := domain.Organisation{
		ID:          node.Generate().Int64(),
		OrgID:       uuid.NewString(),
		Name:        user.FirstName + "'s Organization",
		Description: fmt.Sprintf("This organization was created by %s", user.FirstName),
	}

	created, _, err := users.CreateWithDefaultOrg(ctx, user, org)
	if err != nil {
		return fmt.Errorf("bootstrap create admin: %w", err)
	}

	if logger != nil {
		logger.Info("bootstrap admin user created",
			zap.String("email", created.Email),
			zap.String("user_id", created.UserID),
		)
	}
	return nil
}
