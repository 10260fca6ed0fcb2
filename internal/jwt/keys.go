package jwt

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/go-jose/go-jose/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/smallbiznis/orghub/internal/domain"
	"github.com/smallbiznis/orghub/internal/repository"
)

// KeyManager ensures the service always has an active signing key.
type KeyManager struct {
	repo repository.KeyRepository
	node *snowflake.Node
}

// NewKeyManager creates a KeyManager.
func NewKeyManager(repo repository.KeyRepository, node *snowflake.Node) *KeyManager {
	return &KeyManager{repo: repo, node: node}
}

// EnsureSigningKey returns the active key or creates a new one if missing.
func (m *KeyManager) EnsureSigningKey(ctx context.Context) (domain.SigningKey, error) {
	key, err := m.repo.GetActiveKey(ctx)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.SigningKey{}, fmt.Errorf("ensure signing key: %w", err)
	}

	secret := make([]byte, 64)
	if _, randErr := rand.Read(secret); randErr != nil {
		return domain.SigningKey{}, fmt.Errorf("generate secret: %w", randErr)
	}

	key = domain.SigningKey{
		ID:        m.node.Generate().Int64(),
		KID:       uuid.NewString(),
		Secret:    secret,
		Algorithm: string(jose.HS256),
		IsActive:  true,
	}

	created, err := m.repo.CreateKey(ctx, key)
	if err != nil {
		// The partial unique index on is_active lets only one concurrent
		// insert through; losers adopt the winning key.
		if repository.IsUniqueViolation(err) {
			winner, getErr := m.repo.GetActiveKey(ctx)
			if getErr != nil {
				return domain.SigningKey{}, fmt.Errorf("ensure signing key: %w", getErr)
			}
			return winner, nil
		}
		return domain.SigningKey{}, fmt.Errorf("persist signing key: %w", err)
	}

	return created, nil
}

// ActiveKey retrieves an existing signing key without creating a new one.
func (m *KeyManager) ActiveKey(ctx context.Context) (domain.SigningKey, error) {
	key, err := m.repo.GetActiveKey(ctx)
	if err != nil {
		return domain.SigningKey{}, fmt.Errorf("active key: %w", err)
	}
	return key, nil
}
