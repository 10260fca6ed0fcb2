package jwt_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/smallbiznis/orghub/internal/domain"
	customjwt "github.com/smallbiznis/orghub/internal/jwt"
)

func TestGeneratorRoundTrip(t *testing.T) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	manager := customjwt.NewKeyManager(&fakeKeyRepo{}, node)
	generator := customjwt.NewGenerator(manager, "orghub", time.Hour)

	user := domain.User{
		ID:        99,
		UserID:    "2f0c9f9e-5d0a-4a7a-bd3e-1f6a0f4a9b11",
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
	}

	token, err := generator.GenerateAccessToken(context.Background(), user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, custom, err := generator.ValidateAccessToken(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, user.UserID, claims.Subject)
	require.Equal(t, "jane@example.com", custom.Email)
	require.Equal(t, "Jane Doe", custom.Name)
}

func TestValidateRejectsForeignIssuer(t *testing.T) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	repo := &fakeKeyRepo{}
	generator := customjwt.NewGenerator(customjwt.NewKeyManager(repo, node), "orghub", time.Hour)
	token, err := generator.GenerateAccessToken(context.Background(), domain.User{UserID: "u-1"})
	require.NoError(t, err)

	other := customjwt.NewGenerator(customjwt.NewKeyManager(repo, node), "someone-else", time.Hour)
	_, _, err = other.ValidateAccessToken(context.Background(), token)
	require.Error(t, err)
}

func TestEnsureSigningKeyAdoptsConcurrentWinner(t *testing.T) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	winner := domain.SigningKey{
		ID:        node.Generate().Int64(),
		KID:       "2b6f8c61-0a3d-4f2e-9c1b-7e5d4a3f2b10",
		Secret:    make([]byte, 64),
		Algorithm: "HS256",
		IsActive:  true,
	}
	repo := &racingKeyRepo{winner: winner}
	manager := customjwt.NewKeyManager(repo, node)

	key, err := manager.EnsureSigningKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, winner.KID, key.KID)
	require.Equal(t, 1, repo.createCalls)
}

type fakeKeyRepo struct {
	key domain.SigningKey
}

func (f *fakeKeyRepo) GetActiveKey(ctx context.Context) (domain.SigningKey, error) {
	if f.key.ID == 0 {
		return domain.SigningKey{}, pgx.ErrNoRows
	}
	return f.key, nil
}

func (f *fakeKeyRepo) CreateKey(ctx context.Context, key domain.SigningKey) (domain.SigningKey, error) {
	f.key = key
	return key, nil
}

// racingKeyRepo simulates another instance inserting the active key between
// the initial lookup and our insert.
type racingKeyRepo struct {
	winner      domain.SigningKey
	lookups     int
	createCalls int
}

func (r *racingKeyRepo) GetActiveKey(ctx context.Context) (domain.SigningKey, error) {
	r.lookups++
	if r.lookups == 1 {
		return domain.SigningKey{}, pgx.ErrNoRows
	}
	return r.winner, nil
}

func (r *racingKeyRepo) CreateKey(ctx context.Context, key domain.SigningKey) (domain.SigningKey, error) {
	r.createCalls++
	return domain.SigningKey{}, &pgconn.PgError{Code: "23505", ConstraintName: "signing_keys_active_idx"}
}
