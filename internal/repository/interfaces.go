package repository

import (
	"context"

	"github.com/smallbiznis/orghub/internal/domain"
)

// UserRepository exposes persistence for registered users.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByPublicID(ctx context.Context, userID string) (domain.User, error)
	// CreateWithDefaultOrg inserts the user, their default organisation
	// and the membership edge as one transaction.
	CreateWithDefaultOrg(ctx context.Context, user domain.User, org domain.Organisation) (domain.User, domain.Organisation, error)
}

// OrgRepository exposes persistence for organisations and memberships.
type OrgRepository interface {
	GetByPublicID(ctx context.Context, orgID string) (domain.Organisation, error)
	GetByName(ctx context.Context, name string) (domain.Organisation, error)
	Create(ctx context.Context, org domain.Organisation) (domain.Organisation, error)
	ListForUser(ctx context.Context, userID int64) ([]domain.Organisation, error)
	AddMember(ctx context.Context, userID, orgID int64) error
}

// KeyRepository stores access token signing keys.
type KeyRepository interface {
	GetActiveKey(ctx context.Context) (domain.SigningKey, error)
	CreateKey(ctx context.Context, key domain.SigningKey) (domain.SigningKey, error)
}
