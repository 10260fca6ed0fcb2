package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smallbiznis/orghub/internal/domain"
)

// Compile-time interface assertions.
var (
	_ UserRepository = (*PostgresUserRepo)(nil)
	_ OrgRepository  = (*PostgresOrgRepo)(nil)
	_ KeyRepository  = (*PostgresKeyRepo)(nil)
)

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation. Uniqueness of emails, organisation names and membership
// pairs is enforced at commit time, so concurrent writers race here.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const userColumns = `id, user_id, first_name, last_name, email, password_hash, phone, created_at, updated_at`

const insertUserSQL = `INSERT INTO users (id, user_id, first_name, last_name, email, password_hash, phone)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns

const orgColumns = `id, org_id, name, description, created_at, updated_at`

const insertOrgSQL = `INSERT INTO organisations (id, org_id, name, description)
VALUES ($1, $2, $3, $4)
RETURNING ` + orgColumns

const insertMembershipSQL = `INSERT INTO organisation_users (user_id, org_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`

// PostgresUserRepo implements UserRepository on pgx.
type PostgresUserRepo struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{db: pool}
}

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) GetByPublicID(ctx context.Context, userID string) (domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID)
	user, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by public id: %w", err)
	}
	return user, nil
}

// CreateWithDefaultOrg persists the new user together with their default
// organisation and membership edge. Either all three rows commit or none
// do; a user must never exist without its default organisation.
func (r *PostgresUserRepo) CreateWithDefaultOrg(ctx context.Context, user domain.User, org domain.Organisation) (domain.User, domain.Organisation, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.User{}, domain.Organisation{}, fmt.Errorf("begin registration: %w", err)
	}
	defer tx.Rollback(ctx)

	created, err := scanUser(tx.QueryRow(ctx, insertUserSQL,
		user.ID,
		user.UserID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Phone,
	))
	if err != nil {
		return domain.User{}, domain.Organisation{}, fmt.Errorf("create user: %w", err)
	}

	createdOrg, err := scanOrg(tx.QueryRow(ctx, insertOrgSQL,
		org.ID,
		org.OrgID,
		org.Name,
		org.Description,
	))
	if err != nil {
		return domain.User{}, domain.Organisation{}, fmt.Errorf("create default organisation: %w", err)
	}

	if _, err := tx.Exec(ctx, insertMembershipSQL, created.ID, createdOrg.ID); err != nil {
		return domain.User{}, domain.Organisation{}, fmt.Errorf("link default organisation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.User{}, domain.Organisation{}, fmt.Errorf("commit registration: %w", err)
	}

	return created, createdOrg, nil
}

// PostgresOrgRepo implements OrgRepository on pgx.
type PostgresOrgRepo struct {
	db *pgxpool.Pool
}

func NewPostgresOrgRepo(pool *pgxpool.Pool) *PostgresOrgRepo {
	return &PostgresOrgRepo{db: pool}
}

func (r *PostgresOrgRepo) GetByPublicID(ctx context.Context, orgID string) (domain.Organisation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orgColumns+` FROM organisations WHERE org_id = $1`, orgID)
	org, err := scanOrg(row)
	if err != nil {
		return domain.Organisation{}, fmt.Errorf("get organisation by public id: %w", err)
	}
	return org, nil
}

func (r *PostgresOrgRepo) GetByName(ctx context.Context, name string) (domain.Organisation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orgColumns+` FROM organisations WHERE name = $1`, name)
	org, err := scanOrg(row)
	if err != nil {
		return domain.Organisation{}, fmt.Errorf("get organisation by name: %w", err)
	}
	return org, nil
}

func (r *PostgresOrgRepo) Create(ctx context.Context, org domain.Organisation) (domain.Organisation, error) {
	row := r.db.QueryRow(ctx, insertOrgSQL, org.ID, org.OrgID, org.Name, org.Description)
	created, err := scanOrg(row)
	if err != nil {
		return domain.Organisation{}, fmt.Errorf("create organisation: %w", err)
	}
	return created, nil
}

func (r *PostgresOrgRepo) ListForUser(ctx context.Context, userID int64) ([]domain.Organisation, error) {
	const query = `
SELECT o.id, o.org_id, o.name, o.description, o.created_at, o.updated_at
FROM organisations o
JOIN organisation_users ou ON ou.org_id = o.id
WHERE ou.user_id = $1
ORDER BY o.id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list organisations: %w", err)
	}
	defer rows.Close()

	orgs := make([]domain.Organisation, 0)
	for rows.Next() {
		org, err := scanOrg(rows)
		if err != nil {
			return nil, fmt.Errorf("scan organisation: %w", err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list organisations: %w", err)
	}
	return orgs, nil
}

func (r *PostgresOrgRepo) AddMember(ctx context.Context, userID, orgID int64) error {
	if _, err := r.db.Exec(ctx, insertMembershipSQL, userID, orgID); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// PostgresKeyRepo implements KeyRepository on pgx.
type PostgresKeyRepo struct {
	db *pgxpool.Pool
}

func NewPostgresKeyRepo(pool *pgxpool.Pool) *PostgresKeyRepo {
	return &PostgresKeyRepo{db: pool}
}

func (r *PostgresKeyRepo) GetActiveKey(ctx context.Context) (domain.SigningKey, error) {
	const query = `
SELECT id, kid, secret, algorithm, is_active, created_at, rotated_at
FROM signing_keys
WHERE is_active
ORDER BY created_at DESC
LIMIT 1`

	var key domain.SigningKey
	if err := r.db.QueryRow(ctx, query).Scan(
		&key.ID,
		&key.KID,
		&key.Secret,
		&key.Algorithm,
		&key.IsActive,
		&key.CreatedAt,
		&key.RotatedAt,
	); err != nil {
		return domain.SigningKey{}, fmt.Errorf("get signing key: %w", err)
	}
	return key, nil
}

func (r *PostgresKeyRepo) CreateKey(ctx context.Context, key domain.SigningKey) (domain.SigningKey, error) {
	const query = `
INSERT INTO signing_keys (id, kid, secret, algorithm, is_active)
VALUES ($1, $2, $3, $4, true)
RETURNING id, kid, secret, algorithm, is_active, created_at, rotated_at`

	var created domain.SigningKey
	if err := r.db.QueryRow(ctx, query, key.ID, key.KID, key.Secret, key.Algorithm).Scan(
		&created.ID,
		&created.KID,
		&created.Secret,
		&created.Algorithm,
		&created.IsActive,
		&created.CreatedAt,
		&created.RotatedAt,
	); err != nil {
		return domain.SigningKey{}, fmt.Errorf("create signing key: %w", err)
	}
	return created, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.UserID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.Phone,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

func scanOrg(row pgx.Row) (domain.Organisation, error) {
	var org domain.Organisation
	err := row.Scan(
		&org.ID,
		&org.OrgID,
		&org.Name,
		&org.Description,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	return org, err
}
