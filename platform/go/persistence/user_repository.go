package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const UsersTable = "users"

const userColumns = "user_id, tenant_id, role_id, email, full_name, is_super_admin, is_active, created_at, updated_at"

// User represents a row in the users table. TenantID is nil only for super-admins.
type User struct {
	UserID       uuid.UUID  `db:"user_id" json:"userId"`
	TenantID     *uuid.UUID `db:"tenant_id" json:"tenantId,omitempty"`
	RoleID       *uuid.UUID `db:"role_id" json:"roleId,omitempty"`
	Email        string     `db:"email" json:"email"`
	FullName     string     `db:"full_name" json:"fullName"`
	IsSuperAdmin bool       `db:"is_super_admin" json:"isSuperAdmin"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

var (
	// ErrUserNotFound indicates a missing user record.
	ErrUserNotFound = fmt.Errorf("user: %w", ErrNotFound)
	// ErrUserConflict indicates a uniqueness violation (e.g., duplicated email).
	ErrUserConflict = fmt.Errorf("user: %w", ErrConflict)
	// ErrRoleNotInTenant is returned when a user would be attached to a role that does not exist or
	// belongs to another tenant.
	ErrRoleNotInTenant = errors.New("role does not belong to the tenant")
)

// UserStore exposes persistence helpers for the users table. Request paths go through the bound tenant;
// CreateUserForTenant is for provisioning tools that pick the tenant explicitly.
type UserStore struct {
	pool *pgxpool.Pool
	db   *TenantDB
}

func NewUserStore(ctx context.Context, pool *pgxpool.Pool) (*UserStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}

	return &UserStore{pool: pool, db: NewTenantDB(pool)}, nil
}

// ListUsersParams captures filters and pagination for ListUsers.
type ListUsersParams struct {
	Page     int
	PageSize int
	Sort     *string
	Email    *string
}

// ListUsersResult includes the rows and the total count for pagination metadata.
type ListUsersResult struct {
	Users      []User
	TotalItems int
}

// CreateUserParams captures the fields required to insert a new user record.
type CreateUserParams struct {
	Email        string
	FullName     string
	RoleID       *uuid.UUID
	IsSuperAdmin bool
}

// CreateUser inserts a user into the bound tenant.
func (s *UserStore) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	var user User
	err := s.db.WithTenant(ctx, func(tx pgx.Tx, tenantID uuid.UUID) error {
		var err error
		user, err = insertUser(ctx, tx, &tenantID, params)
		return err
	})
	return user, err
}

// CreateUserForTenant inserts a user for an explicit tenant, or a tenant-less super-admin when tenantID is nil.
func (s *UserStore) CreateUserForTenant(ctx context.Context, tenantID *uuid.UUID, params CreateUserParams) (User, error) {
	if tenantID == nil && !params.IsSuperAdmin {
		return User{}, errors.New("tenant id is required for non super-admin users")
	}
	return insertUser(ctx, s.pool, tenantID, params)
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertUser(ctx context.Context, q queryRower, tenantID *uuid.UUID, params CreateUserParams) (User, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" {
		return User{}, errors.New("email is required")
	}
	if params.RoleID != nil {
		if err := checkRoleScope(ctx, q, tenantID, *params.RoleID); err != nil {
			return User{}, err
		}
	}

	row := q.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (tenant_id, role_id, email, full_name, is_super_admin)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING %s
    `, UsersTable, userColumns),
		tenantID,
		params.RoleID,
		email,
		strings.TrimSpace(params.FullName),
		params.IsSuperAdmin,
	)

	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrUserConflict
		}
		return User{}, err
	}

	return user, nil
}

// checkRoleScope accepts the tenant's own roles and global roles (tenant_id IS NULL). A tenant-less
// super-admin may only hold a global role.
func checkRoleScope(ctx context.Context, q queryRower, tenantID *uuid.UUID, roleID uuid.UUID) error {
	var ok bool
	err := q.QueryRow(ctx, fmt.Sprintf(`
        SELECT EXISTS (
            SELECT 1 FROM %s
            WHERE role_id = $1 AND (tenant_id IS NULL OR tenant_id IS NOT DISTINCT FROM $2)
        )
    `, RolesTable), roleID, tenantID).Scan(&ok)
	if err != nil {
		return fmt.Errorf("check role scope: %w", err)
	}
	if !ok {
		return ErrRoleNotInTenant
	}
	return nil
}

// userSortColumns maps API sort keys to columns.
var userSortColumns = map[string]string{
	"email":     "email",
	"fullName":  "full_name",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// ListUsers pages through the bound tenant's users, newest first unless Sort says otherwise. Email is a
// case-insensitive substring filter.
func (s *UserStore) ListUsers(ctx context.Context, params ListUsersParams) (ListUsersResult, error) {
	params.Page = max(params.Page, 1)
	if params.PageSize <= 0 || params.PageSize > 100 {
		params.PageSize = 20
	}

	orderBy, err := userOrderBy(params.Sort)
	if err != nil {
		return ListUsersResult{}, err
	}

	result := ListUsersResult{Users: []User{}}
	err = s.db.WithTenant(ctx, func(tx pgx.Tx, tenantID uuid.UUID) error {
		where, args := "tenant_id = $1", []any{tenantID}
		if params.Email != nil && strings.TrimSpace(*params.Email) != "" {
			args = append(args, "%"+strings.ToLower(strings.TrimSpace(*params.Email))+"%")
			where += fmt.Sprintf(" AND LOWER(email) LIKE $%d", len(args))
		}

		if err := tx.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, UsersTable, where), args...).
			Scan(&result.TotalItems); err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		if result.TotalItems == 0 {
			return nil
		}

		args = append(args, params.PageSize, (params.Page-1)*params.PageSize)
		rows, err := tx.Query(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
			userColumns, UsersTable, where, orderBy, len(args)-1, len(args)), args...)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}

		users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (User, error) { return scanUser(row) })
		if err != nil {
			return fmt.Errorf("scan users: %w", err)
		}
		result.Users = users
		return nil
	})
	if err != nil {
		return ListUsersResult{}, err
	}
	return result, nil
}

// userOrderBy turns "fullName,-createdAt" into an ORDER BY list. user_id breaks ties so pages are stable.
func userOrderBy(sort *string) (string, error) {
	var terms []string
	if sort != nil {
		for _, key := range strings.Split(*sort, ",") {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			direction := "ASC"
			if trimmed, desc := strings.CutPrefix(key, "-"); desc {
				key, direction = trimmed, "DESC"
			}
			column, ok := userSortColumns[key]
			if !ok {
				return "", fmt.Errorf("unsupported sort field %q", key)
			}
			terms = append(terms, column+" "+direction)
		}
	}
	if len(terms) == 0 {
		terms = append(terms, "created_at DESC")
	}
	return strings.Join(append(terms, "user_id"), ", "), nil
}

// GetUser returns a single user of the bound tenant.
func (s *UserStore) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	var user User
	err := s.db.WithTenant(ctx, func(tx pgx.Tx, tenantID uuid.UUID) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`
            SELECT %s FROM %s WHERE user_id = $1 AND tenant_id = $2
        `, userColumns, UsersTable), id, tenantID)

		var err error
		if user, err = scanUser(row); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return err
		}
		return nil
	})
	return user, err
}

func scanUser(row pgx.Row) (User, error) {
	var user User

	if err := row.Scan(&user.UserID, &user.TenantID, &user.RoleID, &user.Email, &user.FullName,
		&user.IsSuperAdmin, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return User{}, err
	}

	return user, nil
}
