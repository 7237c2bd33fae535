package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/posbill/posbill-saas/platform/go/access"
)

const (
	RolesTable           = "roles"
	PermissionsTable     = "permissions"
	RolePermissionsTable = "role_permissions"
)

// CreateRoleParams describes a role. TenantID nil creates a system-wide role.
type CreateRoleParams struct {
	Name         string
	TenantID     *uuid.UUID
	IsSystemRole bool
}

// RoleStore reads roles with their permission links. It implements access.RoleReader.
type RoleStore struct {
	pool *pgxpool.Pool
}

func NewRoleStore(ctx context.Context, pool *pgxpool.Pool) (*RoleStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &RoleStore{pool: pool}, nil
}

// RoleWithPermissions loads the role and all permissions linked to it.
func (s *RoleStore) RoleWithPermissions(ctx context.Context, roleID uuid.UUID) (access.Role, error) {
	var role access.Role
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT role_id, name, tenant_id, is_system_role FROM %s WHERE role_id = $1
    `, RolesTable), roleID).Scan(&role.ID, &role.Name, &role.TenantID, &role.IsSystemRole)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return access.Role{}, ErrNotFound
		}
		return access.Role{}, fmt.Errorf("load role: %w", err)
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT p.resource, p.action
        FROM %s rp
        JOIN %s p ON p.permission_id = rp.permission_id
        WHERE rp.role_id = $1
        ORDER BY p.resource, p.action
    `, RolePermissionsTable, PermissionsTable), roleID)
	if err != nil {
		return access.Role{}, fmt.Errorf("load role permissions: %w", err)
	}
	defer rows.Close()

	role.Permissions = make([]access.Permission, 0)
	for rows.Next() {
		var p access.Permission
		if err := rows.Scan(&p.Resource, &p.Action); err != nil {
			return access.Role{}, fmt.Errorf("scan permission: %w", err)
		}
		role.Permissions = append(role.Permissions, p)
	}
	if err := rows.Err(); err != nil {
		return access.Role{}, fmt.Errorf("iterate permissions: %w", err)
	}

	return role, nil
}

// CreateRole inserts a role without permissions.
func (s *RoleStore) CreateRole(ctx context.Context, params CreateRoleParams) (access.Role, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return access.Role{}, errors.New("role name is required")
	}

	role := access.Role{Permissions: []access.Permission{}}
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (name, tenant_id, is_system_role)
        VALUES ($1, $2, $3)
        RETURNING role_id, name, tenant_id, is_system_role
    `, RolesTable), name, params.TenantID, params.IsSystemRole).Scan(&role.ID, &role.Name, &role.TenantID, &role.IsSystemRole)
	if err != nil {
		return access.Role{}, fmt.Errorf("create role: %w", err)
	}
	return role, nil
}

// GrantPermission links a catalog permission to the role. Granting twice is a no-op.
func (s *RoleStore) GrantPermission(ctx context.Context, roleID uuid.UUID, perm access.Permission) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`
        INSERT INTO %s (role_id, permission_id)
        SELECT $1, permission_id FROM %s WHERE resource = $2 AND action = $3
        ON CONFLICT DO NOTHING
    `, RolePermissionsTable, PermissionsTable), roleID, perm.Resource, perm.Action)
	if err != nil {
		return fmt.Errorf("grant %s: %w", perm, err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE resource = $1 AND action = $2)`, PermissionsTable),
			perm.Resource, perm.Action).Scan(&exists); err != nil {
			return fmt.Errorf("check permission %s: %w", perm, err)
		}
		if !exists {
			return fmt.Errorf("permission %s: %w", perm, ErrNotFound)
		}
	}
	return nil
}
