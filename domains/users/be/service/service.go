package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/posbill/posbill-saas/domains/users/be/repo"
	"github.com/posbill/posbill-saas/platform/go/persistence"
)

var (
	ErrNotFound = errors.New("user not found")
	// ErrConflict means the email is already registered, in any tenant.
	ErrConflict = errors.New("user email already registered")
)

// FieldErrors lists the problems per request field.
type FieldErrors map[string][]string

// ValidationError rejects a request before it reaches the store.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("invalid user input (%d fields)", len(v.Fields))
}

// User is the staff member view returned to tenant operators.
type User struct {
	ID        uuid.UUID
	RoleID    *uuid.UUID
	Email     string
	FullName  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListOptions controls filtering and pagination.
type ListOptions struct {
	Email    *string
	Page     int
	PageSize int
	Sort     *string
}

// ListResult wraps a page of users with pagination metadata.
type ListResult struct {
	Users      []User
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
}

// CreateInput represents the payload required to add a staff member to the bound tenant.
type CreateInput struct {
	Email    string
	FullName string
	RoleID   *string
}

// Service manages the staff of the bound tenant.
type Service interface {
	Create(ctx context.Context, input CreateInput) (User, error)
	List(ctx context.Context, opts ListOptions) (ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (User, error)
}

type service struct {
	repo repo.Repository
}

func New(r repo.Repository) Service {
	if r == nil {
		panic("users repository is required")
	}
	return &service{repo: r}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// sortableFields are the user columns clients may order by; a leading "-" sorts descending.
var sortableFields = map[string]bool{"email": true, "fullName": true, "createdAt": true, "updatedAt": true}

func (s *service) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	page, pageSize := max(opts.Page, 1), opts.PageSize
	switch {
	case pageSize <= 0:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}

	params := persistence.ListUsersParams{Page: page, PageSize: pageSize}

	sort, err := sanitizeSort(opts.Sort)
	if err != nil {
		return ListResult{}, err
	}
	params.Sort = sort
	if email := trimmed(opts.Email); email != "" {
		params.Email = &email
	}

	found, err := s.repo.List(ctx, params)
	if err != nil {
		return ListResult{}, err
	}

	out := ListResult{
		Users:      make([]User, len(found.Users)),
		Page:       page,
		PageSize:   pageSize,
		TotalItems: found.TotalItems,
		TotalPages: (found.TotalItems + pageSize - 1) / pageSize,
	}
	for i, record := range found.Users {
		out.Users[i] = toUser(record)
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (User, error) {
	params, err := validateCreate(input)
	if err != nil {
		return User{}, err
	}

	record, err := s.repo.Create(ctx, params)
	if err != nil {
		return User{}, mapPersistenceError(err)
	}
	return toUser(record), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (User, error) {
	if id == uuid.Nil {
		return User{}, ErrNotFound
	}

	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, mapPersistenceError(err)
	}
	return toUser(record), nil
}

// validateCreate turns a staff sign-up into store params. The params never carry IsSuperAdmin.
func validateCreate(input CreateInput) (persistence.CreateUserParams, error) {
	problems := FieldErrors{}
	params := persistence.CreateUserParams{
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		FullName: strings.TrimSpace(input.FullName),
	}

	switch {
	case params.Email == "":
		problems.add("email", "email is required")
	case !strings.Contains(params.Email, "@"):
		problems.add("email", "email must contain '@'")
	}
	if params.FullName == "" {
		problems.add("fullName", "fullName is required")
	}
	if raw := trimmed(input.RoleID); raw != "" {
		if id, err := uuid.Parse(raw); err != nil {
			problems.add("roleId", "roleId must be a UUID")
		} else {
			params.RoleID = &id
		}
	}

	if len(problems) > 0 {
		return persistence.CreateUserParams{}, &ValidationError{Fields: problems}
	}
	return params, nil
}

func sanitizeSort(sort *string) (*string, error) {
	value := trimmed(sort)
	if value == "" {
		return nil, nil
	}

	for _, field := range strings.Split(value, ",") {
		field = strings.TrimPrefix(strings.TrimSpace(field), "-")
		if field != "" && !sortableFields[field] {
			problems := FieldErrors{}
			problems.add("sort", fmt.Sprintf("unsupported sort field %q", field))
			return nil, &ValidationError{Fields: problems}
		}
	}
	return &value, nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func toUser(record persistence.User) User {
	return User{
		ID:        record.UserID,
		RoleID:    record.RoleID,
		Email:     record.Email,
		FullName:  record.FullName,
		IsActive:  record.IsActive,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func mapPersistenceError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrUserNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrUserConflict):
		return ErrConflict
	case errors.Is(err, persistence.ErrRoleNotInTenant):
		return &ValidationError{Fields: FieldErrors{"roleId": {"roleId is not a role of this tenant"}}}
	default:
		return err
	}
}

func (f FieldErrors) add(field, message string) {
	f[field] = append(f[field], message)
}
