package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/posbill/posbill-saas/domains/users/be/service"
	platformlogging "github.com/posbill/posbill-saas/platform/go/logging"
	"github.com/posbill/posbill-saas/platform/go/persistence"
	"github.com/posbill/posbill-saas/platform/go/problem"
)

type operation string

const (
	createOperation operation = "usersCreate"
	listOperation   operation = "usersList"
	getOperation    operation = "usersGet"
)

// User is the JSON representation of a staff member.
type User struct {
	ID        uuid.UUID  `json:"id"`
	RoleID    *uuid.UUID `json:"roleId,omitempty"`
	Email     string     `json:"email"`
	FullName  string     `json:"fullName"`
	IsActive  bool       `json:"isActive"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// UserList is a page of users.
type UserList struct {
	Items      []User `json:"items"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalItems int    `json:"totalItems"`
	TotalPages int    `json:"totalPages"`
}

// CreateUser is the POST /users payload.
type CreateUser struct {
	Email    string  `json:"email"`
	FullName string  `json:"fullName"`
	RoleID   *string `json:"roleId,omitempty"`
}

// Handler serves the users endpoints of the bound tenant.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("users service is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	opts, err := buildListOptions(r)
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}

	result, err := h.svc.List(r.Context(), opts)
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}

	items := make([]User, 0, len(result.Users))
	for _, user := range result.Users {
		items = append(items, toAPIUser(user))
	}

	problem.JSON(w, http.StatusOK, UserList{
		Items:      items,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body CreateUser
	if err := problem.Decode(r, &body); err != nil {
		problem.BadBody(w, err)
		return
	}

	created, err := h.svc.Create(r.Context(), service.CreateInput{
		Email:    body.Email,
		FullName: body.FullName,
		RoleID:   body.RoleID,
	})
	if err != nil {
		h.writeError(w, r, err, createOperation)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/users/%s", created.ID.String()))
	problem.JSON(w, http.StatusCreated, toAPIUser(created))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		h.writeError(w, r, service.ErrNotFound, getOperation)
		return
	}

	user, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, getOperation)
		return
	}

	problem.JSON(w, http.StatusOK, toAPIUser(user))
}

func buildListOptions(r *http.Request) (service.ListOptions, error) {
	query := r.URL.Query()
	opts := service.ListOptions{}
	fieldErrors := service.FieldErrors{}

	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			fieldErrors["page"] = append(fieldErrors["page"], "page must be an integer")
		}
		opts.Page = page
	}
	if raw := query.Get("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			fieldErrors["pageSize"] = append(fieldErrors["pageSize"], "pageSize must be an integer")
		}
		opts.PageSize = size
	}
	if email := strings.TrimSpace(query.Get("email")); email != "" {
		opts.Email = &email
	}
	if sort := query.Get("sort"); sort != "" {
		opts.Sort = &sort
	}

	if len(fieldErrors) > 0 {
		return service.ListOptions{}, &service.ValidationError{Fields: fieldErrors}
	}
	return opts, nil
}

func toAPIUser(user service.User) User {
	return User{
		ID:        user.ID,
		RoleID:    user.RoleID,
		Email:     user.Email,
		FullName:  user.FullName,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op operation) {
	problem.Write(w, h.problemForError(r.Context(), err, op))
}

func (h *Handler) problemForError(ctx context.Context, err error, op operation) problem.Details {
	status, title, detail, problemType, fields := h.classifyError(err)

	logger := h.loggerFrom(ctx)
	fieldsForLog := []zap.Field{
		zap.String("operation", string(op)),
		zap.Int("status", status),
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("users operation failed", append(fieldsForLog, zap.Error(err))...)
	case status == http.StatusNotFound:
		logger.Info("users resource not found", append(fieldsForLog, zap.Error(err))...)
	default:
		logger.Warn("users request rejected", append(fieldsForLog, zap.Error(err))...)
	}

	return problem.New(status, title, detail, problemType, fields)
}

func (h *Handler) classifyError(err error) (status int, title, detail, problemType string, fieldErrors service.FieldErrors) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest,
			"Validation failed",
			"one or more fields are invalid",
			problem.TypeValidation,
			validationErr.Fields
	case errors.Is(err, persistence.ErrNoTenantBinding):
		d := problem.NoTenant()
		return d.Status, d.Title, d.Detail, d.Type, nil
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound,
			"Resource not found",
			"user not found",
			problem.TypeNotFound,
			nil
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict,
			"Conflict",
			"a user with this email already exists",
			problem.TypeConflict,
			nil
	default:
		return http.StatusInternalServerError,
			"Internal server error",
			"an unexpected error occurred",
			problem.TypeInternal,
			nil
	}
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	if logger, ok := platformlogging.FromContext(ctx); ok {
		return logger
	}
	return h.logger
}
