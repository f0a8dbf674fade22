package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rva/egopass/internal/model"
	"github.com/rva/egopass/internal/repository"
)

// UserHandler exposes admin user management.
type UserHandler struct {
	Users *repository.UserRepo
}

func NewUserHandler(u *repository.UserRepo) *UserHandler {
	return &UserHandler{Users: u}
}

type userResp struct {
	ID             uint64    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Nationality    string    `json:"nationality"`
	PassportNumber string    `json:"passportNumber"`
	Phone          string    `json:"phone"`
	Role           string    `json:"role"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
}

func userProfile(u *model.User) userResp {
	return userResp{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Nationality:    u.Nationality,
		PassportNumber: u.PassportNumber,
		Phone:          u.Phone,
		Role:           u.Role,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
	}
}

type updateUserReq struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Nationality    string `json:"nationality"`
	PassportNumber string `json:"passportNumber"`
	Phone          string `json:"phone"`
}

// List returns every user.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	users, err := h.Users.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]userResp, 0, len(users))
	for i := range users {
		out = append(out, userProfile(&users[i]))
	}
	return respond(c, http.StatusOK, "", out)
}

// Get returns a single user by id.
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "invalid user id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "", userProfile(u))
}

// Update overwrites a user's profile fields.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "invalid user id")
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	if req.Username != "" {
		u.Username = req.Username
	}
	if req.Email != "" {
		u.Email = req.Email
	}
	if req.FirstName != "" {
		u.FirstName = req.FirstName
	}
	if req.LastName != "" {
		u.LastName = req.LastName
	}
	if req.Nationality != "" {
		u.Nationality = req.Nationality
	}
	if req.PassportNumber != "" {
		u.PassportNumber = req.PassportNumber
	}
	if req.Phone != "" {
		u.Phone = req.Phone
	}
	if err := h.Users.UpdateProfile(ctx, u); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "user updated", userProfile(u))
}

// Delete removes a user and, in the same transaction, their
// reservations, payments and passes.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "invalid user id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Users.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
