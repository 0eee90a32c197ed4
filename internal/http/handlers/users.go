package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/modernblog/bloghub/internal/config"
	"github.com/modernblog/bloghub/internal/domain/user"
	"github.com/modernblog/bloghub/internal/http/middlewares"
	"github.com/modernblog/bloghub/internal/repo/postgres"
	"github.com/modernblog/bloghub/internal/security"
)

type UsersStore interface {
	List(ctx context.Context) ([]user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, name, email, passwordHash string) (user.User, error)
	Update(ctx context.Context, id string, req user.UpdateRequest) (user.User, error)
	Delete(ctx context.Context, id string) (user.User, error)
}

type TokenIssuer interface {
	GenerateToken(userID, email, role string) (string, error)
}

type UsersHandler struct {
	store UsersStore
	jwt   TokenIssuer
}

func NewUsersHandler(store UsersStore, jwt TokenIssuer) *UsersHandler {
	return &UsersHandler{store: store, jwt: jwt}
}

// List returns every user newest-first. An empty table answers 404; the
// API has always reported an empty collection that way.
func (h *UsersHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	users, err := h.store.List(cctx)

	if err != nil {
		RespondInternal(ctx, "server error")
		return
	}

	if len(users) == 0 {
		RespondNotFound(ctx, "users not found")
		return
	}

	RespondOK(ctx, "users fetched successfully", users)
}

func (h *UsersHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "server error")
		return
	}

	u, err := h.store.Create(cctx, req.Name, req.Email, hash)

	if err != nil {
		if errors.Is(err, postgres.ErrEmailTaken) {
			RespondConflict(ctx, "email_taken", fmt.Sprintf("user already exists with this id %s", req.Email))
			return
		}

		RespondInternal(ctx, "server error")
		return
	}

	RespondCreated(ctx, "new user added successfully", u)
}

func (h *UsersHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.store.GetByEmail(cctx, req.Email)
	if err != nil {
		// unknown email reports 400, a wrong password 401
		RespondError(ctx, 400, "invalid_credentials", "Invalid Credentials", nil)
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Wrong password")
		return
	}

	token, err := h.jwt.GenerateToken(foundUser.ID, foundUser.Email, foundUser.Role)

	if err != nil {
		RespondInternal(ctx, "server error")
		return
	}

	RespondOK(ctx, "user login successful", gin.H{
		"token": token,
		"user":  foundUser.Public(),
	})
}

func (h *UsersHandler) GetByID(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.store.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, fmt.Sprintf("user not found with the id %s", id))
			return
		}

		RespondInternal(ctx, "server error")
		return
	}

	RespondOK(ctx, "successfully fetched data with id", u)
}

func (h *UsersHandler) Update(ctx *gin.Context) {
	id := ctx.Param("id")

	if !h.authorizeSelfOrAdmin(ctx, id) {
		return
	}

	var req user.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.Empty() {
		RespondBadRequest(ctx, "no data provided for update", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.store.Update(cctx, id, req)

	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "user not found")
		case errors.Is(err, postgres.ErrNoUpdates):
			// e.g. a role-only patch on a non-admin target
			RespondBadRequest(ctx, "no data provided for update", nil)
		case errors.Is(err, postgres.ErrEmailTaken):
			RespondConflict(ctx, "email_taken", "Email is already in use.")
		default:
			RespondInternal(ctx, "server error")
		}
		return
	}

	RespondOK(ctx, "user data updated successfully", u)
}

func (h *UsersHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	if !h.authorizeSelfOrAdmin(ctx, id) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.store.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, fmt.Sprintf("user not found with the id %s", id))
			return
		}

		RespondInternal(ctx, "server error")
		return
	}

	RespondOK(ctx, "user deleted successfully", u)
}

// authorizeSelfOrAdmin enforces that mutations act on the caller's own row
// unless the caller is an admin. Identity comes from verified claims, never
// from the request body.
func (h *UsersHandler) authorizeSelfOrAdmin(ctx *gin.Context, targetID string) bool {
	callerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || callerID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return false
	}

	role, _ := middlewares.RoleFromContext(ctx)

	if role != "admin" && callerID != targetID {
		RespondForbidden(ctx, "You can only modify your own account")
		return false
	}

	return true
}
