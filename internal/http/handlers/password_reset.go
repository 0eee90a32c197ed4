package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/modernblog/bloghub/internal/config"
	"github.com/modernblog/bloghub/internal/domain/user"
	"github.com/modernblog/bloghub/internal/notifications"
	"github.com/modernblog/bloghub/internal/repo/postgres"
	"github.com/modernblog/bloghub/internal/security"
)

// genericResetMessage is the same whether or not the account exists so the
// endpoint cannot be used to probe for registered emails.
const genericResetMessage = "If your email exists in our system, you will receive a reset link"

const resetTokenTTL = time.Hour

type ResetStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	SetResetToken(ctx context.Context, email, tokenHash string, expiry time.Time) error
	FindByResetToken(ctx context.Context, email, tokenHash string) (user.User, error)
	ResetPassword(ctx context.Context, email, passwordHash string) error
}

type PasswordResetHandler struct {
	store    ResetStore
	notifier notifications.Notifier
	cfg      config.Config
}

func NewPasswordResetHandler(store ResetStore, notifier notifications.Notifier, cfg config.Config) *PasswordResetHandler {
	return &PasswordResetHandler{
		store:    store,
		notifier: notifier,
		cfg:      cfg,
	}
}

type requestResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *PasswordResetHandler) Request(ctx *gin.Context) {
	var req requestResetRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.store.GetByEmail(cctx, req.Email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondOK(ctx, genericResetMessage, nil)
			return
		}

		RespondInternal(ctx, "server error")
		return
	}

	token, err := security.NewResetToken()

	if err != nil {
		RespondInternal(ctx, "server error")
		return
	}

	expiry := time.Now().UTC().Add(resetTokenTTL)

	// only the digest is stored; the plaintext leaves through the mail
	err = h.store.SetResetToken(cctx, u.Email, security.HashResetToken(token), expiry)

	if err != nil {
		RespondInternal(ctx, "server error")
		return
	}

	link := h.cfg.FrontendURL + "/reset-password?token=" + token + "&email=" + url.QueryEscape(u.Email)

	err = h.notifier.SendResetLink(cctx, notifications.SendResetLinkInput{
		Email: u.Email,
		Name:  u.Name,
		Link:  link,
	})

	if err != nil {
		// delivery is best-effort; the caller still gets the generic answer
		slog.Default().Warn("reset link email failed", "err", err)
	}

	if h.cfg.IsDev() {
		RespondOK(ctx, genericResetMessage, gin.H{
			"dev_reset_link": link,
			"dev_token":      token,
		})
		return
	}

	RespondOK(ctx, genericResetMessage, nil)
}

// VerifyToken runs the lookup but answers "valid" without inspecting the
// match; clients have always relied on this answer. See DESIGN.md.
func (h *PasswordResetHandler) VerifyToken(ctx *gin.Context) {
	token := ctx.Query("token")
	email := ctx.Query("email")

	if token == "" || email == "" {
		RespondBadRequest(ctx, "Token and email are required", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	_, err := h.store.FindByResetToken(cctx, email, security.HashResetToken(token))

	if err != nil && !errors.Is(err, postgres.ErrResetTokenInvalid) {
		RespondInternal(ctx, "server error")
		return
	}

	RespondOK(ctx, "Token is valid", nil)
}

type resetRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Token           string `json:"token" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

func (h *PasswordResetHandler) Reset(ctx *gin.Context) {
	var req resetRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.NewPassword != req.ConfirmPassword {
		RespondBadRequest(ctx, "Passwords do not match", nil)
		return
	}

	if len(req.NewPassword) < 6 {
		RespondBadRequest(ctx, "Password must be at least 6 characters", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.store.FindByResetToken(cctx, req.Email, security.HashResetToken(req.Token))

	if err != nil {
		if errors.Is(err, postgres.ErrResetTokenInvalid) {
			RespondError(ctx, 400, "invalid_or_expired", "Invalid or expired reset link", nil)
			return
		}

		RespondInternal(ctx, "server error")
		return
	}

	hash, err := security.HashPassword(req.NewPassword)

	if err != nil {
		RespondInternal(ctx, "server error")
		return
	}

	// stores the new hash and clears both token columns in one statement
	err = h.store.ResetPassword(cctx, u.Email, hash)

	if err != nil {
		RespondInternal(ctx, "server error")
		return
	}

	// confirmation email is fire-and-forget; the response never waits on it
	go func(email, name string) {
		sendCtx, sendCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer sendCancel()

		err := h.notifier.SendPasswordChanged(sendCtx, notifications.SendPasswordChangedInput{
			Email: email,
			Name:  name,
		})

		if err != nil {
			slog.Default().Warn("confirmation email failed", "err", err)
		}
	}(u.Email, u.Name)

	RespondOK(ctx, "Password reset successfully", nil)
}
