package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/modernblog/bloghub/internal/config"
	"github.com/modernblog/bloghub/internal/domain/blog"
	"github.com/modernblog/bloghub/internal/http/middlewares"
)

type BlogsStore interface {
	List(ctx context.Context, authorEmail *string) ([]blog.Blog, error)
	GetByID(ctx context.Context, id string) (blog.Blog, error)
	Create(ctx context.Context, req blog.CreateRequest, authorEmail string) (blog.Blog, error)
	Update(ctx context.Context, id string, req blog.UpdateRequest) (blog.Blog, error)
	Delete(ctx context.Context, id string) (blog.Blog, error)
}

type BlogsHandler struct {
	store BlogsStore
}

func NewBlogsHandler(store BlogsStore) *BlogsHandler {
	return &BlogsHandler{store: store}
}

func (h *BlogsHandler) List(ctx *gin.Context) {
	var filter *string

	if authorEmail := ctx.Query("authorEmail"); authorEmail != "" {
		lowered := strings.ToLower(authorEmail)
		filter = &lowered
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	blogs, err := h.store.List(cctx, filter)

	if err != nil {
		RespondInternal(ctx, "server error")
		return
	}

	RespondOK(ctx, "blogs fetched successfully", blogs)
}

func (h *BlogsHandler) ListByAuthor(ctx *gin.Context) {
	email := strings.ToLower(ctx.Param("email"))

	if email == "" {
		RespondBadRequest(ctx, "email required", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	blogs, err := h.store.List(cctx, &email)

	if err != nil {
		RespondInternal(ctx, "server error")
		return
	}

	RespondOK(ctx, "fetching successfully with email", blogs)
}

func (h *BlogsHandler) GetByID(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	b, err := h.store.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, blog.ErrNotFound) {
			RespondNotFound(ctx, fmt.Sprintf("no blog found with the id %s", id))
			return
		}

		RespondInternal(ctx, "server error")
		return
	}

	RespondOK(ctx, "successfully fetching blog by ID", b)
}

// Create stamps the author from verified claims; the request body cannot
// assert an identity.
func (h *BlogsHandler) Create(ctx *gin.Context) {
	email, ok := middlewares.EmailFromContext(ctx)

	if !ok || email == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req blog.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	b, err := h.store.Create(cctx, req, email)

	if err != nil {
		RespondInternal(ctx, "server error")
		return
	}

	RespondCreated(ctx, "blog added successfully", b)
}

func (h *BlogsHandler) Update(ctx *gin.Context) {
	id := ctx.Param("id")

	var req blog.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.Empty() {
		RespondBadRequest(ctx, "no data provided for update", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if !h.authorizeOwnerOrAdmin(ctx, cctx, id) {
		return
	}

	b, err := h.store.Update(cctx, id, req)

	if err != nil {
		if errors.Is(err, blog.ErrNotFound) {
			RespondNotFound(ctx, fmt.Sprintf("no blog found with id %s", id))
			return
		}

		RespondInternal(ctx, "server error")
		return
	}

	RespondOK(ctx, "blogs update successfully", b)
}

func (h *BlogsHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if !h.authorizeOwnerOrAdmin(ctx, cctx, id) {
		return
	}

	b, err := h.store.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, blog.ErrNotFound) {
			RespondNotFound(ctx, fmt.Sprintf("blogs not exists with id %s", id))
			return
		}

		RespondInternal(ctx, "server error")
		return
	}

	RespondOK(ctx, "blogs deleted successfully", b)
}

// authorizeOwnerOrAdmin loads the target row and checks the verified
// identity against its author (admin override).
func (h *BlogsHandler) authorizeOwnerOrAdmin(ctx *gin.Context, cctx context.Context, id string) bool {
	email, ok := middlewares.EmailFromContext(ctx)

	if !ok || email == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return false
	}

	role, _ := middlewares.RoleFromContext(ctx)

	if role == "admin" {
		return true
	}

	b, err := h.store.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, blog.ErrNotFound) {
			RespondNotFound(ctx, fmt.Sprintf("no blog found with id %s", id))
			return false
		}

		RespondInternal(ctx, "server error")
		return false
	}

	if !strings.EqualFold(b.AuthorEmail, email) {
		RespondForbidden(ctx, "You can only modify your own blogs")
		return false
	}

	return true
}
