package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/modernblog/bloghub/internal/domain/blog"
	"github.com/modernblog/bloghub/internal/http/handlers"
	"github.com/modernblog/bloghub/internal/http/middlewares"
)

// Fake store implementing handlers.BlogsStore

type fakeBlogsStore struct {
	listFn   func(ctx context.Context, authorEmail *string) ([]blog.Blog, error)
	getFn    func(ctx context.Context, id string) (blog.Blog, error)
	createFn func(ctx context.Context, req blog.CreateRequest, authorEmail string) (blog.Blog, error)
	updateFn func(ctx context.Context, id string, req blog.UpdateRequest) (blog.Blog, error)
	deleteFn func(ctx context.Context, id string) (blog.Blog, error)
}

func (f *fakeBlogsStore) List(ctx context.Context, authorEmail *string) ([]blog.Blog, error) {
	if f.listFn != nil {
		return f.listFn(ctx, authorEmail)
	}
	return []blog.Blog{}, nil
}

func (f *fakeBlogsStore) GetByID(ctx context.Context, id string) (blog.Blog, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return blog.Blog{}, nil
}

func (f *fakeBlogsStore) Create(ctx context.Context, req blog.CreateRequest, authorEmail string) (blog.Blog, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req, authorEmail)
	}
	return blog.Blog{}, nil
}

func (f *fakeBlogsStore) Update(ctx context.Context, id string, req blog.UpdateRequest) (blog.Blog, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req)
	}
	return blog.Blog{}, nil
}

func (f *fakeBlogsStore) Delete(ctx context.Context, id string) (blog.Blog, error) {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return blog.Blog{}, nil
}

func TestListBlogsHandler(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		url            string
		storeSetup     func(*fakeBlogsStore)
		wantStatusCode int
	}{
		{
			name: "success_no_filter",
			url:  "/blogs",
			storeSetup: func(f *fakeBlogsStore) {
				f.listFn = func(ctx context.Context, authorEmail *string) ([]blog.Blog, error) {
					if authorEmail != nil {
						return nil, errors.New("filter should be nil without a query param")
					}

					return []blog.Blog{
						{ID: newUUID(), Title: "First post", AuthorEmail: "ada@example.com", CreatedAt: now, UpdatedAt: now},
					}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "author_filter_is_lowercased",
			url:  "/blogs?authorEmail=Ada@Example.COM",
			storeSetup: func(f *fakeBlogsStore) {
				f.listFn = func(ctx context.Context, authorEmail *string) ([]blog.Blog, error) {
					if authorEmail == nil || *authorEmail != "ada@example.com" {
						return nil, errors.New("filter not lowercased")
					}

					return []blog.Blog{}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},

		// unlike users, an empty blog list is a plain 200
		{
			name: "empty_list_is_ok",
			url:  "/blogs",
			storeSetup: func(f *fakeBlogsStore) {
				f.listFn = func(ctx context.Context, authorEmail *string) ([]blog.Blog, error) {
					return []blog.Blog{}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "repo_error",
			url:  "/blogs",
			storeSetup: func(f *fakeBlogsStore) {
				f.listFn = func(ctx context.Context, authorEmail *string) ([]blog.Blog, error) {
					return nil, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeBlogsStore{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewBlogsHandler(store)
			r := setupRouter(http.MethodGet, "/blogs", h.List)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestListBlogsByAuthorHandler(t *testing.T) {
	store := &fakeBlogsStore{}
	store.listFn = func(ctx context.Context, authorEmail *string) ([]blog.Blog, error) {
		if authorEmail == nil || *authorEmail != "ada@example.com" {
			return nil, errors.New("path email not passed down")
		}

		return []blog.Blog{{ID: newUUID(), Title: "Post", AuthorEmail: "ada@example.com"}}, nil
	}

	h := handlers.NewBlogsHandler(store)
	r := setupRouter(http.MethodGet, "/blogs/email/:email", h.ListByAuthor)

	req := httptest.NewRequest(http.MethodGet, "/blogs/email/Ada@example.com", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
}

func TestCreateBlogHandler(t *testing.T) {
	now := time.Now().UTC()
	authorID := newUUID()

	tests := []struct {
		name           string
		body           string
		authHeader     string
		storeSetup     func(*fakeBlogsStore)
		wantStatusCode int
	}{
		{
			name:       "author_comes_from_claims",
			body:       `{"title": "Go concurrency", "description": "channels and friends", "tags": ["go", "concurrency"]}`,
			authHeader: bearerFor(t, authorID, "ada@example.com", "user"),
			storeSetup: func(f *fakeBlogsStore) {
				f.createFn = func(ctx context.Context, req blog.CreateRequest, authorEmail string) (blog.Blog, error) {
					// identity must come from the verified token, whatever the body says
					if authorEmail != "ada@example.com" {
						return blog.Blog{}, errors.New("author not taken from claims")
					}

					if req.Tags.String() != "go,concurrency" {
						return blog.Blog{}, errors.New("tags array not normalized: " + req.Tags.String())
					}

					return blog.Blog{
						ID:          newUUID(),
						Title:       req.Title,
						Description: req.Description,
						Tags:        req.Tags.String(),
						AuthorEmail: authorEmail,
						CreatedAt:   now,
						UpdatedAt:   now,
					}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:       "tags_accepts_plain_string",
			body:       `{"title": "Go concurrency", "description": "channels and friends", "tags": "go,concurrency"}`,
			authHeader: bearerFor(t, authorID, "ada@example.com", "user"),
			storeSetup: func(f *fakeBlogsStore) {
				f.createFn = func(ctx context.Context, req blog.CreateRequest, authorEmail string) (blog.Blog, error) {
					if req.Tags.String() != "go,concurrency" {
						return blog.Blog{}, errors.New("string tags mangled: " + req.Tags.String())
					}

					return blog.Blog{ID: newUUID(), Title: req.Title, AuthorEmail: authorEmail}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "validation_error",
			body:           `{"title": ""}`,
			authHeader:     bearerFor(t, authorID, "ada@example.com", "user"),
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing_token",
			body:           `{"title": "Go concurrency", "description": "channels"}`,
			authHeader:     "",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:       "repo_error",
			body:       `{"title": "Go concurrency", "description": "channels"}`,
			authHeader: bearerFor(t, authorID, "ada@example.com", "user"),
			storeSetup: func(f *fakeBlogsStore) {
				f.createFn = func(ctx context.Context, req blog.CreateRequest, authorEmail string) (blog.Blog, error) {
					return blog.Blog{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeBlogsStore{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewBlogsHandler(store)
			authMW := middlewares.NewAuthMiddleware(testJWT)
			r := setupRouter(http.MethodPost, "/blogs", authMW.RequireAuth(), h.Create)

			req := httptest.NewRequest(http.MethodPost, "/blogs", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestUpdateBlogHandler_Ownership(t *testing.T) {
	blogID := newUUID()

	owned := blog.Blog{
		ID:          blogID,
		Title:       "Original",
		Description: "Original description",
		AuthorEmail: "ada@example.com",
	}

	tests := []struct {
		name           string
		authHeader     string
		body           string
		storeSetup     func(*fakeBlogsStore)
		wantStatusCode int
	}{
		{
			name:       "owner_can_update",
			authHeader: bearerFor(t, newUUID(), "ada@example.com", "user"),
			body:       `{"title": "Updated"}`,
			storeSetup: func(f *fakeBlogsStore) {
				f.getFn = func(ctx context.Context, id string) (blog.Blog, error) {
					return owned, nil
				}
				f.updateFn = func(ctx context.Context, id string, req blog.UpdateRequest) (blog.Blog, error) {
					if req.Title != "Updated" {
						return blog.Blog{}, errors.New("title not carried through")
					}

					updated := owned
					updated.Title = req.Title
					return updated, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},

		// ownership compares emails case-insensitively
		{
			name:       "owner_email_case_insensitive",
			authHeader: bearerFor(t, newUUID(), "Ada@Example.COM", "user"),
			body:       `{"title": "Updated"}`,
			storeSetup: func(f *fakeBlogsStore) {
				f.getFn = func(ctx context.Context, id string) (blog.Blog, error) {
					return owned, nil
				}
				f.updateFn = func(ctx context.Context, id string, req blog.UpdateRequest) (blog.Blog, error) {
					return owned, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:       "non_owner_forbidden",
			authHeader: bearerFor(t, newUUID(), "mallory@example.com", "user"),
			body:       `{"title": "Hijacked"}`,
			storeSetup: func(f *fakeBlogsStore) {
				f.getFn = func(ctx context.Context, id string) (blog.Blog, error) {
					return owned, nil
				}
			},
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:       "admin_override",
			authHeader: bearerFor(t, newUUID(), "root@example.com", "admin"),
			body:       `{"title": "Moderated"}`,
			storeSetup: func(f *fakeBlogsStore) {
				f.updateFn = func(ctx context.Context, id string, req blog.UpdateRequest) (blog.Blog, error) {
					return owned, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "empty_patch_rejected",
			authHeader:     bearerFor(t, newUUID(), "ada@example.com", "user"),
			body:           `{}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:       "not_found",
			authHeader: bearerFor(t, newUUID(), "ada@example.com", "user"),
			body:       `{"title": "Updated"}`,
			storeSetup: func(f *fakeBlogsStore) {
				f.getFn = func(ctx context.Context, id string) (blog.Blog, error) {
					return blog.Blog{}, blog.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeBlogsStore{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewBlogsHandler(store)
			authMW := middlewares.NewAuthMiddleware(testJWT)
			r := setupRouter(http.MethodPatch, "/blogs/:id", authMW.RequireAuth(), h.Update)

			req := httptest.NewRequest(http.MethodPatch, "/blogs/"+blogID, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestDeleteBlogHandler_Ownership(t *testing.T) {
	blogID := newUUID()

	owned := blog.Blog{
		ID:          blogID,
		Title:       "Doomed",
		AuthorEmail: "ada@example.com",
	}

	tests := []struct {
		name           string
		authHeader     string
		storeSetup     func(*fakeBlogsStore)
		wantStatusCode int
	}{
		{
			name:       "owner_can_delete",
			authHeader: bearerFor(t, newUUID(), "ada@example.com", "user"),
			storeSetup: func(f *fakeBlogsStore) {
				f.getFn = func(ctx context.Context, id string) (blog.Blog, error) {
					return owned, nil
				}
				f.deleteFn = func(ctx context.Context, id string) (blog.Blog, error) {
					return owned, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:       "non_owner_forbidden",
			authHeader: bearerFor(t, newUUID(), "mallory@example.com", "user"),
			storeSetup: func(f *fakeBlogsStore) {
				f.getFn = func(ctx context.Context, id string) (blog.Blog, error) {
					return owned, nil
				}
			},
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:       "not_found",
			authHeader: bearerFor(t, newUUID(), "ada@example.com", "user"),
			storeSetup: func(f *fakeBlogsStore) {
				f.getFn = func(ctx context.Context, id string) (blog.Blog, error) {
					return blog.Blog{}, blog.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeBlogsStore{}

			if tt.storeSetup != nil {
				tt.storeSetup(store)
			}

			h := handlers.NewBlogsHandler(store)
			authMW := middlewares.NewAuthMiddleware(testJWT)
			r := setupRouter(http.MethodDelete, "/blogs/:id", authMW.RequireAuth(), h.Delete)

			req := httptest.NewRequest(http.MethodDelete, "/blogs/"+blogID, nil)

			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestGetBlogByIDHandler(t *testing.T) {
	validID := newUUID()

	store := &fakeBlogsStore{}
	store.getFn = func(ctx context.Context, id string) (blog.Blog, error) {
		return blog.Blog{ID: id, Title: "A post", AuthorEmail: "ada@example.com"}, nil
	}

	h := handlers.NewBlogsHandler(store)
	r := setupRouter(http.MethodGet, "/blogs/:id", h.GetByID)

	req := httptest.NewRequest(http.MethodGet, "/blogs/"+validID, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data blog.Blog `json:"data"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Data.ID != validID {
		t.Fatalf("expected blog %s, got %+v", validID, resp.Data)
	}
}
