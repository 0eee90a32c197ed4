package postgres

import (
	"reflect"
	"testing"
)

func TestUpdateBuilder(t *testing.T) {
	b := newUpdateBuilder()

	if !b.Empty() {
		t.Fatalf("fresh builder should be empty")
	}

	b.Set("title", "New title")
	b.Set("tags", "go,sql")

	if b.Empty() {
		t.Fatalf("builder with sets should not be empty")
	}

	query, args := b.Build("blogs", "id, title", "blog-1")

	wantQuery := "UPDATE blogs SET title = $1, tags = $2, updated_at = now() WHERE id = $3 RETURNING id, title"
	if query != wantQuery {
		t.Fatalf("got query %q, want %q", query, wantQuery)
	}

	wantArgs := []interface{}{"New title", "go,sql", "blog-1"}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Fatalf("got args %v, want %v", args, wantArgs)
	}
}

func TestUpdateBuilder_SingleColumn(t *testing.T) {
	b := newUpdateBuilder()
	b.Set("bio", "hello")

	query, args := b.Build("users", "id", "user-9")

	wantQuery := "UPDATE users SET bio = $1, updated_at = now() WHERE id = $2 RETURNING id"
	if query != wantQuery {
		t.Fatalf("got query %q, want %q", query, wantQuery)
	}

	if len(args) != 2 || args[1] != "user-9" {
		t.Fatalf("row id must be the last arg, got %v", args)
	}
}
