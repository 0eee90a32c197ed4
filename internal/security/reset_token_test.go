package security_test

import (
	"testing"

	"github.com/modernblog/bloghub/internal/security"
)

func TestNewResetToken(t *testing.T) {
	a, err := security.NewResetToken()
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	// 32 random bytes hex-encoded
	if len(a) != 64 {
		t.Fatalf("got token length %d, want 64", len(a))
	}

	b, err := security.NewResetToken()
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	if a == b {
		t.Fatalf("two tokens should never collide")
	}
}

func TestHashResetToken(t *testing.T) {
	digest := security.HashResetToken("some-token")

	if digest == "some-token" {
		t.Fatalf("digest must not equal the input")
	}

	// sha256 hex
	if len(digest) != 64 {
		t.Fatalf("got digest length %d, want 64", len(digest))
	}

	if security.HashResetToken("some-token") != digest {
		t.Fatalf("digest must be deterministic")
	}

	if security.HashResetToken("other-token") == digest {
		t.Fatalf("different inputs must not share a digest")
	}
}
