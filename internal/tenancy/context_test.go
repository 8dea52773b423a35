package tenancy

import (
	"context"
	"testing"
)

func TestWithBusinessIDAndBusinessIDFromContext(t *testing.T) {
	ctx := context.Background()
	ctx = WithBusinessID(ctx, "biz-123")

	got, ok := BusinessIDFromContext(ctx)
	if !ok {
		t.Fatalf("expected business id to be present")
	}
	if got != "biz-123" {
		t.Fatalf("expected biz-123, got %s", got)
	}
}

func TestBusinessIDFromContext_EmptyOrMissing(t *testing.T) {
	ctx := context.Background()
	if _, ok := BusinessIDFromContext(ctx); ok {
		t.Fatalf("expected missing business id to return false")
	}

	ctx = context.WithValue(ctx, businessKey, 42)
	if _, ok := BusinessIDFromContext(ctx); ok {
		t.Fatalf("expected non-string business id to return false")
	}

	ctx = WithBusinessID(context.Background(), "")
	if _, ok := BusinessIDFromContext(ctx); ok {
		t.Fatalf("expected empty business id to return false")
	}
}
