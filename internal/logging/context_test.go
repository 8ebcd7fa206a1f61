package logging

import (
	"context"
	"testing"
)

func TestContextWithFieldsMergesAndCopies(t *testing.T) {
	ctx := ContextWithFields(context.Background(), map[string]any{
		"module": "blog.generator",
		"route":  "/posts/",
	})
	ctx = ContextWithFields(ctx, map[string]any{"route": "/tags/"})

	fields := ContextFields(ctx)
	if fields["module"] != "blog.generator" {
		t.Fatalf("expected earlier field preserved, got %v", fields)
	}
	if fields["route"] != "/tags/" {
		t.Fatalf("expected later value to win, got %v", fields)
	}

	// Mutating the returned map must not leak into the context.
	fields["route"] = "/mutated/"
	if again := ContextFields(ctx); again["route"] != "/tags/" {
		t.Fatalf("expected defensive copy, got %v", again)
	}
}

func TestContextFieldsEmpty(t *testing.T) {
	if fields := ContextFields(context.Background()); fields != nil {
		t.Fatalf("expected nil for unannotated context, got %v", fields)
	}
	if ctx := ContextWithFields(nil, map[string]any{"k": "v"}); ctx != nil {
		t.Fatalf("expected nil context passthrough, got %v", ctx)
	}
}
