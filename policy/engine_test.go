package policy

import (
	"context"
	"testing"
)

func TestDefaultPolicyDecisions(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	tests := []struct {
		name  string
		input ManagePostInput
		want  bool
	}{
		{"owner", ManagePostInput{ActorID: "u1", OwnerID: "u1"}, true},
		{"admin over someone else", ManagePostInput{ActorID: "a1", ActorIsAdmin: true, OwnerID: "u1"}, true},
		{"other user", ManagePostInput{ActorID: "u2", OwnerID: "u1"}, false},
		{"empty actor", ManagePostInput{ActorID: "", OwnerID: ""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, err := engine.CanManagePost(ctx, tt.input)
			if err != nil {
				t.Fatalf("CanManagePost failed: %v", err)
			}
			if allowed != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, allowed)
			}
		})
	}
}

func TestNewEngineRejectsBrokenPolicy(t *testing.T) {
	if _, err := NewEngine(context.Background(), "package post_policy\n\ndecision :="); err == nil {
		t.Fatalf("expected an error for a broken policy")
	}
}
