package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestNewLogger_Environments(t *testing.T) {
	for _, env := range []string{"prod", "local", "dev", "docker", "test"} {
		if l, err := NewLogger(env); err != nil || l == nil {
			t.Errorf("NewLogger(%q) = %v, %v", env, l, err)
		}
	}
	if _, err := NewLogger("staging"); err == nil {
		t.Error("expected error for unknown environment")
	}
}

func TestNewLogger_LevelOverride(t *testing.T) {
	l, err := NewLogger("prod", "debug")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !l.Core().Enabled(zap.DebugLevel) {
		t.Error("expected debug level to be enabled")
	}
	if _, err := NewLogger("prod", "loud"); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestFromContext(t *testing.T) {
	base := zap.NewExample()
	if got := FromContextOr(context.Background(), base); got != base {
		t.Error("expected fallback logger")
	}

	reqLogger := zap.NewExample().With(zap.String("request_id", "r1"))
	ctx := ContextWithLogger(context.Background(), reqLogger)
	if got := FromContext(ctx); got != reqLogger {
		t.Error("expected logger stored in context")
	}
	if got := FromContextOr(ctx, base); got != reqLogger {
		t.Error("expected context logger to win over fallback")
	}
}
