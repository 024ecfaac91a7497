package extraction

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

type mockEngine struct {
	name      string
	pdf       bool
	text      string
	err       error
	healthErr error
	calls     int
}

func (m *mockEngine) Name() string { return m.name }

func (m *mockEngine) ExtractText(_ context.Context, _ string) (string, error) {
	m.calls++
	return m.text, m.err
}

func (m *mockEngine) AcceptsPDF() bool { return m.pdf }

func (m *mockEngine) HealthCheck(_ context.Context) error { return m.healthErr }

type mockReader struct {
	text  string
	err   error
	calls int
}

func (m *mockReader) ReadText(_ string) (string, error) {
	m.calls++
	return m.text, m.err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
