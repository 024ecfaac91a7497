package chi

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/autoeval/internal/domain"
	healthuc "github.com/kailas-cloud/autoeval/internal/usecase/health"
	"github.com/kailas-cloud/autoeval/internal/usecase/scoring"
	usageuc "github.com/kailas-cloud/autoeval/internal/usecase/usage"
)

// --- Mocks ---

type mockScorer struct {
	result domain.ScoreResult
	err    error
	tokens int
	panics bool
	calls  int
	got    scoring.Request
}

func (m *mockScorer) Score(ctx context.Context, req scoring.Request) (domain.ScoreResult, error) {
	m.calls++
	m.got = req
	if m.panics {
		panic("scorer exploded")
	}
	if m.tokens > 0 {
		domain.UsageFromContext(ctx).AddTokens(m.tokens)
	}
	return m.result, m.err
}

// --- Fixture ---

type fixture struct {
	scorer  *mockScorer
	handler http.Handler
}

func newFixture(t *testing.T, scorer *mockScorer, health *healthuc.Service, cfg Config) *fixture {
	t.Helper()
	if health == nil {
		health = healthuc.New(0).Register("comparator", healthuc.CheckerFunc(
			func(context.Context) error { return nil }), true)
	}
	srv := NewServer(scorer, usageuc.New(nil), health, cfg, zap.NewNop())
	return &fixture{
		scorer:  scorer,
		handler: NewRouter(srv, RouterConfig{}, zap.NewNop()),
	}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

// formPart is one multipart field. A part with isFile set is written as a file part.
type formPart struct {
	name     string
	filename string
	value    string
	isFile   bool
}

func multipartRequest(t *testing.T, parts ...formPart) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range parts {
		if p.isFile {
			fw, err := mw.CreateFormFile(p.name, p.filename)
			if err != nil {
				t.Fatalf("create file part: %v", err)
			}
			_, _ = fw.Write([]byte(p.value))
			continue
		}
		if err := mw.WriteField(p.name, p.value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/calculate", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func calculateParts(filename, content, text, marks string) []formPart {
	return []formPart{
		{name: "file", filename: filename, value: content, isFile: true},
		{name: "text", value: text},
		{name: "marks", value: marks},
	}
}
