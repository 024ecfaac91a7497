package scoring

import (
	"context"
	"errors"
	"hash/fnv"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/autoeval/internal/comparator"
	"github.com/kailas-cloud/autoeval/internal/domain"
	"github.com/kailas-cloud/autoeval/internal/storage/tempfile"
)

const (
	testDim    = 384
	testHidden = 128
)

// bagOfWords embeds text as token counts hashed into testDim buckets. Equal normalized
// texts get equal vectors; texts with different token counts always differ.
type bagOfWords struct {
	calls int
	seen  []string
	err   error
}

func (b *bagOfWords) EmbedPair(_ context.Context, answer, reference string) ([]float32, []float32, error) {
	b.calls++
	b.seen = append(b.seen, answer, reference)
	if b.err != nil {
		return nil, nil, b.err
	}
	return embedBag(answer), embedBag(reference), nil
}

func embedBag(text string) []float32 {
	v := make([]float32, testDim)
	for _, tok := range strings.Fields(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		v[h.Sum32()%testDim]++
	}
	return v
}

type mockExtractor struct {
	text  string
	err   error
	panic bool
	calls int
	paths []string
}

func (m *mockExtractor) ExtractText(_ context.Context, path string) (string, error) {
	m.calls++
	m.paths = append(m.paths, path)
	if _, err := os.Stat(path); err != nil {
		return "", errors.New("artifact missing during extraction")
	}
	if m.panic {
		panic("extractor exploded")
	}
	return m.text, m.err
}

type mockComparator struct {
	sim   float64
	err   error
	calls int
}

func (m *mockComparator) Compare(_, _ []float32) (float64, error) {
	m.calls++
	return m.sim, m.err
}

type failingStore struct{ err error }

func (f failingStore) Save(_ string, _ []byte) (domain.Artifact, error) { return nil, f.err }

// stickyArtifact wraps a real artifact but reports a release failure.
type stickyArtifact struct {
	domain.Artifact
	released bool
}

func (s *stickyArtifact) Release() error {
	s.released = true
	_ = s.Artifact.Release()
	return errors.New("device busy")
}

type stickyStore struct {
	inner *tempfile.Store
	last  *stickyArtifact
}

func (s *stickyStore) Save(filename string, content []byte) (domain.Artifact, error) {
	a, err := s.inner.Save(filename, content)
	if err != nil {
		return nil, err
	}
	s.last = &stickyArtifact{Artifact: a}
	return s.last, nil
}

type fixture struct {
	svc       *Service
	store     *tempfile.Store
	extractor *mockExtractor
	embedder  *bagOfWords
}

func newFixture(t *testing.T, ocrText string) *fixture {
	t.Helper()
	store, err := tempfile.New(t.TempDir())
	if err != nil {
		t.Fatalf("tempfile.New: %v", err)
	}
	cmp, err := comparator.New(comparator.SampleWeights(testDim, testHidden))
	if err != nil {
		t.Fatalf("comparator.New: %v", err)
	}
	f := &fixture{
		store:     store,
		extractor: &mockExtractor{text: ocrText},
		embedder:  &bagOfWords{},
	}
	f.svc = New(store, f.extractor, f.embedder, cmp, Config{}, zap.NewNop())
	return f
}

func (f *fixture) assertNoArtifacts(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.store.Root())
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected temp root to be empty, found %d entries", len(entries))
	}
}

func request(filename, reference string, marks float64) Request {
	return Request{
		Document:      domain.RawDocument{Filename: filename, Content: []byte("scan")},
		ReferenceText: reference,
		Marks:         marks,
	}
}
