package services

import (
	"context"
	"errors"
	"sync"

	"github.com/elimu-hub/elimu-core/internal/core/domain"
	"github.com/elimu-hub/elimu-core/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	embedding  []float32
	embedErr   error
	batchErr   error
	batchSizes []int
	dims       int
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	m.batchSizes = append(m.batchSizes, len(texts))
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = m.embedding
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return 768
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	response    string
	generateErr error
	gotPrompt   string
	gotOpts     driven.GenerateOptions
}

func (m *mockLLMService) Generate(
	_ context.Context, prompt string, opts driven.GenerateOptions,
) (string, error) {
	m.gotPrompt = prompt
	m.gotOpts = opts
	if m.generateErr != nil {
		return "", m.generateErr
	}
	return m.response, nil
}

func (m *mockLLMService) ModelName() string {
	return "mock-llm"
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}

// mockRetriever implements Retriever for testing the answer pipeline.
type mockRetriever struct {
	results     []domain.SearchResult
	retrieveErr error
	gotQuery    string
	gotK        int
	gotFilters  domain.Filter
}

func (m *mockRetriever) Retrieve(
	_ context.Context, query string, k int, filters domain.Filter,
) ([]domain.SearchResult, error) {
	m.gotQuery = query
	m.gotK = k
	m.gotFilters = filters
	if m.retrieveErr != nil {
		return nil, m.retrieveErr
	}
	if len(m.results) > k {
		return m.results[:k], nil
	}
	return m.results, nil
}

// mockDocStore implements driven.DocumentStore in memory for testing.
type mockDocStore struct {
	mu          sync.Mutex
	docs        map[string]*domain.Document
	chunks      map[string][]domain.Chunk
	logs        []*domain.QueryLog
	transitions []string

	saveErr   error
	statusErr error
}

func newMockDocStore() *mockDocStore {
	return &mockDocStore{
		docs:   make(map[string]*domain.Document),
		chunks: make(map[string][]domain.Chunk),
	}
}

func (m *mockDocStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *doc
	m.docs[doc.ID] = &copied
	return nil
}

func (m *mockDocStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (m *mockDocStore) GetDocumentByHash(_ context.Context, hash string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range m.docs {
		if doc.ContentHash == hash {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := make([]domain.Document, 0, len(m.docs))
	for _, doc := range m.docs {
		docs = append(docs, *doc)
	}
	return docs, nil
}

func (m *mockDocStore) UpdateStatus(_ context.Context, id, status, processingError string) error {
	if m.statusErr != nil {
		return m.statusErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Status = status
	doc.ProcessingError = processingError
	m.transitions = append(m.transitions, status)
	return nil
}

func (m *mockDocStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		m.chunks[c.DocumentID] = append(m.chunks[c.DocumentID], c)
	}
	return nil
}

func (m *mockDocStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chunks[documentID], nil
}

func (m *mockDocStore) DeleteDocument(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	delete(m.chunks, id)
	return nil
}

func (m *mockDocStore) CountChunks(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, cs := range m.chunks {
		n += len(cs)
	}
	return n, nil
}

func (m *mockDocStore) LogQuery(_ context.Context, log *domain.QueryLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *mockDocStore) Close() error {
	return nil
}

var errBackend = errors.New("backend unavailable")
