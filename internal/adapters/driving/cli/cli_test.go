package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/pflag"

	"github.com/elimu-hub/elimu-core/internal/core/domain"
	"github.com/elimu-hub/elimu-core/internal/core/ports/driven"
	"github.com/elimu-hub/elimu-core/internal/core/ports/driving"
)

// fakeAnswerService records the question it was asked and returns a canned
// answer.
type fakeAnswerService struct {
	answer     *domain.Answer
	err        error
	gotQuery   string
	gotFilters domain.Filter
}

func (f *fakeAnswerService) Ask(_ context.Context, query string, filters domain.Filter) (*domain.Answer, error) {
	f.gotQuery = query
	f.gotFilters = filters
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

type fakeIngestService struct {
	result   *driving.IngestResult
	err      error
	purgeErr error
	gotReq   driving.IngestRequest
	purgedID string
}

func (f *fakeIngestService) Ingest(_ context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	f.gotReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeIngestService) Purge(_ context.Context, documentID string) error {
	f.purgedID = documentID
	return f.purgeErr
}

type fakeStatsService struct {
	stats *driving.Stats
	err   error
}

func (f *fakeStatsService) Stats(_ context.Context) (*driving.Stats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

// fakeDocStore covers the slice of the store the commands touch. The
// embedded interface panics on anything a command should never call.
type fakeDocStore struct {
	driven.DocumentStore
	docs   []domain.Document
	logs   []domain.QueryLog
	logErr error
}

func (f *fakeDocStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	return f.docs, nil
}

func (f *fakeDocStore) LogQuery(_ context.Context, log *domain.QueryLog) error {
	if f.logErr != nil {
		return f.logErr
	}
	f.logs = append(f.logs, *log)
	return nil
}

// setupTestStore swaps the package docStore for a fake and restores the
// previous one on cleanup.
func setupTestStore(t *testing.T) *fakeDocStore {
	t.Helper()

	store := &fakeDocStore{}
	old := docStore
	docStore = store
	t.Cleanup(func() { docStore = old })
	return store
}

// resetFlags restores every command flag to its default. Flag state persists
// across Execute calls in one process, so tests must not leak into each
// other.
func resetFlags() {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue) //nolint:errcheck
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, cmd := range rootCmd.Commands() {
		cmd.Flags().VisitAll(reset)
	}
}

// executeCommand runs the root command with args and captures its output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}
