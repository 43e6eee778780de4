package api

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/notiva/notiva-agent/internal/agent"
	"github.com/notiva/notiva-agent/internal/config"
	"github.com/notiva/notiva-agent/internal/llm"
	"github.com/notiva/notiva-agent/internal/ratelimit"
	"github.com/notiva/notiva-agent/internal/store"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetNote(ctx context.Context, noteID string, userID string) (*store.Note, error) {
	args := m.Called(ctx, noteID, userID)
	if value := args.Get(0); value != nil {
		return value.(*store.Note), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) CreateNote(ctx context.Context, note store.Note) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *MockStore) UpdateNote(ctx context.Context, noteID string, userID string, update store.NoteUpdate) error {
	args := m.Called(ctx, noteID, userID, update)
	return args.Error(0)
}

func (m *MockStore) ListNotes(ctx context.Context, userID string) ([]store.Note, error) {
	args := m.Called(ctx, userID)
	var result []store.Note
	if value := args.Get(0); value != nil {
		result = value.([]store.Note)
	}
	return result, args.Error(1)
}

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Run(ctx context.Context, in agent.RunInput) (*agent.RunOutput, error) {
	args := m.Called(ctx, in)
	if value := args.Get(0); value != nil {
		return value.(*agent.RunOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Generate(ctx context.Context, messages []llm.Message, opts llm.GenerateOptions) (string, error) {
	args := m.Called(ctx, messages, opts)
	return args.String(0), args.Error(1)
}

func testConfig() config.Config {
	return config.Config{OpenAIAPIKey: "sk-test"}
}

// newTestServer wires a Server with a token for user "u1" and a generous
// cooldown window.
func newTestServer(t *testing.T, st store.Store, engine AgentRunner, provider llm.Provider, cfg config.Config) *httptest.Server {
	t.Helper()
	limiter := ratelimit.NewCooldown(5 * time.Second)
	auth := NewTokenAuthenticator("geheim:u1")
	server := NewServer(st, engine, provider, limiter, auth, cfg, zap.NewNop())
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return ts
}
