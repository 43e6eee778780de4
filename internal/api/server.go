package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/notiva/notiva-agent/internal/agent"
	"github.com/notiva/notiva-agent/internal/config"
	"github.com/notiva/notiva-agent/internal/llm"
	"github.com/notiva/notiva-agent/internal/ratelimit"
	"github.com/notiva/notiva-agent/internal/store"
)

type Server struct {
	store    store.Store
	engine   AgentRunner
	provider llm.Provider
	limiter  *ratelimit.Cooldown
	auth     Authenticator
	cfg      config.Config
	log      *zap.Logger
}

// AgentRunner is the orchestration engine as the transport layer sees it.
type AgentRunner interface {
	Run(ctx context.Context, in agent.RunInput) (*agent.RunOutput, error)
}

func NewServer(st store.Store, engine AgentRunner, provider llm.Provider, limiter *ratelimit.Cooldown, auth Authenticator, cfg config.Config, log *zap.Logger) *Server {
	return &Server{
		store:    st,
		engine:   engine,
		provider: provider,
		limiter:  limiter,
		auth:     auth,
		cfg:      cfg,
		log:      log,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(quietRequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Post("/agent", s.runAgent)
	r.Post("/chat", s.chat)
	r.Post("/labels", s.labelNote)
	r.Post("/conversation", s.processConversation)
	r.Get("/health", s.health)
	r.Get("/ready", s.ready)

	return r
}

func quietRequestLogger(next http.Handler) http.Handler {
	logged := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSuppressRequestLog(r.Method, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		logged.ServeHTTP(w, r)
	})
}

func shouldSuppressRequestLog(method string, path string) bool {
	cleanPath := strings.TrimSpace(path)
	if method == http.MethodGet && (cleanPath == "/health" || cleanPath == "/ready") {
		return true
	}
	return method == http.MethodOptions
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type subsystemStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status     string                     `json:"status"`
	Subsystems map[string]subsystemStatus `json:"subsystems"`
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	subsystems := map[string]subsystemStatus{}
	overall := http.StatusOK

	if _, err := s.store.ListNotes(ctx, "readiness-probe"); err != nil {
		subsystems["store"] = subsystemStatus{Status: "error", Error: err.Error()}
		overall = http.StatusServiceUnavailable
	} else {
		subsystems["store"] = subsystemStatus{Status: "ok"}
	}

	if s.cfg.OpenAIAPIKey == "" {
		subsystems["llm"] = subsystemStatus{Status: "error", Error: "api key not configured"}
		overall = http.StatusServiceUnavailable
	} else {
		subsystems["llm"] = subsystemStatus{Status: "ok"}
	}

	status := "ok"
	if overall != http.StatusOK {
		status = "degraded"
	}
	writeJSONStatus(w, readinessResponse{Status: status, Subsystems: subsystems}, overall)
}

// ensureLLMConfigured gates every model-backed route: a missing key fails
// fast instead of surfacing as an upstream 401 mid-request.
func (s *Server) ensureLLMConfigured(w http.ResponseWriter) bool {
	if s.cfg.OpenAIAPIKey == "" {
		writeError(w, "OpenAI API key niet geconfigureerd", http.StatusInternalServerError)
		return false
	}
	return true
}

// authenticate resolves the caller or writes the 401 itself.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := s.auth.Authenticate(r)
	if !ok {
		writeError(w, "Niet ingelogd", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, value any) {
	writeJSONStatus(w, value, http.StatusOK)
}

func writeJSONStatus(w http.ResponseWriter, value any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONStatus(w, map[string]string{"error": message}, statusCode)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Start(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()
	return server.ListenAndServe()
}
