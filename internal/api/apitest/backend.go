// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package apitest provides an in-process fake of the QA Assistant backend
// for tests of the api client and everything built on it.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jeranaias/qa-assistant/internal/model"
)

// AssistantPath is where the assistant endpoints are mounted.
const AssistantPath = "/api/qa-assistant"

// IndexedDocument is a document received on the admin index endpoint.
type IndexedDocument struct {
	Content  string `json:"content"`
	Category string `json:"category"`
	Source   string `json:"source"`
}

// Backend is a scriptable fake backend. The zero value is not usable; call
// New. All methods are safe for concurrent use.
type Backend struct {
	mu sync.Mutex

	answers  map[string]model.QueryResult
	fallback func(question string) model.QueryResult
	rawAsk   map[string]string

	ranking       string
	cacheStats    string
	frequency     map[int]string
	cacheContents string
	learning      string
	queries       map[string]string
	health        string

	failures map[string]int
	delay    time.Duration

	calls   map[string]int
	indexed []IndexedDocument
}

// New returns a backend with plausible default data.
func New() *Backend {
	return &Backend{
		answers: make(map[string]model.QueryResult),
		fallback: func(q string) model.QueryResult {
			return model.QueryResult{
				OriginalQuestion: q,
				Intent:           model.IntentRAG,
				Answer:           "Respuesta para: " + q,
				Success:          true,
			}
		},
		rawAsk:  make(map[string]string),
		ranking: DefaultRanking,
		cacheStats: `{"size":150,"oldestEntryAge":3600,"hitCount":90,"missCount":10,` +
			`"hitRate":0.9,"evictions":3}`,
		frequency: map[int]string{
			7: `{"¿Qué es Angular?":45,"¿Cómo usar RxJS?":32,"¿Qué es TypeScript?":28}`,
		},
		cacheContents: `[{"question":"¿Qué es Angular?","intent":"RAG","hits":45,"createdAt":"2024-05-01T10:00:00"}]`,
		learning: `{"totalQueries":120,"uniqueQueries":80,"queriesByIntent":{"SQL":70,"RAG":50},` +
			`"averageExecutionTime":850.5,"successRate":0.95}`,
		queries: map[string]string{
			"popular": `[{"question":"Listar todas las actividades","intent":"SQL","count":12,"lastAsked":"2024-05-01T10:00:00"}]`,
			"recent":  `[{"question":"¿Qué es Angular?","intent":"RAG","count":1,"lastAsked":"2024-05-02T09:30:00"}]`,
			"all":     `[{"question":"a","intent":"SQL","count":1},{"question":"b","intent":"RAG","count":2}]`,
		},
		health:   `{"status":"UP"}`,
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
}

// DefaultRanking is the ranking served unless SetRanking replaces it.
const DefaultRanking = `[
 {"aplicacion":{"nombre":"Portal","descripcion":"Portal de clientes"},"cobertura":72.5},
 {"aplicacion":{"nombre":"Pagos","descripcion":"Pasarela de pagos","equipoResponsable":"Core"},"cobertura":91},
 {"aplicacion":{"nombre":"Backoffice","descripcion":"Gestión interna"},"cobertura":40}
]`

// =============================================================================
// SCRIPTING
// =============================================================================

// SetAnswer fixes the answer returned for question.
func (b *Backend) SetAnswer(question string, res model.QueryResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.answers[question] = res
}

// SetRawAnswer makes ask-enhanced return body verbatim for question.
func (b *Backend) SetRawAnswer(question, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rawAsk[question] = body
}

// SetRanking replaces the ranking payload.
func (b *Backend) SetRanking(body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ranking = body
}

// SetHealth replaces the actuator health payload.
func (b *Backend) SetHealth(body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.health = body
}

// Fail makes every request to path answer with status. Status 0 clears it.
func (b *Backend) Fail(path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.failures, path)
		return
	}
	b.failures[path] = status
}

// SetDelay delays every response, for timeout tests.
func (b *Backend) SetDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delay = d
}

// Calls returns how many requests reached path.
func (b *Backend) Calls(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

// Indexed returns the documents received so far.
func (b *Backend) Indexed() []IndexedDocument {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]IndexedDocument(nil), b.indexed...)
}

// =============================================================================
// HTTP
// =============================================================================

// Start serves the backend on a local listener closed at test cleanup.
func (b *Backend) Start(t testing.TB) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(b.Router())
	t.Cleanup(srv.Close)
	return srv
}

// Router returns the backend routes.
func (b *Backend) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(b.track)

	r.Route(AssistantPath, func(r chi.Router) {
		r.Post("/ask-enhanced", b.handleAsk)
		r.Get("/ranking", b.serve(func() string { return b.ranking }))
		r.Get("/ranking-test", b.serve(func() string { return `"ok"` }))
		r.Post("/admin/index", b.handleIndex)
	})

	r.Route("/api/cache", func(r chi.Router) {
		r.Get("/stats", b.serve(func() string { return b.cacheStats }))
		r.Get("/frequency/{days}", b.handleFrequency)
		r.Get("/contents", b.serve(func() string { return b.cacheContents }))
		r.Post("/clear", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	r.Route("/api/learning", func(r chi.Router) {
		r.Get("/stats", b.serve(func() string { return b.learning }))
		r.Get("/queries/popular", b.serve(func() string { return b.queries["popular"] }))
		r.Get("/queries/recent", b.serve(func() string { return b.queries["recent"] }))
		r.Get("/queries/all", b.serve(func() string { return b.queries["all"] }))
		r.Get("/queries/intent/{intent}", b.handleByIntent)
	})

	r.Get("/actuator/health", b.serve(func() string { return b.health }))
	return r
}

// track counts calls, applies the delay and injected failures.
func (b *Backend) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[r.URL.Path]++
		status := b.failures[r.URL.Path]
		delay := b.delay
		b.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) serve(body func() string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		b.mu.Lock()
		payload := body()
		b.mu.Unlock()
		writeJSON(w, payload)
	}
}

func (b *Backend) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	raw, hasRaw := b.rawAsk[req.Question]
	res, ok := b.answers[req.Question]
	if !ok {
		res = b.fallback(req.Question)
	}
	b.mu.Unlock()

	if hasRaw {
		writeJSON(w, raw)
		return
	}
	out, _ := json.Marshal(res)
	writeJSON(w, string(out))
}

func (b *Backend) handleIndex(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var doc IndexedDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	b.indexed = append(b.indexed, doc)
	b.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain")
	_, _ = io.WriteString(w, "Documento indexado correctamente")
}

func (b *Backend) handleFrequency(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(chi.URLParam(r, "days"))
	if err != nil || days <= 0 {
		http.Error(w, "bad days", http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	payload, ok := b.frequency[days]
	b.mu.Unlock()
	if !ok {
		payload = "{}"
	}
	writeJSON(w, payload)
}

func (b *Backend) handleByIntent(w http.ResponseWriter, r *http.Request) {
	intent := strings.ToUpper(chi.URLParam(r, "intent"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	b.mu.Lock()
	all := b.queries["all"]
	b.mu.Unlock()

	var qs []model.LearnedQuery
	_ = json.Unmarshal([]byte(all), &qs)
	out := make([]model.LearnedQuery, 0, len(qs))
	for _, q := range qs {
		if strings.EqualFold(q.Intent, intent) && (limit <= 0 || len(out) < limit) {
			out = append(out, q)
		}
	}
	data, _ := json.Marshal(out)
	writeJSON(w, string(data))
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}
