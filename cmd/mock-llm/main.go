// Package main implements a mock text-generation server for offline testing
// of tbot-writer. It speaks the three wire protocols the adapters use:
//
//   - managed API: POST /v1/chat/completions and POST /v1/completions
//   - local daemon: POST /api/generate and GET /api/tags
//   - hosted inference: POST /models/{owner}/{name}
//
// Responses come from text fixture files routed by model id.
//
// Usage:
//
//	mock-llm -fixtures /path/to/fixtures -port 11434
//
// Fixture files are named by model with "/" replaced by "__"
// (e.g. "gpt2.txt", "microsoft__DialoGPT-medium.txt"). The file content is
// returned as the continuation.
//
// Sequential fixtures: if numbered files exist (e.g. "llama2.1.txt",
// "llama2.2.txt"), the Nth call to that model returns the Nth fixture. After
// exhausting numbered fixtures, the base "llama2.txt" is repeated.
// A model with no fixture falls back to "default.txt" when present.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const fallbackModel = "default"

// --- Managed API types ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   usage        `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type completionRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type completionResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []completionChoice `json:"choices"`
	Usage   usage              `json:"usage"`
}

type completionChoice struct {
	Index        int    `json:"index"`
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// --- Local daemon types ---

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// --- Hosted inference types ---

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

type inferenceResult struct {
	GeneratedText string `json:"generated_text"`
}

// --- Server ---

// capturedRequest stores the key fields of an incoming request for test verification.
type capturedRequest struct {
	Protocol  string `json:"protocol"`
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	CallIndex int    `json:"call_index"` // 1-indexed per-model call number
	Timestamp int64  `json:"timestamp"`
}

type server struct {
	fixtures map[string][]string // model id → ordered fixture contents (sequential)
	calls    atomic.Int64        // total calls served

	// Per-model call counters for sequential fixture selection.
	modelCalls   map[string]*atomic.Int64
	modelCallsMu sync.Mutex // protects lazy init of modelCalls entries

	// Per-model request capture for prompt verification.
	modelRequests   map[string][]capturedRequest
	modelRequestsMu sync.Mutex
}

func newServer(fixtures map[string][]string) *server {
	return &server{
		fixtures:      fixtures,
		modelCalls:    make(map[string]*atomic.Int64),
		modelRequests: make(map[string][]capturedRequest),
	}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/chat/completions", s.handleChatCompletions)
	mux.HandleFunc("/v1/completions", s.handleCompletions)
	mux.HandleFunc("/api/generate", s.handleGenerate)
	mux.HandleFunc("/api/tags", s.handleTags)
	mux.HandleFunc("/models/", s.handleInference)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/requests", s.handleRequests)
	return mux
}

func main() {
	fixtureDir := flag.String("fixtures", "", "directory containing fixture text files")
	port := flag.Int("port", 11434, "port to listen on")
	flag.Parse()

	// Allow env var override
	if envDir := os.Getenv("MOCK_LLM_FIXTURES"); envDir != "" && *fixtureDir == "" {
		*fixtureDir = envDir
	}
	if *fixtureDir == "" {
		*fixtureDir = "/fixtures"
	}

	fixtures, err := loadFixtures(*fixtureDir)
	if err != nil {
		log.Fatalf("Failed to load fixtures from %s: %v", *fixtureDir, err)
	}
	log.Printf("Loaded %d model(s) from %s", len(fixtures), *fixtureDir)
	for model, seq := range fixtures {
		log.Printf("  model: %s (%d fixture(s))", model, len(seq))
	}

	s := newServer(fixtures)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Mock LLM server listening on %s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// next returns the fixture for the model's next call and records the request.
// It returns false when no fixture matches.
func (s *server) next(protocol, model, prompt string) (string, bool) {
	callNum := s.calls.Add(1)

	seq, ok := s.fixtures[model]
	if !ok {
		seq, ok = s.fixtures[fallbackModel]
	}
	if !ok {
		log.Printf("[call %d] WARNING: no fixture for model=%q", callNum, model)
		return "", false
	}

	// Select fixture from sequence based on per-model call count
	counter := s.getModelCounter(model)
	callIndex := int(counter.Add(1) - 1) // 0-indexed

	s.captureRequest(capturedRequest{
		Protocol:  protocol,
		Model:     model,
		Prompt:    prompt,
		CallIndex: callIndex + 1,
		Timestamp: time.Now().UnixMilli(),
	})

	content := seq[len(seq)-1] // repeat last fixture
	if callIndex < len(seq) {
		content = seq[callIndex]
	}

	log.Printf("[call %d] %s model=%s call_index=%d/%d prompt_chars=%d",
		callNum, protocol, model, callIndex+1, len(seq), len(prompt))
	return content, true
}

// captureRequest stores a request for later retrieval via /requests endpoint.
func (s *server) captureRequest(req capturedRequest) {
	s.modelRequestsMu.Lock()
	defer s.modelRequestsMu.Unlock()
	s.modelRequests[req.Model] = append(s.modelRequests[req.Model], req)
}

// getModelCounter returns the call counter for a model, creating it lazily.
func (s *server) getModelCounter(model string) *atomic.Int64 {
	s.modelCallsMu.Lock()
	defer s.modelCallsMu.Unlock()
	if c, ok := s.modelCalls[model]; ok {
		return c
	}
	c := &atomic.Int64{}
	s.modelCalls[model] = c
	return c
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodePost(w, r, &req) {
		return
	}

	var prompt string
	for _, m := range req.Messages {
		if m.Role == "user" {
			prompt = m.Content
		}
	}

	content, ok := s.next("chat", req.Model, prompt)
	if !ok {
		http.Error(w, fmt.Sprintf("no fixture for model %q", req.Model), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		ID:      fmt.Sprintf("mock-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []chatChoice{{
			Message:      chatMessage{Role: "assistant", Content: content},
			FinishReason: "stop",
		}},
		Usage: estimateUsage(prompt, content),
	})
}

func (s *server) handleCompletions(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if !decodePost(w, r, &req) {
		return
	}

	content, ok := s.next("completion", req.Model, req.Prompt)
	if !ok {
		http.Error(w, fmt.Sprintf("no fixture for model %q", req.Model), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, completionResponse{
		ID:      fmt.Sprintf("mock-%d", time.Now().UnixNano()),
		Object:  "text_completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []completionChoice{{Text: content, FinishReason: "stop"}},
		Usage:   estimateUsage(req.Prompt, content),
	})
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodePost(w, r, &req) {
		return
	}

	content, ok := s.next("generate", req.Model, req.Prompt)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": fmt.Sprintf("model %q not found, try pulling it first", req.Model),
		})
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{Model: req.Model, Response: content, Done: true})
}

// handleTags lists fixture models the way the local daemon lists installed models.
func (s *server) handleTags(w http.ResponseWriter, _ *http.Request) {
	type tag struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	}
	models := []tag{}
	for _, name := range s.modelNames() {
		if name == fallbackModel || strings.Contains(name, "/") {
			continue
		}
		models = append(models, tag{Name: name + ":latest", Model: name + ":latest"})
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

func (s *server) handleInference(w http.ResponseWriter, r *http.Request) {
	model := strings.TrimPrefix(r.URL.Path, "/models/")
	if model == "" {
		http.NotFound(w, r)
		return
	}

	var req inferenceRequest
	if !decodePost(w, r, &req) {
		return
	}

	content, ok := s.next("inference", model, req.Inputs)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": fmt.Sprintf("Model %s does not exist", model),
		})
		return
	}

	writeJSON(w, http.StatusOK, []inferenceResult{{GeneratedText: content}})
}

// handleStats returns call counts for test assertions.
// Returns total_calls and per-model calls_by_model breakdown.
func (s *server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.modelCallsMu.Lock()
	callsByModel := make(map[string]int64, len(s.modelCalls))
	for model, counter := range s.modelCalls {
		callsByModel[model] = counter.Load()
	}
	s.modelCallsMu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"total_calls":    s.calls.Load(),
		"calls_by_model": callsByModel,
	})
}

// handleRequests returns captured requests for test assertions.
// Query params:
//   - model: filter by model id (optional, returns all models if omitted)
//   - call: filter by call index, 1-indexed (optional)
//
// Returns {"requests_by_model": {"llama2": [...], ...}}
func (s *server) handleRequests(w http.ResponseWriter, r *http.Request) {
	modelFilter := r.URL.Query().Get("model")
	callIdx, callErr := strconv.Atoi(r.URL.Query().Get("call"))

	s.modelRequestsMu.Lock()
	result := make(map[string][]capturedRequest)
	for model, reqs := range s.modelRequests {
		if modelFilter != "" && model != modelFilter {
			continue
		}
		if callErr != nil {
			result[model] = reqs
			continue
		}
		for _, req := range reqs {
			if req.CallIndex == callIdx {
				result[model] = append(result[model], req)
			}
		}
	}
	s.modelRequestsMu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"requests_by_model": result,
	})
}

func (s *server) modelNames() []string {
	names := make([]string, 0, len(s.fixtures))
	for name := range s.fixtures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func decodePost(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// estimateUsage gives a rough token count of four characters per token.
func estimateUsage(prompt, content string) usage {
	p, c := len(prompt)/4, len(content)/4
	return usage{PromptTokens: p, CompletionTokens: c, TotalTokens: p + c}
}

// numberedFileRe matches files like "llama2.1.txt", "gpt-4.2.txt".
var numberedFileRe = regexp.MustCompile(`^(.+)\.(\d+)\.txt$`)

// modelFromFile maps a fixture file name stem to a model id.
func modelFromFile(stem string) string {
	return strings.ReplaceAll(stem, "__", "/")
}

// loadFixtures reads text files from dir and returns a map of model→content sequence.
//
// For each model, fixtures are ordered:
//  1. Numbered files (model.1.txt, model.2.txt, ...) in numeric order
//  2. Base file (model.txt) appended as the final fallback
func loadFixtures(dir string) (map[string][]string, error) {
	baseFiles := make(map[string]string)             // model → content
	numberedFiles := make(map[string]map[int]string) // model → {index → content}

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".txt") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		content := strings.TrimSpace(string(data))
		if content == "" {
			return fmt.Errorf("empty fixture %s", path)
		}

		if matches := numberedFileRe.FindStringSubmatch(info.Name()); matches != nil {
			model := modelFromFile(matches[1])
			index, _ := strconv.Atoi(matches[2])
			if numberedFiles[model] == nil {
				numberedFiles[model] = make(map[int]string)
			}
			numberedFiles[model][index] = content
			return nil
		}

		baseFiles[modelFromFile(strings.TrimSuffix(info.Name(), ".txt"))] = content
		return nil
	})
	if err != nil {
		return nil, err
	}

	allModels := make(map[string]bool)
	for m := range baseFiles {
		allModels[m] = true
	}
	for m := range numberedFiles {
		allModels[m] = true
	}

	fixtures := make(map[string][]string)
	for model := range allModels {
		var seq []string

		if numbered, ok := numberedFiles[model]; ok {
			indices := make([]int, 0, len(numbered))
			for idx := range numbered {
				indices = append(indices, idx)
			}
			sort.Ints(indices)

			for _, idx := range indices {
				seq = append(seq, numbered[idx])
			}
		}

		if base, ok := baseFiles[model]; ok {
			seq = append(seq, base)
		}

		if len(seq) > 0 {
			fixtures[model] = seq
		}
	}

	if len(fixtures) == 0 {
		return nil, fmt.Errorf("no fixture files found in %s", dir)
	}

	return fixtures, nil
}
