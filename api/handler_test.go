package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/samuelizer/api"
	"github.com/kbukum/samuelizer/backend"
	"github.com/kbukum/samuelizer/cache"
	"github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/fingerprint"
	"github.com/kbukum/samuelizer/llm"
	"github.com/kbukum/samuelizer/orchestrator"
	"github.com/kbukum/samuelizer/templates"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeTranscriber struct {
	mu   sync.Mutex
	reqs []orchestrator.TranscriptionRequest
	seen []byte
	err  error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, req orchestrator.TranscriptionRequest) (*orchestrator.TranscriptionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	data, err := os.ReadFile(req.AudioPath)
	if err != nil {
		return nil, err
	}
	f.seen = data
	return &orchestrator.TranscriptionResult{Text: "hello world", Fingerprint: fingerprint.Fingerprint(strings.Repeat("a", 64)), Provider: "openai", Model: "whisper-1"}, nil
}

type fakeAnalyzer struct {
	req orchestrator.AnalysisRequest
	err error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req orchestrator.AnalysisRequest) (*orchestrator.AnalysisResult, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &orchestrator.AnalysisResult{
		Template: "summary",
		Sections: map[string]string{"summary": "short"},
		Order:    []string{"summary"},
		Chunks:   1,
	}, nil
}

type env struct {
	router *gin.Engine
	tr     *fakeTranscriber
	an     *fakeAnalyzer
	store  *cache.FileStore
}

func newEnv(t *testing.T, withCache bool) *env {
	t.Helper()
	reg := backend.NewRegistry()
	err := reg.Register(backend.Registration{
		Descriptor: backend.Descriptor{
			Name:          "cloud",
			Mode:          backend.ModeRemote,
			Capabilities:  []backend.Capability{backend.Analysis},
			DefaultModels: map[backend.Capability]string{backend.Analysis: "llm-1"},
		},
		Analysis: func(backend.Config) (llm.Provider, error) { return nil, nil },
	})
	if err != nil {
		t.Fatal(err)
	}
	e := &env{tr: &fakeTranscriber{}, an: &fakeAnalyzer{}}
	deps := api.Deps{
		Transcriber: e.tr,
		Analyzer:    e.an,
		Providers:   reg,
		Templates:   templates.NewRegistry(),
		UploadDir:   t.TempDir(),
	}
	if withCache {
		store, err := cache.NewFileStore(t.TempDir(), nil)
		if err != nil {
			t.Fatal(err)
		}
		e.store = store
		deps.Cache = store
	}
	e.router = gin.New()
	api.New(deps).Register(e.router)
	return e
}

func (e *env) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func upload(t *testing.T, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/transcriptions", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errors.ErrorBody {
	t.Helper()
	var resp errors.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rr.Body.String(), err)
	}
	return resp.Error
}

func TestTranscribe_Upload(t *testing.T) {
	e := newEnv(t, true)
	audio := []byte("ID3\x04\x00\x00\x00\x00\x00\x00payload")
	rr := e.do(upload(t, "standup.mp3", audio, map[string]string{
		"provider":    "openai",
		"language":    "en",
		"diarization": "true",
	}))

	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Data orchestrator.TranscriptionResult `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Text != "hello world" {
		t.Errorf("text = %q", resp.Data.Text)
	}
	if len(e.tr.reqs) != 1 {
		t.Fatalf("transcriber called %d times", len(e.tr.reqs))
	}
	req := e.tr.reqs[0]
	if req.Provider != "openai" || req.Language != "en" || !req.Diarization || !req.UseCache {
		t.Errorf("unexpected request %+v", req)
	}
	if !strings.HasSuffix(req.AudioPath, ".mp3") {
		t.Errorf("upload must keep its extension: %s", req.AudioPath)
	}
	if !bytes.Equal(e.tr.seen, audio) {
		t.Error("transcriber saw different bytes than uploaded")
	}
	if _, err := os.Stat(req.AudioPath); !os.IsNotExist(err) {
		t.Errorf("upload not removed after the request: %v", err)
	}
}

func TestTranscribe_UseCacheFalse(t *testing.T) {
	e := newEnv(t, true)
	rr := e.do(upload(t, "a.wav", []byte("RIFF"), map[string]string{"use_cache": "false"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	if e.tr.reqs[0].UseCache {
		t.Error("use_cache=false must disable cache lookup")
	}
}

func TestTranscribe_RejectsTextUpload(t *testing.T) {
	e := newEnv(t, true)
	rr := e.do(upload(t, "notes.txt", []byte("hi"), nil))
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status %d, want 415", rr.Code)
	}
	if body := decodeError(t, rr); body.Code != errors.ErrCodeUnsupportedFormat {
		t.Errorf("code = %s", body.Code)
	}
	if len(e.tr.reqs) != 0 {
		t.Error("transcriber must not be called")
	}
}

func TestTranscribe_MissingFile(t *testing.T) {
	e := newEnv(t, true)
	rr := e.do(upload(t, "", nil, map[string]string{"provider": "openai"}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rr.Code)
	}
}

func TestTranscribe_InvalidMode(t *testing.T) {
	e := newEnv(t, true)
	rr := e.do(upload(t, "a.mp3", []byte("ID3"), map[string]string{"mode": "hybrid"}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rr.Code)
	}
	if body := decodeError(t, rr); body.Code != errors.ErrCodeInvalidInput {
		t.Errorf("code = %s", body.Code)
	}
}

func TestTranscribe_ErrorStatusFollowsKind(t *testing.T) {
	e := newEnv(t, true)
	e.tr.err = errors.ModelNotAvailable("local", "large-v3")
	rr := e.do(upload(t, "a.mp3", []byte("ID3"), nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rr.Code)
	}
	body := decodeError(t, rr)
	if body.Code != errors.ErrCodeModelNotAvailable || body.Stage != errors.StageResolution {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestAnalyze(t *testing.T) {
	e := newEnv(t, false)
	req := httptest.NewRequest(http.MethodPost, "/v1/analyses", strings.NewReader(`{"text":"we agreed to ship","template":"action_items","mode":"remote"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := e.do(req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	if e.an.req.Template != "action_items" || e.an.req.Mode != backend.ModeRemote {
		t.Errorf("unexpected request %+v", e.an.req)
	}
}

func TestAnalyze_RequiresText(t *testing.T) {
	e := newEnv(t, false)
	req := httptest.NewRequest(http.MethodPost, "/v1/analyses", strings.NewReader(`{"template":"summary"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := e.do(req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rr.Code)
	}
	if body := decodeError(t, rr); body.Details["field"] != "text" {
		t.Errorf("details = %v", body.Details)
	}
}

func TestAnalyze_Failure(t *testing.T) {
	e := newEnv(t, false)
	e.an.err = errors.AnalysisFailed("openai", context.DeadlineExceeded)
	req := httptest.NewRequest(http.MethodPost, "/v1/analyses", strings.NewReader(`{"text":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	if rr := e.do(req); rr.Code != http.StatusBadGateway {
		t.Fatalf("status %d, want 502", rr.Code)
	}
}

func TestProvidersAndTemplates(t *testing.T) {
	e := newEnv(t, false)

	rr := e.do(httptest.NewRequest(http.MethodGet, "/v1/providers", http.NoBody))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"name":"cloud"`) {
		t.Fatalf("providers: %d %s", rr.Code, rr.Body.String())
	}

	rr = e.do(httptest.NewRequest(http.MethodGet, "/v1/templates", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("templates: %d", rr.Code)
	}
	var resp struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, d := range resp.Data {
		names[d.Name] = true
	}
	if !names["default"] || !names["summary"] || names["classify"] || names["chunk"] {
		t.Errorf("unexpected template list %v", names)
	}
}

func TestCacheRoutes(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()
	fpA := fingerprint.Fingerprint(strings.Repeat("a", 64))
	fpB := fingerprint.Fingerprint(strings.Repeat("b", 64))
	for _, fp := range []fingerprint.Fingerprint{fpA, fpB} {
		if err := e.store.Put(ctx, fp, "text"); err != nil {
			t.Fatal(err)
		}
	}

	rr := e.do(httptest.NewRequest(http.MethodGet, "/v1/cache", http.NoBody))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"entries":2`) {
		t.Fatalf("stats: %d %s", rr.Code, rr.Body.String())
	}

	rr = e.do(httptest.NewRequest(http.MethodDelete, "/v1/cache/"+string(fpA), http.NoBody))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("invalidate: %d", rr.Code)
	}
	if ok, _ := e.store.Has(ctx, fpA); ok {
		t.Error("entry a still present")
	}
	if ok, _ := e.store.Has(ctx, fpB); !ok {
		t.Error("entry b removed by single invalidate")
	}

	rr = e.do(httptest.NewRequest(http.MethodDelete, "/v1/cache/not-a-fingerprint", http.NoBody))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad fingerprint: %d", rr.Code)
	}

	rr = e.do(httptest.NewRequest(http.MethodDelete, "/v1/cache", http.NoBody))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("clear: %d", rr.Code)
	}
	if st, _ := e.store.Stats(ctx); st.Entries != 0 {
		t.Errorf("entries after clear = %d", st.Entries)
	}
}

func TestCacheRoutes_Disabled(t *testing.T) {
	e := newEnv(t, false)
	rr := e.do(httptest.NewRequest(http.MethodDelete, "/v1/cache", http.NoBody))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rr.Code)
	}
}
