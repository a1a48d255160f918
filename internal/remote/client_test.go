package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "github.com/agbru/pdcbench/internal/errors"
	"github.com/agbru/pdcbench/internal/experiment"
)

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/api", WithMediaURL(srv.URL+"/media/"), WithTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestUploadBatch(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	var gotNames []string
	var gotContent []string
	var requestID string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/batches/upload/" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		requestID = r.Header.Get(RequestIDHeader)
		for _, fh := range r.MultipartForm.File["files"] {
			gotNames = append(gotNames, fh.Filename)
			f, _ := fh.Open()
			b, _ := io.ReadAll(f)
			f.Close()
			gotContent = append(gotContent, string(b))
		}
		mu.Unlock()
		writeJSON(w, http.StatusCreated, `{"id":12,"name":"Batch 2 files","created_at":"2025-03-01T10:00:00.123456Z",
			"files":[{"id":1,"file":"http://x/media/uploads/a.wav","original_name":"a.wav","file_size_bytes":3},
			         {"id":2,"file":"http://x/media/uploads/b.wav","original_name":"b.wav","file_size_bytes":4}]}`)
	})
	c := newTestClient(t, h)

	batch, err := c.UploadBatch(context.Background(), []experiment.UploadFile{
		{Name: "a.wav", Content: []byte("aaa")},
		{Name: "b.wav", Content: []byte("bbbb")},
	})
	if err != nil {
		t.Fatalf("UploadBatch() error = %v", err)
	}
	if batch.ID != "12" || batch.Name != "Batch 2 files" || len(batch.Files) != 2 {
		t.Fatalf("batch = %+v", batch)
	}
	if batch.Files[1].Name != "b.wav" || batch.Files[1].SizeBytes != 4 || batch.Files[1].ID != "2" {
		t.Errorf("file = %+v", batch.Files[1])
	}

	mu.Lock()
	defer mu.Unlock()
	if strings.Join(gotNames, ",") != "a.wav,b.wav" || strings.Join(gotContent, ",") != "aaa,bbbb" {
		t.Errorf("server received %v / %v", gotNames, gotContent)
	}
	if requestID == "" {
		t.Error("request id header missing")
	}
}

func TestUploadBatch_ServiceError(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"error":"No files provided"}`)
	}))
	_, err := c.UploadBatch(context.Background(), []experiment.UploadFile{{Name: "a.wav", Content: []byte("a")}})
	var uploadErr apperrors.UploadError
	var apiErr apperrors.APIError
	if !errors.As(err, &uploadErr) || !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want UploadError wrapping APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || !strings.Contains(apiErr.Body, "No files provided") {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestStartExperiment(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		batchID experiment.ID
		wantRaw string
	}{
		{"numeric id sent as number", "12", `12`},
		{"opaque id sent as string", "b-7", `"b-7"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			bodies := make(chan map[string]json.RawMessage, 1)
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/api/experiments/start/" {
					http.NotFound(w, r)
					return
				}
				var body map[string]json.RawMessage
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				bodies <- body
				writeJSON(w, http.StatusCreated, `{"id":33,"mode":"PARALLEL","status":"PROCESSING","results":[]}`)
			}))
			id, err := c.StartExperiment(context.Background(), tt.batchID, experiment.ModeParallel)
			if err != nil || id != "33" {
				t.Fatalf("StartExperiment() = %q, %v", id, err)
			}
			body := <-bodies
			if string(body["batch_id"]) != tt.wantRaw || string(body["mode"]) != `"PARALLEL"` {
				t.Errorf("request body = %s / %s", body["batch_id"], body["mode"])
			}
		})
	}
}

func TestStartExperiment_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"batch not found", http.StatusNotFound, `{"error":"Batch not found"}`},
		{"server error", http.StatusInternalServerError, `oops`},
		{"missing id", http.StatusCreated, `{"mode":"SERIAL"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}))
			if _, err := c.StartExperiment(context.Background(), "1", experiment.ModeSerial); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestGetExperimentStatus(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/experiments/5/":
			writeJSON(w, http.StatusOK, `{"id":5,"mode":"SERIAL","status":"PROCESSING","duration_seconds":null,"cpu_cores_used":1,"results":[]}`)
		case "/api/experiments/6/":
			writeJSON(w, http.StatusOK, `{"id":6,"mode":"PARALLEL","status":"COMPLETED","duration_seconds":2.5,"cpu_cores_used":8,
				"results":[{"id":1,"processed_file":"processed/parallel_a.wav","spectrogram_path":"spectrograms/a.png","processing_time_ms":812.5}]}`)
		case "/api/experiments/7/":
			writeJSON(w, http.StatusOK, `{"id":7,"status":"EXPLODED"}`)
		default:
			writeJSON(w, http.StatusNotFound, `{"detail":"Not found."}`)
		}
	}))
	ctx := context.Background()

	r, err := c.GetExperimentStatus(ctx, "5")
	if err != nil || r.Status != experiment.StatusProcessing || r.DurationSeconds != nil {
		t.Errorf("PROCESSING report = %+v, %v", r, err)
	}

	r, err = c.GetExperimentStatus(ctx, "6")
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != experiment.StatusCompleted || r.DurationSeconds == nil || *r.DurationSeconds != 2.5 || r.CPUCoresUsed != 8 {
		t.Errorf("COMPLETED report = %+v", r)
	}
	if len(r.Results) != 1 || r.Results[0].SpectrogramPath != "spectrograms/a.png" || r.Results[0].ProcessingTimeMS != 812.5 {
		t.Errorf("results = %+v", r.Results)
	}

	if _, err := c.GetExperimentStatus(ctx, "7"); err == nil {
		t.Error("unknown status should be rejected")
	}
	var apiErr apperrors.APIError
	if _, err := c.GetExperimentStatus(ctx, "404"); !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("missing experiment error = %v", err)
	}
}

func TestGetExperimentStatus_ContextCanceled(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.GetExperimentStatus(ctx, "1"); err == nil {
		t.Error("expected an error once the context expired")
	}
}

func TestDownload(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/media/processed/a.wav" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "audio/wav")
		io.WriteString(w, "RIFF....WAVE")
	}))
	var buf bytes.Buffer
	n, err := c.Download(context.Background(), "processed/a.wav", &buf)
	if err != nil || n != 12 || buf.String() != "RIFF....WAVE" {
		t.Errorf("Download() = %d, %v, %q", n, err, buf.String())
	}
	if _, err := c.Download(context.Background(), "processed/missing.wav", io.Discard); err == nil {
		t.Error("missing artifact should fail")
	}
}

func TestResolveArtifact(t *testing.T) {
	t.Parallel()
	media, _ := url.Parse("http://127.0.0.1:8000/media/")
	tests := []struct {
		path string
		want string
	}{
		{"processed/a.wav", "http://127.0.0.1:8000/media/processed/a.wav"},
		{"/media/spectrograms/a.png", "http://127.0.0.1:8000/media/spectrograms/a.png"},
		{"https://cdn.example.com/a.wav", "https://cdn.example.com/a.wav"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ResolveArtifact(media, tt.path); got != tt.want {
			t.Errorf("ResolveArtifact(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestNewClient_InvalidURL(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "ftp://host/api", "http://", "::bad"} {
		_, err := NewClient(raw)
		var configErr apperrors.ConfigError
		if !errors.As(err, &configErr) {
			t.Errorf("NewClient(%q) error = %v, want ConfigError", raw, err)
		}
	}
	if _, err := NewClient(DefaultBaseURL, WithMediaURL("nope")); err == nil {
		t.Error("invalid media URL should be rejected")
	}
	c, err := NewClient(DefaultBaseURL)
	if err != nil || c.BaseURL() != DefaultBaseURL+"/" {
		t.Errorf("NewClient(default) = %v, %v", c, err)
	}
}

// The service's JSON is decoded even when the response is unlabelled or
// labelled with another type by a proxy.
func TestClient_DecodesUnlabelledJSON(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		contentType string
	}{
		{"no header", ""},
		{"text/html", "text/html; charset=utf-8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			write := func(w http.ResponseWriter, status int, body string) {
				if tt.contentType != "" {
					w.Header().Set("Content-Type", tt.contentType)
				}
				w.WriteHeader(status)
				io.WriteString(w, body)
			}
			mux := http.NewServeMux()
			mux.HandleFunc("POST /api/batches/upload/", func(w http.ResponseWriter, r *http.Request) {
				write(w, http.StatusCreated, `{"id":5,"files":[{"id":1,"original_name":"a.wav"}]}`)
			})
			mux.HandleFunc("POST /api/experiments/start/", func(w http.ResponseWriter, r *http.Request) {
				write(w, http.StatusCreated, `{"id":9,"status":"PROCESSING"}`)
			})
			mux.HandleFunc("GET /api/experiments/{id}/", func(w http.ResponseWriter, r *http.Request) {
				write(w, http.StatusOK, `{"id":9,"status":"COMPLETED","duration_seconds":1.5}`)
			})
			c := newTestClient(t, mux)
			ctx := context.Background()

			batch, err := c.UploadBatch(ctx, []experiment.UploadFile{{Name: "a.wav", Content: []byte("a")}})
			if err != nil || batch.ID != "5" || len(batch.Files) != 1 {
				t.Fatalf("UploadBatch() = %+v, %v", batch, err)
			}
			id, err := c.StartExperiment(ctx, batch.ID, experiment.ModeSerial)
			if err != nil || id != "9" {
				t.Fatalf("StartExperiment() = %q, %v", id, err)
			}
			report, err := c.GetExperimentStatus(ctx, id)
			if err != nil {
				t.Fatalf("GetExperimentStatus() error = %v", err)
			}
			if report.Status != experiment.StatusCompleted || report.DurationSeconds == nil || *report.DurationSeconds != 1.5 {
				t.Errorf("report = %+v", report)
			}
		})
	}
}
