// Package remote is the HTTP client of the audio processing service. It
// implements orchestration.Service on top of resty and traces every call
// with OpenTelemetry.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"resty.dev/v3"

	apperrors "github.com/agbru/pdcbench/internal/errors"
	"github.com/agbru/pdcbench/internal/experiment"
	"github.com/agbru/pdcbench/internal/logging"
)

const (
	// DefaultBaseURL is the API root of a locally running service.
	DefaultBaseURL = "http://127.0.0.1:8000/api"
	// DefaultMediaURL is where the service serves uploaded and processed files.
	DefaultMediaURL = "http://127.0.0.1:8000/media/"
	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 30 * time.Second

	// RequestIDHeader carries the per-request correlation id.
	RequestIDHeader = "X-Request-ID"

	tracerName = "github.com/agbru/pdcbench/internal/remote"
	maxBodyLog = 512
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMediaURL sets the base URL artifacts are resolved against.
func WithMediaURL(u string) Option {
	return func(c *Client) { c.mediaRaw = u }
}

// WithLogger sets the client logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// Client talks to the processing service.
type Client struct {
	http     *resty.Client
	base     *url.URL
	media    *url.URL
	mediaRaw string
	timeout  time.Duration
	logger   logging.Logger
	tracer   trace.Tracer
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBase(baseURL)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid server URL %q: %v", baseURL, err)
	}
	c := &Client{
		base:     base,
		mediaRaw: DefaultMediaURL,
		timeout:  DefaultTimeout,
		logger:   logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.media, err = parseBase(c.mediaRaw); err != nil {
		return nil, apperrors.NewConfigError("invalid media URL %q: %v", c.mediaRaw, err)
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	c.http = resty.New().
		SetBaseURL(strings.TrimSuffix(base.String(), "/")).
		SetTimeout(c.timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "pdcbench")
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.base.String() }

// UploadBatch posts files as one multipart request with a repeated "files"
// field. The service answers with the created batch.
func (c *Client) UploadBatch(ctx context.Context, files []experiment.UploadFile) (experiment.Batch, error) {
	ctx, span := c.tracer.Start(ctx, "remote.UploadBatch", trace.WithAttributes(attribute.Int("files", len(files))))
	defer span.End()

	req := c.request(ctx)
	var size int
	for _, f := range files {
		req.SetFileReader("files", f.Name, bytes.NewReader(f.Content))
		size += len(f.Content)
	}
	var batch experiment.Batch
	resp, err := req.SetResult(&batch).Post("/batches/upload/")
	if err = c.check(span, resp, err); err != nil {
		return experiment.Batch{}, apperrors.UploadError{Files: len(files), Cause: err}
	}
	span.SetAttributes(attribute.String("batch_id", string(batch.ID)))
	c.logger.Debug("batch uploaded",
		logging.String("batch_id", string(batch.ID)),
		logging.Int("files", len(files)),
		logging.Int("bytes", size))
	return batch, nil
}

// startRequest is the body of POST /experiments/start/.
type startRequest struct {
	BatchID any    `json:"batch_id"`
	Mode    string `json:"mode"`
}

// StartExperiment asks the service to process batchID in mode.
func (c *Client) StartExperiment(ctx context.Context, batchID experiment.ID, mode experiment.Mode) (experiment.ID, error) {
	ctx, span := c.tracer.Start(ctx, "remote.StartExperiment", trace.WithAttributes(
		attribute.String("batch_id", string(batchID)),
		attribute.String("mode", string(mode))))
	defer span.End()

	var created struct {
		ID experiment.ID `json:"id"`
	}
	resp, err := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(startRequest{BatchID: wireID(batchID), Mode: string(mode)}).
		SetResult(&created).
		Post("/experiments/start/")
	if err = c.check(span, resp, err); err != nil {
		return "", err
	}
	if created.ID == "" {
		err = fmt.Errorf("start response carried no experiment id")
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.String("experiment_id", string(created.ID)))
	return created.ID, nil
}

// GetExperimentStatus performs one status query.
func (c *Client) GetExperimentStatus(ctx context.Context, id experiment.ID) (experiment.StatusReport, error) {
	ctx, span := c.tracer.Start(ctx, "remote.GetExperimentStatus", trace.WithAttributes(attribute.String("experiment_id", string(id))))
	defer span.End()

	var report experiment.StatusReport
	resp, err := c.request(ctx).
		SetResult(&report).
		Get("/experiments/" + url.PathEscape(string(id)) + "/")
	if err = c.check(span, resp, err); err != nil {
		return experiment.StatusReport{}, err
	}
	if !validStatus(report.Status) {
		err = fmt.Errorf("experiment %s: unknown status %q", id, report.Status)
		span.SetStatus(codes.Error, err.Error())
		return experiment.StatusReport{}, err
	}
	span.SetAttributes(attribute.String("status", string(report.Status)))
	return report, nil
}

// Download writes the artifact at path (relative to the media URL, or
// absolute) to w and returns the number of bytes written.
func (c *Client) Download(ctx context.Context, path string, w io.Writer) (int64, error) {
	target := c.ResolveArtifact(path)
	ctx, span := c.tracer.Start(ctx, "remote.Download", trace.WithAttributes(attribute.String("url", target)))
	defer span.End()

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, uuid.NewString()).
		SetHeader("Accept", "*/*").
		Get(target)
	if err = c.check(span, resp, err); err != nil {
		return 0, err
	}
	n, err := w.Write(resp.Bytes())
	if err != nil {
		span.RecordError(err)
		return int64(n), fmt.Errorf("write artifact: %w", err)
	}
	return int64(n), nil
}

// ResolveArtifact turns a processed file or spectrogram path into an
// absolute URL under the media base. Absolute URLs are returned unchanged.
func (c *Client) ResolveArtifact(path string) string {
	return ResolveArtifact(c.media, path)
}

// ResolveArtifact resolves path against media. Paths starting with "/" are
// resolved against the media host; others are appended to the media path.
func ResolveArtifact(media *url.URL, path string) string {
	if path == "" {
		return ""
	}
	ref, err := url.Parse(path)
	if err != nil || ref.IsAbs() {
		return path
	}
	return media.ResolveReference(ref).String()
}

// request starts an API call. Bodies are decoded as JSON whatever the
// Content-Type header says, since the service and proxies in front of it
// do not always label them.
func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, uuid.NewString()).
		SetForceResponseContentType("application/json")
}

// check converts a transport error or a non-2xx response into an error and
// records it on span.
func (c *Client) check(span trace.Span, resp *resty.Response, err error) error {
	if err == nil && resp != nil && resp.IsError() {
		body := strings.TrimSpace(resp.String())
		if len(body) > maxBodyLog {
			body = body[:maxBodyLog] + "..."
		}
		err = apperrors.APIError{StatusCode: resp.StatusCode(), Body: body}
	}
	if resp != nil {
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug("service request failed", logging.Err(err))
	}
	return err
}

func parseBase(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host")
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}

// wireID sends numeric ids as JSON numbers, as the service's primary keys
// are integers.
func wireID(id experiment.ID) any {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return n
	}
	return string(id)
}

func validStatus(s experiment.Status) bool {
	switch s {
	case experiment.StatusPending, experiment.StatusProcessing, experiment.StatusCompleted, experiment.StatusFailed:
		return true
	}
	return false
}
