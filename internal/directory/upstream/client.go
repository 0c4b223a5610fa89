package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"staffgate/internal/directory/metrics"
	"staffgate/internal/directory/models"
)

const (
	employeePath    = "/api/v1/employee"
	maxResponseSize = 10 << 20
)

var tracer = otel.Tracer("staffgate/upstream")

// Client talks to the upstream employee directory. Every method performs
// exactly one round trip and reports failures as *Error.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(c *Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout bounds each round trip.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithRateLimit throttles outbound calls to perSecond with the given burst.
// A non-positive rate leaves calls unthrottled.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New constructs a Client for the directory rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchAll returns every employee the upstream knows about. A response with
// no payload is an empty directory.
func (c *Client) FetchAll(ctx context.Context) ([]models.Employee, error) {
	env, err := c.do(ctx, OpFetchAll, http.MethodGet, employeePath, nil)
	if err != nil {
		return nil, err
	}
	if !env.hasData() {
		return []models.Employee{}, nil
	}
	var dtos []employeeDTO
	if err := json.Unmarshal(env.Data, &dtos); err != nil {
		return nil, newError(OpFetchAll, OutcomeTransport, http.StatusOK, fmt.Errorf("%w: %v", errMalformedReply, err))
	}
	employees := make([]models.Employee, 0, len(dtos))
	for _, d := range dtos {
		employees = append(employees, d.toEmployee())
	}
	return employees, nil
}

// FetchByID returns a single employee. An empty payload is reported as
// OutcomeNotFound.
func (c *Client) FetchByID(ctx context.Context, id uuid.UUID) (models.Employee, error) {
	env, err := c.do(ctx, OpFetchByID, http.MethodGet, employeePath+"/"+url.PathEscape(id.String()), nil)
	if err != nil {
		return models.Employee{}, err
	}
	return decodeEmployee(OpFetchByID, env, OutcomeNotFound)
}

// Create submits a new employee. The caller is expected to have validated
// input already.
func (c *Client) Create(ctx context.Context, input models.CreateEmployeeInput) (models.Employee, error) {
	env, err := c.do(ctx, OpCreate, http.MethodPost, employeePath, input)
	if err != nil {
		return models.Employee{}, err
	}
	return decodeEmployee(OpCreate, env, OutcomeTransport)
}

// DeleteByName removes the employee with the given name. The upstream keys
// deletes by name, not id.
func (c *Client) DeleteByName(ctx context.Context, name string) error {
	_, err := c.do(ctx, OpDelete, http.MethodDelete, employeePath, deleteRequest{Name: name})
	return err
}

func decodeEmployee(op Op, env envelope, whenEmpty Outcome) (models.Employee, error) {
	if !env.hasData() {
		return models.Employee{}, newError(op, whenEmpty, http.StatusOK, errEmptyPayload)
	}
	var dto employeeDTO
	if err := json.Unmarshal(env.Data, &dto); err != nil {
		return models.Employee{}, newError(op, OutcomeTransport, http.StatusOK, fmt.Errorf("%w: %v", errMalformedReply, err))
	}
	return dto.toEmployee(), nil
}

func (c *Client) do(ctx context.Context, op Op, method, path string, body any) (env envelope, err error) {
	ctx, span := tracer.Start(ctx, "upstream."+string(op),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("upstream.op", string(op)),
		),
	)
	start := time.Now()
	defer func() {
		outcome := Classify(err)
		c.metrics.ObserveUpstreamCall(string(op), string(outcome), time.Since(start))
		span.SetAttributes(attribute.String("upstream.outcome", string(outcome)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(outcome))
		}
		span.End()
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return envelope{}, newError(op, OutcomeTransport, 0, fmt.Errorf("outbound throttle: %w", err))
		}
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return envelope{}, newError(op, OutcomeTransport, 0, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return envelope{}, newError(op, OutcomeTransport, 0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return envelope{}, newError(op, OutcomeTransport, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if outcome := classifyStatus(resp.StatusCode); outcome != OutcomeSuccess {
		c.logger.DebugContext(ctx, "upstream call failed",
			"op", op,
			"status", resp.StatusCode,
			"outcome", outcome,
		)
		return envelope{}, newError(op, outcome, resp.StatusCode, nil)
	}

	// Delete replies carry nothing we use.
	if op == OpDelete {
		return envelope{}, nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return envelope{}, nil
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return envelope{}, newError(op, OutcomeTransport, resp.StatusCode, fmt.Errorf("%w: %v", errMalformedReply, err))
	}
	return env, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	return req, nil
}

// classifyStatus maps an HTTP status to an outcome. 429 is checked first so
// that a rate-limit answer is never mistaken for another client error.
func classifyStatus(status int) Outcome {
	switch {
	case status == http.StatusTooManyRequests:
		return OutcomeRateLimited
	case status >= 200 && status < 300:
		return OutcomeSuccess
	case status == http.StatusNotFound:
		return OutcomeNotFound
	case status >= 400 && status < 500:
		return OutcomeClientError
	default:
		return OutcomeTransport
	}
}
