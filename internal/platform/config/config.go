package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr string
	// RequestTimeout bounds one API request, including any rate-limit
	// backoff on writes.
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Upstream configures the directory API client.
type Upstream struct {
	BaseURL string
	Timeout time.Duration
	// RatePerSec throttles outbound calls; 0 disables throttling.
	RatePerSec float64
	RateBurst  int
}

// Retry mirrors the retry policy knobs.
type Retry struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

// Telemetry selects the trace exporter.
type Telemetry struct {
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool
}

type Log struct {
	Level  string
	Format string
}

// Config is the full process configuration.
type Config struct {
	Server    Server
	Upstream  Upstream
	Retry     Retry
	Log       Log
	Telemetry Telemetry
}

// FromEnv builds a Config from environment variables so main stays lean.
// Unset variables take defaults; malformed ones are reported together.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	p := parser{lookup: lookup}
	cfg := Config{
		Server: Server{
			Addr:            p.str("STAFFGATE_ADDR", ":8111"),
			RequestTimeout:  p.duration("HTTP_REQUEST_TIMEOUT", 3*time.Minute),
			ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Upstream: Upstream{
			BaseURL:    p.str("UPSTREAM_BASE_URL", "http://localhost:8112"),
			Timeout:    p.duration("UPSTREAM_TIMEOUT", 10*time.Second),
			RatePerSec: p.number("UPSTREAM_RATE_PER_SEC", 0),
			RateBurst:  p.integer("UPSTREAM_RATE_BURST", 1),
		},
		Retry: Retry{
			MaxAttempts: p.integer("RETRY_MAX_ATTEMPTS", 4),
			BaseDelay:   p.duration("RETRY_BASE_DELAY", 20*time.Second),
			Multiplier:  p.number("RETRY_MULTIPLIER", 1.5),
			MaxDelay:    p.duration("RETRY_MAX_DELAY", 60*time.Second),
		},
		Log: Log{
			Level:  p.str("LOG_LEVEL", "info"),
			Format: p.str("LOG_FORMAT", "text"),
		},
		Telemetry: Telemetry{
			Exporter:     p.str("TRACE_EXPORTER", "none"),
			OTLPEndpoint: p.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			OTLPInsecure: p.boolean("OTEL_EXPORTER_OTLP_INSECURE", true),
		},
	}
	if err := errors.Join(p.errs...); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

type parser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *parser) str(key, def string) string {
	if v, ok := p.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v, ok := p.lookup(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a non-negative duration", key, v))
		return def
	}
	return d
}

func (p *parser) integer(key string, def int) int {
	v, ok := p.lookup(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (p *parser) number(key string, def float64) float64 {
	v, ok := p.lookup(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a number", key, v))
		return def
	}
	return f
}

func (p *parser) boolean(key string, def bool) bool {
	v, ok := p.lookup(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a boolean", key, v))
		return def
	}
	return b
}
