package recognizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"nerclient/internal/domain"
	"nerclient/internal/merge"
	"nerclient/internal/ratelimiter"

	"mvdan.cc/xurls/v2"
)

const defaultTimeout = 30 * time.Second

var (
	// ErrConfiguration marks an invalid backend, endpoint or classifier selection.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransport marks a failed call or a non-2xx response.
	ErrTransport = errors.New("transport error")
	// ErrResponseFormat marks a response body that does not have the expected shape.
	ErrResponseFormat = errors.New("response format error")
	// ErrFileAccess marks an input file that cannot be opened or decoded.
	ErrFileAccess = errors.New("file access error")
)

// Recognizer turns text into entity mentions through a remote backend.
type Recognizer interface {
	// RecognizeSentence sends one sentence to the backend.
	RecognizeSentence(ctx context.Context, text string) (domain.EntityMap, error)
	// RecognizeFile recognizes every non-blank line of the file at path,
	// decoded with encoding, and merges the results in line order.
	RecognizeFile(ctx context.Context, path string, encoding string) (domain.EntityMap, error)
	// IsEmptyResult reports whether a sentence result means "nothing found"
	// for this backend.
	IsEmptyResult(m domain.EntityMap) bool
}

type Backend string

const (
	BackendDirect   Backend = "direct"
	BackendStanford Backend = "stanford"
)

// New builds the recognizer for backend. target is the endpoint URL for
// BackendDirect and the classifier code for BackendStanford.
func New(
	backend Backend,
	target string,
	log *slog.Logger,
	opts ...Option,
) (Recognizer, error) {
	switch backend {
	case BackendDirect:
		d, err := NewDirect(target, log, opts...)
		if err != nil {
			return nil, err
		}
		return d, nil
	case BackendStanford:
		s, err := NewStanford(target, log, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrConfiguration, backend)
	}
}

type options struct {
	client      *http.Client
	timeout     time.Duration
	schema      merge.Schema
	concurrency int
	endpoint    string
	limiter     *ratelimiter.RateLimiter
}

// Option configures a recognizer.
type Option func(*options)

// WithHTTPClient replaces the default client; WithTimeout is ignored then.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.client = client }
}

// WithTimeout bounds each backend call (default 30s, 0 disables).
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) { o.timeout = timeout }
}

// WithSchema sets the schema used to merge per-line results of a file.
func WithSchema(schema merge.Schema) Option {
	return func(o *options) { o.schema = schema }
}

// WithConcurrency lets up to n sentence calls of a file run at once. Results
// are still merged in line order.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// WithEndpoint overrides the Stanford endpoint.
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// WithRateLimiter spaces out backend calls. The limiter may be shared
// between recognizers talking to the same service.
func WithRateLimiter(limiter *ratelimiter.RateLimiter) Option {
	return func(o *options) { o.limiter = limiter }
}

func newOptions(opts []Option) options {
	o := options{
		timeout:     defaultTimeout,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.client == nil {
		o.client = &http.Client{Timeout: o.timeout}
	}
	if o.schema == nil {
		o.schema = merge.Default()
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}

	return o
}

func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("%w: endpoint is empty", ErrConfiguration)
	}

	httpURLRe, err := xurls.StrictMatchingScheme(`https?://`)
	if err != nil {
		return fmt.Errorf("%w: create regexp: %w", ErrConfiguration, err)
	}

	if httpURLRe.FindString(endpoint) != endpoint {
		return fmt.Errorf("%w: endpoint is not an http(s) URL (endpoint = %s)", ErrConfiguration, endpoint)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: parse endpoint: %w", ErrConfiguration, err)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: endpoint has no host (endpoint = %s)", ErrConfiguration, endpoint)
	}

	return nil
}
