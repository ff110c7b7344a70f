package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"nerclient/internal/domain"
)

var _ Recognizer = (*Direct)(nil)

// Direct calls an endpoint that takes {"sentence": ...} and answers with an
// EntityMap as JSON.
type Direct struct {
	endpoint string
	opts     options
	log      *slog.Logger
}

type directRequest struct {
	Sentence string `json:"sentence"`
}

func NewDirect(endpoint string, log *slog.Logger, opts ...Option) (*Direct, error) {
	endpoint = strings.TrimSpace(endpoint)
	if err := validateEndpoint(endpoint); err != nil {
		return nil, err
	}

	return &Direct{
		endpoint: endpoint,
		opts:     newOptions(opts),
		log:      log,
	}, nil
}

func (d *Direct) Endpoint() string {
	return d.endpoint
}

// RecognizeSentence returns the backend's answer as is; it is not checked
// against the merge schema.
func (d *Direct) RecognizeSentence(ctx context.Context, text string) (domain.EntityMap, error) {
	payload, err := json.Marshal(directRequest{Sentence: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := send(ctx, d.opts, req, d.log, "directRecognizeSentence")
	if err != nil {
		return nil, err
	}

	var result domain.EntityMap
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: decode entity map: %w", ErrResponseFormat, err)
	}

	d.log.DebugContext(ctx, "Sentence is recognized",
		"backend", BackendDirect,
		"endpoint", d.endpoint,
		"sentenceLen", len(text),
		"mentions", result.Len())

	return result, nil
}

func (d *Direct) RecognizeFile(ctx context.Context, path string, encoding string) (domain.EntityMap, error) {
	return recognizeFile(ctx, d, path, encoding, d.opts, d.log)
}

// IsEmptyResult is true for a map without categories; the endpoint omits
// categories it found nothing for.
func (d *Direct) IsEmptyResult(m domain.EntityMap) bool {
	return len(m) == 0
}
