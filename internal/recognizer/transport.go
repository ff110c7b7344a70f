package recognizer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const errorBodySnippetMaxBytes = 200

// send performs req and returns the response body of a 2xx answer.
func send(
	ctx context.Context,
	o options,
	req *http.Request,
	log *slog.Logger,
	operation string,
) ([]byte, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: wait for rate limiter: %w", ErrTransport, err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: do request: %w", ErrTransport, err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"endpoint", req.URL.String(),
				"operation", operation)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: unexpected status: %d: %s",
			ErrTransport,
			resp.StatusCode,
			string(body[:min(len(body), errorBodySnippetMaxBytes)]))
	}

	return body, nil
}
