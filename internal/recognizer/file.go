package recognizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"nerclient/internal/domain"
	"nerclient/internal/merge"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

const (
	DefaultEncoding = "utf-8"

	utf8BOM = "\ufeff"
)

type line struct {
	number int
	text   string
}

func recognizeFile(
	ctx context.Context,
	r Recognizer,
	path string,
	encodingName string,
	opts options,
	log *slog.Logger,
) (domain.EntityMap, error) {
	lines, err := readLines(path, encodingName)
	if err != nil {
		return nil, err
	}

	results, err := recognizeLines(ctx, r, lines, opts.concurrency)
	if err != nil {
		return nil, err
	}

	merged, skipped := aggregate(r, results, opts.schema)

	log.DebugContext(ctx, "File is recognized",
		"path", path,
		"encoding", encodingName,
		"lines", len(lines),
		"skippedLines", skipped,
		"mentions", merged.Len())

	return merged, nil
}

// aggregate merges results in order, skipping those r considers empty.
func aggregate(r Recognizer, results []domain.EntityMap, schema merge.Schema) (domain.EntityMap, int) {
	out := domain.EntityMap{}
	skipped := 0

	for _, result := range results {
		if r.IsEmptyResult(result) {
			skipped++
			continue
		}

		out = merge.Merge(out, result, schema)
	}

	return out, skipped
}

// recognizeLines returns one result per line, in line order. The first error
// stops the remaining calls.
func recognizeLines(
	ctx context.Context,
	r Recognizer,
	lines []line,
	concurrency int,
) ([]domain.EntityMap, error) {
	results := make([]domain.EntityMap, len(lines))

	if concurrency <= 1 {
		for i, l := range lines {
			result, err := r.RecognizeSentence(ctx, l.text)
			if err != nil {
				return nil, fmt.Errorf("recognize line %d: %w", l.number, err)
			}
			results[i] = result
		}

		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, l := range lines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result, err := r.RecognizeSentence(gctx, l.text)
			if err != nil {
				return fmt.Errorf("recognize line %d: %w", l.number, err)
			}
			results[i] = result

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// readLines decodes the file and returns its non-blank lines, trimmed.
func readLines(path string, encodingName string) ([]line, error) {
	enc, err := lookupEncoding(encodingName)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read file: %w", ErrFileAccess, err)
	}

	text, err := decode(raw, enc)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s (encoding = %s): %w", ErrFileAccess, path, encodingName, err)
	}

	var lines []line
	for i, rawLine := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(rawLine)
		if trimmed == "" {
			continue
		}

		lines = append(lines, line{number: i + 1, text: trimmed})
	}

	return lines, nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultEncoding
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown encoding %q: %w", ErrFileAccess, name, err)
	}

	return enc, nil
}

// decode rejects input the encoding cannot represent instead of silently
// substituting U+FFFD.
func decode(raw []byte, enc encoding.Encoding) (string, error) {
	if name, _ := htmlindex.Name(enc); name == DefaultEncoding {
		if !utf8.Valid(raw) {
			return "", errors.New("invalid UTF-8 input")
		}

		return strings.TrimPrefix(string(raw), utf8BOM), nil
	}

	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), enc.NewDecoder()))
	if err != nil {
		return "", err
	}

	text := string(decoded)
	if strings.ContainsRune(text, utf8.RuneError) {
		return "", errors.New("input contains bytes invalid for the encoding")
	}

	return strings.TrimPrefix(text, utf8BOM), nil
}
