package recognizer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"nerclient/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

const (
	StanfordEndpoint = "http://nlp.stanford.edu:8080/ner/process"

	stanfordOutputFormat    = "xml"
	stanfordPreserveSpacing = "true"

	// The body carries an echo of the input followed by the tagged output.
	stanfordBodyTextRegions = 2
	stanfordEntityTag       = "wi"
	stanfordEntityAttr      = "entity"
)

var stanfordClassifiers = map[string]string{
	"7class":  "english.muc.7class.distsim.crf.ser.gz",
	"4class":  "english.conll.4class.distsim.crf.ser.gz",
	"3class":  "english.all.3class.distsim.crf.ser.gz",
	"distsim": "chinese.misc.distsim.crf.ser.gz",
}

var stanfordEntityCategories = map[string]domain.Category{
	"LOCATION":     domain.Location,
	"PERSON":       domain.Person,
	"ORGANIZATION": domain.Organization,
}

var _ Recognizer = (*Stanford)(nil)

// Stanford calls the Stanford NER web demo and extracts entities from the
// markup it answers with.
type Stanford struct {
	classifierCode string
	classifier     string
	endpoint       string
	opts           options
	log            *slog.Logger
}

// StanfordClassifierCodes returns the accepted classifier codes, sorted.
func StanfordClassifierCodes() []string {
	codes := make([]string, 0, len(stanfordClassifiers))
	for code := range stanfordClassifiers {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	return codes
}

func NewStanford(classifierCode string, log *slog.Logger, opts ...Option) (*Stanford, error) {
	classifierCode = strings.TrimSpace(classifierCode)

	classifier, ok := stanfordClassifiers[classifierCode]
	if !ok {
		return nil, fmt.Errorf("%w: unknown classifier %q (want one of %s)",
			ErrConfiguration,
			classifierCode,
			strings.Join(StanfordClassifierCodes(), ", "))
	}

	o := newOptions(opts)

	endpoint := strings.TrimSpace(o.endpoint)
	if endpoint == "" {
		endpoint = StanfordEndpoint
	}
	if err := validateEndpoint(endpoint); err != nil {
		return nil, err
	}

	return &Stanford{
		classifierCode: classifierCode,
		classifier:     classifier,
		endpoint:       endpoint,
		opts:           o,
		log:            log,
	}, nil
}

// Classifier returns the backend model file the classifier code resolved to.
func (s *Stanford) Classifier() string {
	return s.classifier
}

func (s *Stanford) RecognizeSentence(ctx context.Context, text string) (domain.EntityMap, error) {
	form := url.Values{}
	form.Set("classifier", s.classifier)
	form.Set("outputFormat", stanfordOutputFormat)
	form.Set("preserveSpacing", stanfordPreserveSpacing)
	form.Set("input", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := send(ctx, s.opts, req, s.log, "stanfordRecognizeSentence")
	if err != nil {
		return nil, err
	}

	result, err := parseStanfordMarkup(body)
	if err != nil {
		return nil, err
	}

	s.log.DebugContext(ctx, "Sentence is recognized",
		"backend", BackendStanford,
		"classifier", s.classifierCode,
		"sentenceLen", len(text),
		"mentions", result.Len())

	return result, nil
}

func (s *Stanford) RecognizeFile(ctx context.Context, path string, encoding string) (domain.EntityMap, error) {
	return recognizeFile(ctx, s, path, encoding, s.opts, s.log)
}

// IsEmptyResult is true for the all-categories, no-mentions shape the demo
// answers with when it found nothing.
func (s *Stanford) IsEmptyResult(m domain.EntityMap) bool {
	return m.IsFullEmpty()
}

func parseStanfordMarkup(body []byte) (domain.EntityMap, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create document from reader: %w", ErrResponseFormat, err)
	}

	var regions []string
	doc.Find("body").Contents().Each(func(_ int, node *goquery.Selection) {
		if goquery.NodeName(node) != "#text" {
			return
		}

		if text := strings.TrimSpace(node.Text()); text != "" {
			regions = append(regions, text)
		}
	})

	if len(regions) != stanfordBodyTextRegions {
		return nil, fmt.Errorf("%w: expected %d text regions in body, found %d",
			ErrResponseFormat,
			stanfordBodyTextRegions,
			len(regions))
	}

	tagged, err := goquery.NewDocumentFromReader(strings.NewReader(regions[1]))
	if err != nil {
		return nil, fmt.Errorf("%w: create document from tagged region: %w", ErrResponseFormat, err)
	}

	tags := tagged.Find(stanfordEntityTag)
	if tags.Length() == 0 {
		return nil, fmt.Errorf("%w: no <%s> tags in tagged region", ErrResponseFormat, stanfordEntityTag)
	}

	result := domain.FullEmptyEntityMap()
	tags.Each(func(_ int, tag *goquery.Selection) {
		category, ok := stanfordEntityCategories[tag.AttrOr(stanfordEntityAttr, "")]
		if !ok {
			return
		}

		result[category] = append(result[category], tag.Text())
	})

	return result, nil
}
