package recognizer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"nerclient/internal/domain"
	"nerclient/internal/merge"

	"golang.org/x/text/encoding/unicode"
)

type scriptedRecognizer struct {
	results map[string]domain.EntityMap
	empty   func(domain.EntityMap) bool
}

func (s *scriptedRecognizer) RecognizeSentence(_ context.Context, text string) (domain.EntityMap, error) {
	result, ok := s.results[text]
	if !ok {
		return nil, errors.New("unexpected sentence " + text)
	}

	return result, nil
}

func (s *scriptedRecognizer) RecognizeFile(context.Context, string, string) (domain.EntityMap, error) {
	return nil, errors.New("not implemented")
}

func (s *scriptedRecognizer) IsEmptyResult(m domain.EntityMap) bool {
	return s.empty(m)
}

func TestReadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	content := "\ufeff康龙化成\r\n\n   \n  安永华明  \n\t\n末行"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	lines, err := readLines(path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []line{
		{number: 1, text: "康龙化成"},
		{number: 4, text: "安永华明"},
		{number: 6, text: "末行"},
	}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("unexpected lines: got %+v want %+v", lines, want)
	}
}

func TestReadLinesUTF16(t *testing.T) {
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().String("亚星\n厦华\n")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	path := filepath.Join(t.TempDir(), "input.txt")
	if err = os.WriteFile(path, []byte(encoded), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	lines, err := readLines(path, "utf-16le")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(lines) != 2 || lines[0].text != "亚星" || lines[1].text != "厦华" {
		t.Fatalf("unexpected lines: %+v", lines)
	}
}

func TestLookupEncoding(t *testing.T) {
	for _, name := range []string{"", "utf-8", "UTF8", "gbk", "gb2312", "gb18030", "big5"} {
		if _, err := lookupEncoding(name); err != nil {
			t.Fatalf("expected %q to be supported, got %v", name, err)
		}
	}

	if _, err := lookupEncoding("klingon"); !errors.Is(err, ErrFileAccess) {
		t.Fatalf("expected file access error, got %v", err)
	}
}

func TestAggregateSkipsEmptyResultsPerBackend(t *testing.T) {
	results := []domain.EntityMap{
		{domain.Organization: {"华资实业"}},
		{},
		domain.FullEmptyEntityMap(),
		{domain.Organization: {"明科"}, domain.Location: {"新冠"}},
	}

	direct := &Direct{}
	got, skipped := aggregate(direct, results, merge.Default())
	want := domain.EntityMap{
		domain.Organization: {"华资实业", "明科"},
		domain.Location:     {"新冠"},
		domain.Person:       {},
	}
	if !reflect.DeepEqual(got, want) || skipped != 1 {
		t.Fatalf("unexpected direct aggregate: got %v (skipped %d) want %v", got, skipped, want)
	}

	stanford := &Stanford{}
	got, skipped = aggregate(stanford, results, merge.Default())
	want = domain.EntityMap{
		domain.Organization: {"华资实业", "明科"},
		domain.Location:     {"新冠"},
	}
	if !reflect.DeepEqual(got, want) || skipped != 1 {
		t.Fatalf("unexpected stanford aggregate: got %v (skipped %d) want %v", got, skipped, want)
	}
}

func TestRecognizeLinesPreservesOrderConcurrently(t *testing.T) {
	r := &scriptedRecognizer{
		results: map[string]domain.EntityMap{
			"a": {domain.Person: {"a"}},
			"b": {domain.Person: {"b"}},
			"c": {domain.Person: {"c"}},
			"d": {domain.Person: {"d"}},
		},
		empty: func(m domain.EntityMap) bool { return len(m) == 0 },
	}
	lines := []line{{1, "a"}, {2, "b"}, {3, "c"}, {5, "d"}}

	results, err := recognizeLines(context.Background(), r, lines, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := aggregate(r, results, merge.Default())
	if want := []string{"a", "b", "c", "d"}; !reflect.DeepEqual(got[domain.Person], want) {
		t.Fatalf("unexpected order: got %v want %v", got[domain.Person], want)
	}
}

func TestRecognizeLinesReportsLineNumber(t *testing.T) {
	r := &scriptedRecognizer{
		results: map[string]domain.EntityMap{"a": {}},
		empty:   func(m domain.EntityMap) bool { return len(m) == 0 },
	}

	_, err := recognizeLines(context.Background(), r, []line{{1, "a"}, {7, "unknown"}}, 1)
	if err == nil || err.Error() != "recognize line 7: unexpected sentence unknown" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseStanfordMarkup(t *testing.T) {
	body := "<html><body>\nHe met Li at Beijing\n<br>\n" +
		"&lt;wi num=&quot;0&quot; entity=&quot;O&quot;&gt;He&lt;/wi&gt; " +
		"&lt;wi num=&quot;1&quot; entity=&quot;PERSON&quot;&gt;Li&lt;/wi&gt; " +
		"&lt;wi num=&quot;2&quot; entity=&quot;LOCATION&quot;&gt;Beijing&lt;/wi&gt; " +
		"&lt;wi num=&quot;3&quot; entity=&quot;MISC&quot;&gt;Olympics&lt;/wi&gt;\n</body></html>"

	got, err := parseStanfordMarkup([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := domain.EntityMap{
		domain.Person:       {"Li"},
		domain.Location:     {"Beijing"},
		domain.Organization: {},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected result: got %v want %v", got, want)
	}
}
