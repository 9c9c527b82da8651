package analysis

import (
	"encoding/json"
	"unicode"
	"unicode/utf8"
)

func init() {
	Register("standard", newStandardAnalyzer)
	Register("keyword", newKeywordAnalyzer)
}

// standardOptions configures the standard analyzer. MaxTokenLength bounds
// how many runes a single token may contain before it is split, guarding
// against pathological input (e.g. a field value with no whitespace at all).
type standardOptions struct {
	MaxTokenLength int `json:"maxTokenLength"`
}

const defaultMaxTokenLength = 255

// standardAnalyzer splits on runs of non-letter/non-digit runes and
// lowercases each token, the minimal "word analyzer" most full-text
// engines ship as their default.
type standardAnalyzer struct {
	maxTokenLength int
	stream         *standardTokenStream
}

func newStandardAnalyzer(raw json.RawMessage) (Analyzer, error) {
	opts := standardOptions{MaxTokenLength: defaultMaxTokenLength}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &opts); err != nil {
			return nil, err
		}
	}
	if opts.MaxTokenLength <= 0 {
		opts.MaxTokenLength = defaultMaxTokenLength
	}
	return &standardAnalyzer{maxTokenLength: opts.MaxTokenLength}, nil
}

func (a *standardAnalyzer) Reset(data []byte) error {
	a.stream = &standardTokenStream{data: data, maxTokenLength: a.maxTokenLength}
	return nil
}

func (a *standardAnalyzer) Tokens() TokenStream { return a.stream }

type standardTokenStream struct {
	data           []byte
	pos            int
	maxTokenLength int
	term           []byte
	start, end     int
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (s *standardTokenStream) Next() bool {
	n := len(s.data)
	for s.pos < n {
		r, size := utf8.DecodeRune(s.data[s.pos:])
		if !isWordRune(r) {
			s.pos += size
			continue
		}

		start := s.pos
		buf := make([]byte, 0, 16)
		count := 0
		for s.pos < n && count < s.maxTokenLength {
			r, size := utf8.DecodeRune(s.data[s.pos:])
			if !isWordRune(r) {
				break
			}
			buf = utf8.AppendRune(buf, unicode.ToLower(r))
			s.pos += size
			count++
		}

		s.term = buf
		s.start = start
		s.end = s.pos
		return true
	}
	return false
}

func (s *standardTokenStream) Term() []byte                 { return s.term }
func (s *standardTokenStream) PositionIncrement() int       { return 1 }
func (s *standardTokenStream) Offset() (start, end int)     { return s.start, s.end }
func (s *standardTokenStream) Payload() []byte              { return nil }

// keywordAnalyzer emits the entire field value as a single token, used for
// identifiers, tags, and other values that must not be split or case-folded.
type keywordAnalyzer struct {
	stream *keywordTokenStream
}

func newKeywordAnalyzer(json.RawMessage) (Analyzer, error) {
	return &keywordAnalyzer{}, nil
}

func (a *keywordAnalyzer) Reset(data []byte) error {
	a.stream = &keywordTokenStream{data: data}
	return nil
}

func (a *keywordAnalyzer) Tokens() TokenStream { return a.stream }

type keywordTokenStream struct {
	data  []byte
	emitted bool
}

func (s *keywordTokenStream) Next() bool {
	if s.emitted || len(s.data) == 0 {
		return false
	}
	s.emitted = true
	return true
}

func (s *keywordTokenStream) Term() []byte             { return s.data }
func (s *keywordTokenStream) PositionIncrement() int   { return 1 }
func (s *keywordTokenStream) Offset() (start, end int) { return 0, len(s.data) }
func (s *keywordTokenStream) Payload() []byte          { return nil }
