package voice

import (
	"strings"
	"unicode"
)

// SentenceSplitter accumulates prose chunks from the response queue and
// yields complete sentences as boundaries are recognized: split on '!'/'?'
// followed by whitespace/EOS, on '.' followed by whitespace/EOS unless
// immediately followed by a digit (so "3.14" doesn't break), and on
// newlines. All other punctuation stays inside the sentence.
type SentenceSplitter struct {
	buf          strings.Builder
	pendingPunct rune // '.', '!', or '?' awaiting a disambiguating next rune
}

// Feed appends chunk and returns any complete sentences it produced, in
// order. Trailing partial text is retained for the next Feed or Flush.
func (s *SentenceSplitter) Feed(chunk string) []string {
	var out []string
	for _, r := range chunk {
		if r == '\n' {
			sentence := strings.TrimSpace(s.buf.String())
			s.buf.Reset()
			s.pendingPunct = 0
			if sentence != "" {
				out = append(out, sentence)
			}
			continue
		}

		if s.pendingPunct != 0 {
			if unicode.IsSpace(r) {
				sentence := strings.TrimSpace(s.buf.String())
				s.buf.Reset()
				s.pendingPunct = 0
				if sentence != "" {
					out = append(out, sentence)
				}
				continue
			}
			// Anything else (a digit after '.', or any rune after '!'/'?')
			// cancels the pending boundary; keep accumulating into the
			// same sentence.
			s.pendingPunct = 0
		}

		s.buf.WriteRune(r)

		switch r {
		case '.', '!', '?':
			s.pendingPunct = r
		}
	}
	return out
}

// Flush returns any remaining buffered text as a final sentence (used at
// end-of-turn, when a trailing '.' never got a following rune to
// disambiguate, or when trailing prose has no terminal punctuation at all).
func (s *SentenceSplitter) Flush() string {
	text := strings.TrimSpace(s.buf.String())
	s.buf.Reset()
	s.pendingPunct = 0
	return text
}
