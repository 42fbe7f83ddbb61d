// Package segment splits long text into chunks for analysis without breaking
// sentences.
package segment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var paragraphBreak = regexp.MustCompile(`\n[ \t\r]*\n`)

// Split packs text into chunks of at most max characters. Paragraphs are
// kept whole when they fit; longer paragraphs are split between sentences.
// A single sentence longer than max becomes its own oversized chunk. Text
// that already fits is returned as one chunk; blank text yields none.
func Split(text string, max int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if max <= 0 || length(text) <= max {
		return []string{text}
	}

	p := &packer{max: max}
	for _, para := range Paragraphs(text) {
		if length(para) <= max {
			p.add(para, "\n\n")
			continue
		}
		for _, s := range Sentences(para) {
			p.add(s, " ")
		}
		p.flush()
	}
	p.flush()
	return p.chunks
}

// Paragraphs splits on blank lines and drops empty paragraphs.
func Paragraphs(text string) []string {
	var out []string
	for _, p := range paragraphBreak.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Sentences splits after '.', '!', '?' or '…' (and any closing quotes or
// brackets) when followed by whitespace.
func Sentences(text string) []string {
	var out []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if !terminal(runes[i]) {
			continue
		}
		j := i + 1
		for j < len(runes) && (terminal(runes[j]) || closing(runes[j])) {
			j++
		}
		if j < len(runes) && !unicode.IsSpace(runes[j]) {
			i = j - 1
			continue
		}
		if s := strings.TrimSpace(string(runes[start:j])); s != "" {
			out = append(out, s)
		}
		start = j
		i = j - 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func terminal(r rune) bool { return r == '.' || r == '!' || r == '?' || r == '…' }

func closing(r rune) bool {
	return r == '"' || r == '\'' || r == ')' || r == ']' || r == '”' || r == '’' || r == '»'
}

func length(s string) int { return utf8.RuneCountInString(s) }

type packer struct {
	max    int
	chunks []string
	cur    strings.Builder
	n      int
}

func (p *packer) add(piece, sep string) {
	size := length(piece)
	if p.n > 0 && p.n+length(sep)+size > p.max {
		p.flush()
	}
	if p.n > 0 {
		p.cur.WriteString(sep)
		p.n += length(sep)
	}
	p.cur.WriteString(piece)
	p.n += size
}

func (p *packer) flush() {
	if p.n == 0 {
		return
	}
	p.chunks = append(p.chunks, p.cur.String())
	p.cur.Reset()
	p.n = 0
}
