// Package export writes transcripts and analysis results to DOCX, JSON and
// plain-text files.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/orchestrator"
	"github.com/kbukum/samuelizer/storage/local"
)

// Format is an output file type.
type Format string

const (
	FormatDOCX Format = "docx"
	FormatJSON Format = "json"
	FormatText Format = "txt"
)

// ParseFormats parses a list such as "docx,json".
func ParseFormats(list []string) ([]Format, error) {
	out := make([]Format, 0, len(list))
	for _, item := range list {
		for _, f := range strings.Split(item, ",") {
			switch Format(strings.ToLower(strings.TrimSpace(f))) {
			case FormatDOCX:
				out = append(out, FormatDOCX)
			case FormatJSON:
				out = append(out, FormatJSON)
			case FormatText, "text":
				out = append(out, FormatText)
			case "":
			default:
				return nil, errors.InvalidInput("format", fmt.Sprintf("unknown export format %q", f))
			}
		}
	}
	return out, nil
}

// Document is what gets exported. Either part may be empty.
type Document struct {
	Title      string
	Source     string
	CreatedAt  time.Time
	Transcript string
	Analysis   *orchestrator.AnalysisResult
}

// Exporter writes documents under one output directory.
type Exporter struct {
	store *local.Storage
	now   func() time.Time
}

// New creates dir if needed.
func New(dir string) (*Exporter, error) {
	s, err := local.NewStorage(dir)
	if err != nil {
		return nil, err
	}
	return &Exporter{store: s, now: time.Now}, nil
}

// Dir is the absolute output directory.
func (e *Exporter) Dir() string { return e.store.BasePath() }

// Export writes doc as <base>.<ext> for each format and returns the paths.
func (e *Exporter) Export(ctx context.Context, doc Document, base string, formats ...Format) ([]string, error) {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = e.now()
	}
	if doc.Title == "" {
		doc.Title = defaultTitle(doc)
	}
	base = BaseName(base)
	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		name := base + "." + string(f)
		var err error
		switch f {
		case FormatJSON:
			err = e.upload(ctx, name, func(b *bytes.Buffer) error { return encodeJSON(b, doc) })
		case FormatText:
			err = e.upload(ctx, name, func(b *bytes.Buffer) error { return encodeText(b, doc) })
		case FormatDOCX:
			err = e.writeDOCX(ctx, name, doc)
		default:
			err = errors.InvalidInput("format", fmt.Sprintf("unknown export format %q", f))
		}
		if err != nil {
			if _, ok := errors.AsAppError(err); ok {
				return paths, err
			}
			return paths, errors.Internal(err).WithStage(errors.StageExport).WithDetail("file", name)
		}
		paths = append(paths, filepath.Join(e.Dir(), name))
	}
	return paths, nil
}

func (e *Exporter) upload(ctx context.Context, name string, encode func(*bytes.Buffer) error) error {
	var b bytes.Buffer
	if err := encode(&b); err != nil {
		return err
	}
	return e.store.Upload(ctx, name, &b)
}

// writeDOCX renders to a temp file and commits it through the storage
// upload so readers never see a partial document.
func (e *Exporter) writeDOCX(ctx context.Context, name string, doc Document) error {
	tmp, err := os.CreateTemp("", "samuelizer-*.docx")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpName) //nolint:errcheck

	if err := renderDOCX(tmpName, doc); err != nil {
		return err
	}
	f, err := os.Open(tmpName)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck
	return e.store.Upload(ctx, name, f)
}

var unsafeName = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// BaseName turns a source path or title into a file stem.
func BaseName(s string) string {
	s = filepath.Base(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, filepath.Ext(s))
	s = strings.Trim(unsafeName.ReplaceAllString(s, "_"), "_.")
	if s == "" {
		return "samuelizer"
	}
	return s
}

func defaultTitle(doc Document) string {
	if doc.Source != "" {
		return "Meeting minutes: " + filepath.Base(doc.Source)
	}
	return "Meeting minutes"
}

// jsonSection is one analysis section in template order.
type jsonSection struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

type jsonDocument struct {
	Title      string        `json:"title"`
	Source     string        `json:"source,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	Template   string        `json:"template,omitempty"`
	Provider   string        `json:"provider,omitempty"`
	Model      string        `json:"model,omitempty"`
	Chunks     int           `json:"chunks,omitempty"`
	Incomplete []int         `json:"incomplete,omitempty"`
	Sections   []jsonSection `json:"sections,omitempty"`
	Transcript string        `json:"transcript,omitempty"`
}

func encodeJSON(b *bytes.Buffer, doc Document) error {
	out := jsonDocument{Title: doc.Title, Source: doc.Source, CreatedAt: doc.CreatedAt.UTC(), Transcript: doc.Transcript}
	if a := doc.Analysis; a != nil {
		out.Template, out.Provider, out.Model = a.Template, a.Provider, a.Model
		out.Chunks, out.Incomplete = a.Chunks, a.Incomplete
		out.Sections = sections(a)
	}
	enc := json.NewEncoder(b)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}

func encodeText(b *bytes.Buffer, doc Document) error {
	fmt.Fprintf(b, "%s\n\n", doc.Title)
	if a := doc.Analysis; a != nil {
		for _, s := range sections(a) {
			fmt.Fprintf(b, "%s\n%s\n\n%s\n\n", s.Title, strings.Repeat("=", len([]rune(s.Title))), s.Text)
		}
	}
	if doc.Transcript != "" {
		if doc.Analysis != nil {
			b.WriteString("Transcript\n==========\n\n")
		}
		b.WriteString(strings.TrimSpace(doc.Transcript))
		b.WriteString("\n")
	}
	return nil
}

// sections lists the analysis in result order with display titles.
func sections(a *orchestrator.AnalysisResult) []jsonSection {
	out := make([]jsonSection, 0, len(a.Order))
	for _, k := range a.Order {
		title := a.Titles[k]
		if title == "" {
			title = titleCase(k)
		}
		out = append(out, jsonSection{Key: k, Title: title, Text: a.Sections[k]})
	}
	return out
}

func titleCase(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}
