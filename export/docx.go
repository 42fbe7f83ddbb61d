package export

import (
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const (
	fontName = "Calibri"
	fontSize = 11
)

var (
	reBold   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBullet = regexp.MustCompile(`^[-*•]\s+(.+)$`)
)

func renderDOCX(path string, doc Document) error {
	d, err := godocx.NewDocument()
	if err != nil {
		return err
	}
	addRun(d.AddParagraph(""), doc.Title, true, 16)

	if a := doc.Analysis; a != nil {
		for _, s := range sections(a) {
			addRun(d.AddParagraph(""), s.Title, true, 14)
			addBody(d, s.Text)
			d.AddParagraph("")
		}
	}
	if doc.Transcript != "" {
		if doc.Analysis != nil {
			addRun(d.AddParagraph(""), "Transcript", true, 14)
		}
		addBody(d, doc.Transcript)
	}
	return d.SaveTo(path)
}

func addBody(d *docx.RootDoc, text string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := reBullet.FindStringSubmatch(line); m != nil {
			line = "• " + m[1]
		}
		addRichText(d.AddParagraph(""), line)
	}
}

func addRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(strings.ReplaceAll(text, "**", "")).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}

// addRichText keeps **bold** spans.
func addRichText(p *docx.Paragraph, text string) {
	parts := reBold.Split(text, -1)
	matches := reBold.FindAllStringSubmatch(text, -1)
	for i, part := range parts {
		if part != "" {
			p.AddText(part).Font(fontName).Size(fontSize).Color("000000")
		}
		if i < len(matches) {
			p.AddText(matches[i][1]).Font(fontName).Size(fontSize).Color("000000").Bold(true)
		}
	}
}
