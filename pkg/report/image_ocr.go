package report

import (
	"fmt"
	"strings"

	"github.com/evidence-toolkit/evidence-toolkit-sub001/pkg/summary"
)

type imageOCRGenerator struct{ baseGenerator }

func (g imageOCRGenerator) items(cs *summary.CaseSummary) []summary.EvidenceSummary {
	var out []summary.EvidenceSummary
	for _, e := range cs.EvidenceSummaries {
		if e.OCRText != "" {
			out = append(out, e)
		}
	}
	return out
}

func (g imageOCRGenerator) HasData(cs *summary.CaseSummary) bool {
	return len(g.items(cs)) > 0
}

func (imageOCRGenerator) Filename() string { return "image_ocr.md" }
func (imageOCRGenerator) Title() string    { return "Image OCR Extraction" }

func (g imageOCRGenerator) Generate(cs *summary.CaseSummary) (string, error) {
	var b strings.Builder
	b.WriteString(g.heading(g.Title()))
	for _, e := range g.items(cs) {
		fmt.Fprintf(&b, "## %s (sha256=%s)\n\n```\n%s\n```\n\n", e.Filename, g.truncateSHA(e.SHA256), e.OCRText)
	}
	return b.String(), nil
}
