package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/sohanAi024/News-Multi-Agent/pkg/log"
)

// ErrEmptyContent is returned when there is nothing to render.
var ErrEmptyContent = errors.New("no content provided for PDF creation")

const bodyFamily = "body"

// PDFRenderer writes plain-text reports as A4 PDFs.
type PDFRenderer struct {
	dir      string
	fontPath string
	now      func() time.Time
}

// NewPDFRenderer renders into dir. fontPath is an optional UTF-8 TTF; without it
// text is translated to cp1252 and unsupported runes are lost.
func NewPDFRenderer(dir, fontPath string) *PDFRenderer {
	return &PDFRenderer{dir: dir, fontPath: fontPath, now: time.Now}
}

// Render writes text under title and returns the path of the new file.
func (r *PDFRenderer) Render(ctx context.Context, title, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyContent
	}
	if r.dir != "" {
		if err := os.MkdirAll(r.dir, 0o755); err != nil {
			return "", fmt.Errorf("create output dir: %w", err)
		}
	}

	now := r.now()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)

	family, style := "Helvetica", "B"
	tr := func(s string) string { return s }
	if r.fontPath != "" {
		pdf.AddUTF8Font(bodyFamily, "", r.fontPath)
		family, style = bodyFamily, ""
	} else {
		tr = pdf.UnicodeTranslatorFromDescriptor("")
	}

	pdf.AddPage()
	pdf.SetFont(family, style, 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(family, "", 10)
	pdf.CellFormat(0, 8, tr("Generated on: "+now.Format("2006-01-02 15:04:05")), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont(family, "", 11)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			pdf.Ln(3)
			continue
		}
		pdf.MultiCell(0, 6, tr(line), "", "L", false)
	}

	if err := pdf.Error(); err != nil {
		return "", fmt.Errorf("render pdf: %w", err)
	}

	name := fmt.Sprintf("news_report_%s_%s.pdf", now.Format("20060102_150405"), uuid.NewString()[:8])
	path := filepath.Join(r.dir, name)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat pdf: %w", err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("pdf file was not created properly: %s", path)
	}

	log.FromCtx(ctx).Debug().Str("path", path).Int64("bytes", info.Size()).Msg("pdf rendered")
	return path, nil
}
