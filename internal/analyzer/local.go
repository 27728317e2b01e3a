package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/rs/zerolog"
)

// Pages whose extractable text is shorter than this are treated as scan-like.
const minTextCharsPerPage = 16

// LocalEngine is a reference implementation of Engine built on pdfcpu and a
// plain-text PDF reader. It writes the same artifact set as the production
// analysis library: a markdown transcript, a content list, an intermediate
// structure document, three diagnostic overlay PDFs, and extracted images.
type LocalEngine struct {
	log zerolog.Logger
}

// NewLocalEngine builds the engine with an injected logger.
func NewLocalEngine(log zerolog.Logger) *LocalEngine {
	return &LocalEngine{log: log}
}

type pageText struct {
	Number int
	Text   string
}

type contentBlock struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	PageIdx int    `json:"page_idx"`
}

type pageInfo struct {
	PageIdx   int    `json:"page_idx"`
	CharCount int    `json:"char_count"`
	ParseMode string `json:"parse_mode"`
}

type middleDoc struct {
	PDFInfo []pageInfo `json:"pdf_info"`
	Version string     `json:"_version"`
}

// Analyze reads the PDF, classifies it, and writes every artifact under
// outputDir. The output directory must already exist.
func (e *LocalEngine) Analyze(ctx context.Context, pdfPath, outputDir string) (*Summary, error) {
	stem := Stem(filepath.Base(pdfPath))
	log := e.log.With().Str("pdf", pdfPath).Str("output_dir", outputDir).Logger()
	log.Info().Msg("analysis started")

	pages, err := extractPages(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := classify(pages)
	log.Info().Str("mode", string(mode)).Int("pages", len(pages)).Msg("document classified")

	imageDir := filepath.Join(outputDir, "images")
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}

	mdPath := filepath.Join(outputDir, stem+".md")
	if err := os.WriteFile(mdPath, []byte(renderMarkdown(stem, mode, pages)), 0o644); err != nil {
		return nil, fmt.Errorf("write markdown: %w", err)
	}

	contentPath := filepath.Join(outputDir, stem+"_content_list.json")
	if err := writeJSONFile(contentPath, contentList(pages)); err != nil {
		return nil, fmt.Errorf("write content list: %w", err)
	}

	middlePath := filepath.Join(outputDir, stem+"_middle.json")
	if err := writeJSONFile(middlePath, middleDocument(mode, pages)); err != nil {
		return nil, fmt.Errorf("write middle document: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reports, err := e.drawVisualReports(pdfPath, outputDir, stem)
	if err != nil {
		return nil, err
	}

	// Image-free documents make pdfcpu report nothing to extract; that is
	// not a failed analysis.
	if err := pdfapi.ExtractImagesFile(pdfPath, imageDir, nil, nil); err != nil {
		log.Warn().Err(err).Msg("image extraction produced no output")
	}

	log.Info().Msg("all output files generated")
	return &Summary{
		Status:          "success",
		InputFile:       pdfPath,
		AnalysisMode:    mode,
		OutputDirectory: outputDir,
		GeneratedFiles: GeneratedFiles{
			Markdown:        mdPath,
			ContentListJSON: contentPath,
			MiddleJSON:      middlePath,
			VisualReports:   reports,
			ImageDir:        imageDir,
		},
	}, nil
}

// drawVisualReports writes the three diagnostic overlays (model, layout,
// spans) as stamped copies of the source document.
func (e *LocalEngine) drawVisualReports(pdfPath, outputDir, stem string) ([]string, error) {
	overlays := []struct {
		suffix string
		label  string
	}{
		{"_model.pdf", "model"},
		{"_layout.pdf", "layout"},
		{"_spans.pdf", "spans"},
	}
	reports := make([]string, 0, len(overlays))
	for _, o := range overlays {
		outFile := filepath.Join(outputDir, stem+o.suffix)
		wm, err := pdfapi.TextWatermark(o.label, "points:48, op:.25, rot:45", true, false, types.POINTS)
		if err != nil {
			return nil, fmt.Errorf("build %s overlay: %w", o.label, err)
		}
		if err := pdfapi.AddWatermarksFile(pdfPath, outFile, nil, wm, nil); err != nil {
			return nil, fmt.Errorf("draw %s overlay: %w", o.label, err)
		}
		e.log.Debug().Str("report", outFile).Msg("generated visual report")
		reports = append(reports, outFile)
	}
	return reports, nil
}

func extractPages(path string) ([]pageText, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []pageText
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			// A page without a decodable text layer is the scan-like
			// signal, not a fatal condition.
			text = ""
		}
		pages = append(pages, pageText{Number: i, Text: strings.TrimSpace(text)})
	}
	return pages, nil
}

// classify routes a document to OCR mode when most pages carry no usable text
// layer, matching how a scanned document presents.
func classify(pages []pageText) Mode {
	if len(pages) == 0 {
		return ModeOCR
	}
	sparse := 0
	for _, p := range pages {
		if len(p.Text) < minTextCharsPerPage {
			sparse++
		}
	}
	if sparse*2 > len(pages) {
		return ModeOCR
	}
	return ModeText
}

func renderMarkdown(stem string, mode Mode, pages []pageText) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", stem)
	for _, p := range pages {
		fmt.Fprintf(&b, "## Page %d\n\n", p.Number)
		if p.Text == "" {
			if mode == ModeOCR {
				b.WriteString("*(no text layer; OCR required)*\n\n")
			}
			continue
		}
		b.WriteString(p.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

func contentList(pages []pageText) []contentBlock {
	blocks := make([]contentBlock, 0, len(pages))
	for _, p := range pages {
		if p.Text == "" {
			continue
		}
		blocks = append(blocks, contentBlock{
			Type:    "text",
			Text:    p.Text,
			PageIdx: p.Number - 1,
		})
	}
	return blocks
}

func middleDocument(mode Mode, pages []pageText) middleDoc {
	infos := make([]pageInfo, 0, len(pages))
	for _, p := range pages {
		infos = append(infos, pageInfo{
			PageIdx:   p.Number - 1,
			CharCount: len(p.Text),
			ParseMode: string(mode),
		})
	}
	return middleDoc{PDFInfo: infos, Version: "1.0"}
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
