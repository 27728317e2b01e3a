// Package analyzer defines the document-analysis collaborator the executor
// delegates to, plus a self-contained reference engine.
package analyzer

import (
	"context"
	"path/filepath"
	"strings"
)

// Mode is how a document was routed after classification.
type Mode string

const (
	ModeText Mode = "Text"
	ModeOCR  Mode = "OCR"
)

// GeneratedFiles lists the artifact paths an engine must produce under the
// job's output directory.
type GeneratedFiles struct {
	Markdown        string   `json:"markdown"`
	ContentListJSON string   `json:"content_list_json"`
	MiddleJSON      string   `json:"middle_json"`
	VisualReports   []string `json:"visual_reports"`
	ImageDir        string   `json:"image_dir"`
}

// Summary is the structured result an engine returns on success. It is stored
// verbatim in the result store and served by the status endpoint.
type Summary struct {
	Status          string         `json:"status"`
	InputFile       string         `json:"input_file"`
	AnalysisMode    Mode           `json:"analysis_mode"`
	OutputDirectory string         `json:"output_directory"`
	GeneratedFiles  GeneratedFiles `json:"generated_files"`
}

// Stem returns the base name a document's artifacts are keyed by: the
// filename with its extension removed. Dotfile names such as ".pdf" keep the
// whole name, so the stem is never empty and every job names a directory of
// its own under the output root.
func Stem(filename string) string {
	ext := filepath.Ext(strings.TrimLeft(filename, "."))
	if ext == "" {
		return filename
	}
	return strings.TrimSuffix(filename, ext)
}

// Engine is the capability the orchestration core depends on: read the PDF,
// classify it, write the fixed artifact set under outputDir, and return a
// summary. Any error means the whole job failed; there is no partial success.
type Engine interface {
	Analyze(ctx context.Context, pdfPath, outputDir string) (*Summary, error)
}
