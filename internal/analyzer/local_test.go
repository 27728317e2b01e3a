package analyzer

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestStem(t *testing.T) {
	cases := []struct {
		filename string
		want     string
	}{
		{"invoice.pdf", "invoice"},
		{"REPORT.PDF", "REPORT"},
		{"archive.tar.pdf", "archive.tar"},
		{".pdf", ".pdf"},
		{"..pdf", "..pdf"},
		{".hidden.pdf", ".hidden"},
	}
	for _, tc := range cases {
		if got := Stem(tc.filename); got != tc.want {
			t.Fatalf("%s: expected stem %q, got %q", tc.filename, tc.want, got)
		}
	}
}

func TestClassify(t *testing.T) {
	textPage := pageText{Number: 1, Text: strings.Repeat("lorem ipsum ", 20)}
	blankPage := pageText{Number: 2, Text: ""}

	cases := []struct {
		name  string
		pages []pageText
		want  Mode
	}{
		{"no pages", nil, ModeOCR},
		{"all text", []pageText{textPage, textPage, textPage}, ModeText},
		{"all blank", []pageText{blankPage, blankPage}, ModeOCR},
		{"mostly blank", []pageText{textPage, blankPage, blankPage}, ModeOCR},
		{"mostly text", []pageText{textPage, textPage, blankPage}, ModeText},
	}
	for _, tc := range cases {
		if got := classify(tc.pages); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestRenderMarkdown(t *testing.T) {
	pages := []pageText{
		{Number: 1, Text: "First page body."},
		{Number: 2, Text: ""},
	}

	md := renderMarkdown("invoice", ModeOCR, pages)
	if !strings.HasPrefix(md, "# invoice\n") {
		t.Fatalf("missing document heading: %q", md)
	}
	if !strings.Contains(md, "## Page 1") || !strings.Contains(md, "First page body.") {
		t.Fatalf("missing page content: %q", md)
	}
	if !strings.Contains(md, "OCR required") {
		t.Fatalf("blank page should be marked in OCR mode: %q", md)
	}
}

func TestContentListSkipsBlankPages(t *testing.T) {
	pages := []pageText{
		{Number: 1, Text: "alpha"},
		{Number: 2, Text: ""},
		{Number: 3, Text: "beta"},
	}

	blocks := contentList(pages)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].PageIdx != 0 || blocks[1].PageIdx != 2 {
		t.Fatalf("page indices must be zero-based source pages: %+v", blocks)
	}
	for _, b := range blocks {
		if b.Type != "text" {
			t.Fatalf("unexpected block type %q", b.Type)
		}
	}
}

func TestMiddleDocumentShape(t *testing.T) {
	pages := []pageText{{Number: 1, Text: "alpha"}}
	doc := middleDocument(ModeText, pages)

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["pdf_info"]; !ok {
		t.Fatalf("missing pdf_info key: %s", data)
	}
	info := doc.PDFInfo[0]
	if info.PageIdx != 0 || info.CharCount != 5 || info.ParseMode != "Text" {
		t.Fatalf("unexpected page info %+v", info)
	}
}
