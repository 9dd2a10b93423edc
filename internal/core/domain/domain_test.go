package domain

import "testing"

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		filename, contentType string
		want                  Format
	}{
		{"scan.PDF", "", FormatPDF},
		{"memo.docx", "application/octet-stream", FormatDOCX},
		{"sheet.xlsx", "", FormatXLSX},
		{"notes.txt", "", FormatText},
		{"photo.jpeg", "", FormatImage},
		{"upload", "application/pdf; charset=binary", FormatPDF},
		{"upload", "image/tiff", FormatImage},
		{"upload.bin", "application/zip", FormatUnknown},
	}
	for _, tc := range cases {
		if got := DetectFormat(tc.filename, tc.contentType); got != tc.want {
			t.Errorf("DetectFormat(%q, %q) = %q, want %q", tc.filename, tc.contentType, got, tc.want)
		}
	}
}

func TestNewExtractionResultSuccessTracksText(t *testing.T) {
	res := NewExtractionResult("  \n ", SourceOCR, FormatImage, 1)
	if res.Success || res.Text != "" || res.Source != SourceNone {
		t.Fatalf("blank text must not be a success: %+v", res)
	}
	res = NewExtractionResult(" text ", SourceDirect, FormatPDF, 2)
	if !res.Success || res.Text != "text" || res.Source != SourceDirect {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestArgMaxFirstOccurrence(t *testing.T) {
	if got := ArgMax(nil); got != -1 {
		t.Fatalf("ArgMax(nil) = %d", got)
	}
	if got := ArgMax([]float64{0.1, 0.7, 0.7, 0.2}); got != 1 {
		t.Fatalf("ArgMax() = %d, want 1", got)
	}
}

func TestParseLanguageTag(t *testing.T) {
	for in, want := range map[string]LanguageTag{"EN": LanguageEnglish, " ml ": LanguageMalayalam, "": LanguageUnknown, "zh-cn": LanguageUnknown, "1a": LanguageUnknown} {
		if got := ParseLanguageTag(in); got != want {
			t.Errorf("ParseLanguageTag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefaultTaxonomyIsValid(t *testing.T) {
	tax := DefaultTaxonomy()
	if err := tax.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(tax.Labels()) != 15 {
		t.Fatalf("expected 15 departments, got %d", len(tax.Labels()))
	}
	dup := Taxonomy{Departments: []Department{{Name: "A"}, {Name: "A"}}}
	if err := dup.Validate(); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if err := (Taxonomy{}).Validate(); err == nil {
		t.Fatalf("expected empty taxonomy error")
	}
}
