package usecase

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/core/ports"
)

var (
	tenderIDPattern  = regexp.MustCompile(`\b[A-Z]{2,10}(?:/[A-Z0-9-]+)*/\d{4}(?:-\d{2,4})?/\d+\b`)
	invoiceIDPattern = regexp.MustCompile(`(?i)\bINV[-/]?\d+\b`)
	amountPattern    = regexp.MustCompile(`(?:₹|\bRs\.?|\bINR)\s*\d[\d,]*(?:\.\d+)?|\b\d{1,3}(?:(?:,\d{3})+|(?:,\d{2})*,\d{3})(?:\.\d{2})?\b|\b\d+\.\d{2}\b`)
	datePattern      = regexp.MustCompile(`\b\d{1,2}[-/]\d{1,2}[-/]\d{2,4}\b`)
	emailPattern     = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern     = regexp.MustCompile(`\b\d{10}\b|\b\d{3}[-.\s]\d{3}[-.\s]\d{4}\b`)
	urlPattern       = regexp.MustCompile(`https?://[^\s<>"]+|www\.[^\s<>"]+`)
)

type MetadataUseCase struct {
	ner      ports.EntityRecognizer
	keywords []*keywordMatcher
}

type keywordMatcher struct {
	term    string
	pattern *regexp.Regexp
}

func NewMetadataUseCase(ner ports.EntityRecognizer, terms []string) *MetadataUseCase {
	if terms == nil {
		terms = domain.FocusTerms
	}
	matchers := make([]*keywordMatcher, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		matchers = append(matchers, &keywordMatcher{
			term:    term,
			pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`),
		})
	}
	return &MetadataUseCase{ner: ner, keywords: matchers}
}

func (uc *MetadataUseCase) Extract(ctx context.Context, text string) domain.MetadataRecord {
	record := domain.EmptyMetadata()
	if strings.TrimSpace(text) == "" {
		return record
	}

	tenderSpans := tenderIDPattern.FindAllStringIndex(text, -1)
	invoiceSpans := invoiceIDPattern.FindAllStringIndex(text, -1)
	record.TenderIDs = appendAll(record.TenderIDs, spanText(text, tenderSpans))
	record.InvoiceIDs = appendAll(record.InvoiceIDs, spanText(text, invoiceSpans))

	amounts := findAmounts(text)
	normalized := make([]string, 0, len(amounts))
	for _, amount := range amounts {
		normalized = append(normalized, NormalizeAmount(strings.TrimRight(amount, ",")))
	}
	record.Amounts = dedupe(normalized)
	record.Dates = dedupe(datePattern.FindAllString(text, -1))
	record.Emails = dedupe(emailPattern.FindAllString(text, -1))
	record.PhoneNumbers = dedupe(findPhones(text, append(tenderSpans, invoiceSpans...)))
	record.URLs = dedupe(trimURLs(urlPattern.FindAllString(text, -1)))

	orgs, locs := uc.entities(ctx, text)
	record.Organizations = dedupe(orgs)
	record.Locations = dedupe(locs)

	for _, kw := range uc.keywords {
		if kw.pattern.MatchString(text) {
			record.Keywords = append(record.Keywords, kw.term)
		}
	}
	record.Keywords = dedupe(record.Keywords)
	return record
}

func (uc *MetadataUseCase) entities(ctx context.Context, text string) ([]string, []string) {
	orgs := []string{}
	locs := []string{}
	if uc.ner == nil {
		return orgs, locs
	}
	entities, err := uc.ner.Recognize(ctx, text)
	if err != nil {
		slog.Warn("ner_failed", "error", err)
		return orgs, locs
	}
	for _, entity := range entities {
		value := strings.TrimSpace(entity.Text)
		if value == "" {
			continue
		}
		switch strings.ToUpper(entity.Label) {
		case domain.EntityOrganization:
			orgs = append(orgs, value)
		case domain.EntityGeopolitical, domain.EntityLocation:
			locs = append(locs, value)
		}
	}
	return orgs, locs
}

// findAmounts skips matches that start inside a longer digit group, so an
// unfamiliar grouping is never normalized from its tail.
func findAmounts(text string) []string {
	var out []string
	for _, loc := range amountPattern.FindAllStringIndex(text, -1) {
		start := loc[0]
		if start >= 2 && (text[start-1] == ',' || text[start-1] == '.') && isDigit(text[start-2]) {
			continue
		}
		out = append(out, text[start:loc[1]])
	}
	return out
}

// findPhones drops digit runs that belong to a tender or invoice ID.
func findPhones(text string, idSpans [][]int) []string {
	var out []string
	for _, loc := range phonePattern.FindAllStringIndex(text, -1) {
		if insideAny(loc, idSpans) {
			continue
		}
		out = append(out, text[loc[0]:loc[1]])
	}
	return out
}

func insideAny(loc []int, spans [][]int) bool {
	for _, span := range spans {
		if loc[0] >= span[0] && loc[1] <= span[1] {
			return true
		}
	}
	return false
}

func spanText(text string, spans [][]int) []string {
	out := make([]string, 0, len(spans))
	for _, span := range spans {
		out = append(out, text[span[0]:span[1]])
	}
	return out
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func appendAll(dst, src []string) []string {
	return append(dst, src...)
}

// dedupe keeps the first occurrence of every value, in input order.
func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func trimURLs(urls []string) []string {
	for i, u := range urls {
		urls[i] = strings.TrimRight(u, ".,;:)")
	}
	return urls
}
