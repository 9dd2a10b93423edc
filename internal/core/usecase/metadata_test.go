package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

type nerFake struct {
	entities []domain.Entity
	err      error
	calls    int
}

func (f *nerFake) Recognize(context.Context, string) ([]domain.Entity, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.entities, nil
}

func TestNormalizeAmount(t *testing.T) {
	cases := map[string]string{
		"Rs. 12,000":    "₹ 12,000",
		"Rs.12000":      "₹ 12,000",
		"INR 5,00,000":  "₹ 500,000",
		"₹ 1,200.00":    "₹ 1,200.00",
		"1,234.5":       "₹ 1,234.50",
		"45.00":         "₹ 45.00",
		"₹ 1.2.3":       "₹ 1.2.3",
		"  Rs  750  ":   "₹ 750",
		"12,50,000.75":  "₹ 1,250,000.75",
		"INR 1,000,000": "₹ 1,000,000",
	}
	for in, want := range cases {
		if got := NormalizeAmount(in); got != want {
			t.Errorf("NormalizeAmount(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeAmountIsIdempotent(t *testing.T) {
	for _, in := range []string{"₹ 1,200.00", "Rs. 12,000", "3,400.5", "INR 99", "Rs. 99999999999999999999", "₹1.2.3"} {
		once := NormalizeAmount(in)
		if twice := NormalizeAmount(once); twice != once {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestMetadataEmptyText(t *testing.T) {
	ner := &nerFake{}
	got := NewMetadataUseCase(ner, nil).Extract(context.Background(), "")
	if !reflect.DeepEqual(got, domain.EmptyMetadata()) {
		t.Fatalf("expected empty metadata, got %+v", got)
	}
	if ner.calls != 0 {
		t.Fatalf("ner must not be called for empty text")
	}
}

func TestMetadataInvoiceAndAmount(t *testing.T) {
	text := "Please settle INV-4521 for Rs. 12,000 at the earliest."
	got := NewMetadataUseCase(&nerFake{}, nil).Extract(context.Background(), text)

	if !reflect.DeepEqual(got.InvoiceIDs, []string{"INV-4521"}) {
		t.Fatalf("invoice_ids = %v", got.InvoiceIDs)
	}
	if !reflect.DeepEqual(got.Amounts, []string{"₹ 12,000"}) {
		t.Fatalf("amounts = %v", got.Amounts)
	}
}

func TestMetadataFieldsAndMultiplicity(t *testing.T) {
	text := `Tender KMRL/PROC/2023/045 and KMRL/PROC/2023/045 were re-issued.
Invoices INV-1 and INV-1 relate to ₹ 1,200.00 and Rs 1200.
Meeting on 12/03/2024 and 12/03/2024. Mail ops@kmrl.co.in or ops@kmrl.co.in.
Call 9876543210 or 484-255-0123. See https://kochimetro.org/tenders, and www.kmrl.co.in.
Safety audit and AUDIT of the metro station.`

	ner := &nerFake{entities: []domain.Entity{
		{Text: "KMRL", Label: "ORG"},
		{Text: "KMRL", Label: "ORG"},
		{Text: "Kochi", Label: "GPE"},
		{Text: "Aluva", Label: "LOC"},
		{Text: "John", Label: "PERSON"},
	}}
	got := NewMetadataUseCase(ner, nil).Extract(context.Background(), text)

	if !reflect.DeepEqual(got.TenderIDs, []string{"KMRL/PROC/2023/045", "KMRL/PROC/2023/045"}) {
		t.Fatalf("tender_ids = %v", got.TenderIDs)
	}
	if !reflect.DeepEqual(got.InvoiceIDs, []string{"INV-1", "INV-1"}) {
		t.Fatalf("invoice_ids = %v", got.InvoiceIDs)
	}
	if !reflect.DeepEqual(got.Amounts, []string{"₹ 1,200.00", "₹ 1,200"}) {
		t.Fatalf("amounts = %v", got.Amounts)
	}
	if !reflect.DeepEqual(got.Dates, []string{"12/03/2024"}) {
		t.Fatalf("dates = %v", got.Dates)
	}
	if !reflect.DeepEqual(got.Emails, []string{"ops@kmrl.co.in"}) {
		t.Fatalf("emails = %v", got.Emails)
	}
	if !reflect.DeepEqual(got.PhoneNumbers, []string{"9876543210", "484-255-0123"}) {
		t.Fatalf("phone_numbers = %v", got.PhoneNumbers)
	}
	if !reflect.DeepEqual(got.URLs, []string{"https://kochimetro.org/tenders", "www.kmrl.co.in"}) {
		t.Fatalf("urls = %v", got.URLs)
	}
	if !reflect.DeepEqual(got.Organizations, []string{"KMRL"}) {
		t.Fatalf("organizations = %v", got.Organizations)
	}
	if !reflect.DeepEqual(got.Locations, []string{"Kochi", "Aluva"}) {
		t.Fatalf("locations = %v", got.Locations)
	}
	for _, kw := range []string{"tender", "audit", "safety", "metro", "station"} {
		if !contains(got.Keywords, kw) {
			t.Fatalf("keywords %v missing %q", got.Keywords, kw)
		}
	}

	for name, field := range map[string][]string{
		"amounts": got.Amounts, "dates": got.Dates, "emails": got.Emails,
		"phone_numbers": got.PhoneNumbers, "urls": got.URLs, "organizations": got.Organizations,
		"locations": got.Locations, "keywords": got.Keywords,
	} {
		if len(dedupe(field)) != len(field) {
			t.Fatalf("%s has duplicates: %v", name, field)
		}
	}
}

func TestMetadataKeywordsAreWholeWord(t *testing.T) {
	got := NewMetadataUseCase(nil, []string{"audit", "rolling stock"}).Extract(context.Background(), "Auditorium booking; ROLLING STOCK review")
	if !reflect.DeepEqual(got.Keywords, []string{"rolling stock"}) {
		t.Fatalf("keywords = %v", got.Keywords)
	}
}

func TestMetadataNERFailureKeepsRegexFields(t *testing.T) {
	got := NewMetadataUseCase(&nerFake{err: errors.New("model offline")}, nil).Extract(context.Background(), "INV-77 contact a@b.io")
	if len(got.Organizations) != 0 || len(got.Locations) != 0 || got.Organizations == nil {
		t.Fatalf("expected empty entity lists, got %+v", got)
	}
	if !reflect.DeepEqual(got.InvoiceIDs, []string{"INV-77"}) || !reflect.DeepEqual(got.Emails, []string{"a@b.io"}) {
		t.Fatalf("regex fields lost: %+v", got)
	}
}

func contains(items []string, target string) bool {
	return indexOf(items, target) >= 0
}

func TestMetadataIndianGroupedAmounts(t *testing.T) {
	cases := map[string][]string{
		"Contract value 1,00,000 payable.":       {"₹ 100,000"},
		"Total 12,50,000.00 approved.":           {"₹ 1,250,000.00"},
		"Outlay of 2,45,00,000 for phase two.":   {"₹ 24,500,000"},
		"Rs. 1,00,000 and 3,400,500 transferred": {"₹ 100,000", "₹ 3,400,500"},
	}
	uc := NewMetadataUseCase(nil, []string{})
	for text, want := range cases {
		got := uc.Extract(context.Background(), text)
		if !reflect.DeepEqual(got.Amounts, want) {
			t.Errorf("Extract(%q).Amounts = %v, want %v", text, got.Amounts, want)
		}
	}
}

func TestMetadataAmountNeverStartsMidNumber(t *testing.T) {
	got := NewMetadataUseCase(nil, []string{}).Extract(context.Background(), "Ref 12,3456,789 noted.")
	for _, amount := range got.Amounts {
		if amount == "₹ 456,789" || amount == "₹ 789" {
			t.Fatalf("amount taken from the middle of a number: %v", got.Amounts)
		}
	}
}

func TestMetadataPhoneIgnoresInvoiceDigits(t *testing.T) {
	got := NewMetadataUseCase(nil, []string{}).Extract(context.Background(), "Call 9876543210 about INV-1234567890.")
	if !reflect.DeepEqual(got.PhoneNumbers, []string{"9876543210"}) {
		t.Fatalf("phone_numbers = %v", got.PhoneNumbers)
	}
	if !reflect.DeepEqual(got.InvoiceIDs, []string{"INV-1234567890"}) {
		t.Fatalf("invoice_ids = %v", got.InvoiceIDs)
	}
}
