package domain

// Entity is one span tagged by a named-entity recognizer.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

const (
	EntityOrganization = "ORG"
	EntityGeopolitical = "GPE"
	EntityLocation     = "LOC"
)

// MetadataRecord holds extracted fields. TenderIDs and InvoiceIDs keep every
// match; the other fields are de-duplicated.
type MetadataRecord struct {
	TenderIDs     []string `json:"tender_ids"`
	InvoiceIDs    []string `json:"invoice_ids"`
	Amounts       []string `json:"amounts"`
	Dates         []string `json:"dates"`
	Emails        []string `json:"emails"`
	PhoneNumbers  []string `json:"phone_numbers"`
	URLs          []string `json:"urls"`
	Organizations []string `json:"organizations"`
	Locations     []string `json:"locations"`
	Keywords      []string `json:"keywords"`
}

func EmptyMetadata() MetadataRecord {
	return MetadataRecord{
		TenderIDs:     []string{},
		InvoiceIDs:    []string{},
		Amounts:       []string{},
		Dates:         []string{},
		Emails:        []string{},
		PhoneNumbers:  []string{},
		URLs:          []string{},
		Organizations: []string{},
		Locations:     []string{},
		Keywords:      []string{},
	}
}
