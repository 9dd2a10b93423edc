package domain

import (
	"errors"
	"fmt"
	"strings"
)

type Department struct {
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// Taxonomy is the ordered department list. Order matters: the keyword pass
// picks the first matching department. Keywords match as plain substrings,
// so short words that hide inside common English words need a qualifier.
type Taxonomy struct {
	Departments []Department `json:"departments" yaml:"departments"`
}

func (t Taxonomy) Labels() []string {
	out := make([]string, 0, len(t.Departments))
	for _, d := range t.Departments {
		out = append(out, d.Name)
	}
	return out
}

func (t Taxonomy) Validate() error {
	if len(t.Departments) == 0 {
		return errors.New("taxonomy has no departments")
	}
	seen := make(map[string]struct{}, len(t.Departments))
	for i, d := range t.Departments {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return fmt.Errorf("department %d has empty name", i)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("duplicate department %q", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func DefaultTaxonomy() Taxonomy {
	return Taxonomy{Departments: []Department{
		{Name: "Operations & Maintenance", Keywords: []string{"train operation", "maintenance schedule", "rolling stock", "depot", "timetable", "breakdown", "preventive maintenance", "overhaul"}},
		{Name: "Engineering & Infrastructure", Keywords: []string{"civil works", "viaduct", "track work", "structural", "infrastructure", "bridge", "alignment", "construction drawing"}},
		{Name: "Electrical & Mechanical", Keywords: []string{"traction power", "substation", "electrical", "escalator", "elevator", "hvac", "transformer", "signalling"}},
		{Name: "Finance & Accounts", Keywords: []string{"invoice", "payment", "budget", "audit report", "ledger", "gstin", "reimbursement", "balance sheet"}},
		{Name: "Human Resources", Keywords: []string{"recruitment", "salary", "leave application", "appraisal", "employee", "training programme", "payroll", "promotion"}},
		{Name: "Legal & Compliance", Keywords: []string{"legal notice", "litigation", "court order", "compliance", "regulation", "affidavit", "arbitration", "statutory"}},
		{Name: "Procurement & Contracts", Keywords: []string{"tender", "purchase order", "procurement", "quotation", "bid document", "vendor", "contract award", "earnest money"}},
		{Name: "Corporate Communications", Keywords: []string{"press release", "media briefing", "newsletter", "public relations", "announcement", "social media"}},
		{Name: "Business Development", Keywords: []string{"partnership", "revenue", "advertising", "commercial", "lease agreement", "feeder service", "business plan"}},
		{Name: "Vigilance & Security", Keywords: []string{"security", "cctv", "vigilance", "surveillance", "incident report", "theft", "access control"}},
		{Name: "Information Technology & Systems", Keywords: []string{"software", "servers", "network", "information system", "database", "cyber", "software application", "hardware"}},
		{Name: "Planning & Development", Keywords: []string{"master plan", "feasibility", "detailed project report", "dpr", "ridership", "line extension", "land acquisition"}},
		{Name: "Environment & Sustainability", Keywords: []string{"environment", "solar", "emission", "waste", "green", "pollution", "sustainability", "energy audit"}},
		{Name: "Customer Relations & Services", Keywords: []string{"complaint", "passenger", "customer", "feedback", "grievance", "lost and found", "smart card"}},
		{Name: "Project Management", Keywords: []string{"project schedule", "milestone", "progress report", "gantt", "project status", "work package", "deliverable"}},
	}}
}

// FocusTerms are the department-adjacent terms surfaced as metadata keywords.
var FocusTerms = []string{
	"tender", "invoice", "contract", "payment", "budget", "audit",
	"maintenance", "safety", "security", "procurement", "recruitment",
	"salary", "training", "inspection", "compliance", "project",
	"complaint", "environment", "signalling", "rolling stock",
	"station", "metro", "deadline", "approval",
}
