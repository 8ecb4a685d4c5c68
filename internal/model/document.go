package model

import (
	"fmt"
	"time"
)

// DocumentType is the closed set of document kinds the pipeline can assign.
// A document's type is decided once, at validation time, and never mutated.
type DocumentType string

const (
	TypeFlujoDeFondos      DocumentType = "Flujo de Fondos"
	TypeBalance            DocumentType = "Balance"
	TypeInformeProfesional DocumentType = "Informe Profesional"
	TypeDICOSE             DocumentType = "DICOSE"
	TypeDETA               DocumentType = "DETA"
	TypeUnrecognized       DocumentType = "Unrecognized"
)

// CompanyCategory is the declared category of the applying company.
// The empty string means "not selected yet".
type CompanyCategory string

const (
	CategoryRegular      CompanyCategory = "regular"
	CategoryAgricultural CompanyCategory = "agricultural"
	CategoryNew          CompanyCategory = "new"
	CategoryUnset        CompanyCategory = ""
)

// ParseCompanyCategory maps user input to a known category.
func ParseCompanyCategory(s string) (CompanyCategory, error) {
	switch CompanyCategory(s) {
	case CategoryRegular, CategoryAgricultural, CategoryNew, CategoryUnset:
		return CompanyCategory(s), nil
	}
	return CategoryUnset, fmt.Errorf("unknown company category %q", s)
}

// ReasonCode classifies why a document was rejected (or flagged).
// These are business outcomes, not transport errors.
type ReasonCode string

const (
	ReasonNone                 ReasonCode = ""
	ReasonUnsupportedFormat    ReasonCode = "UNSUPPORTED_FORMAT"
	ReasonStructuralIncomplete ReasonCode = "STRUCTURAL_INCOMPLETE"
	ReasonCrossDocument        ReasonCode = "CROSS_DOCUMENT_INCONSISTENCY"
	ReasonWrongCategory        ReasonCode = "WRONG_COMPANY_CATEGORY"
	ReasonOracleIndeterminate  ReasonCode = "ORACLE_INDETERMINATE"
	ReasonQuotaExceeded        ReasonCode = "QUOTA_EXCEEDED"
	ReasonMissingContext       ReasonCode = "MISSING_CONTEXT"
	ReasonCorruptFile          ReasonCode = "CORRUPT_FILE"
	ReasonNotRecognized        ReasonCode = "NOT_RECOGNIZED"
)

// Document is one validated (or rejected) submission. Instances are
// immutable: a revalidation produces a new Document that supersedes the
// previous one through the store's upsert policy.
type Document struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Locator           string          `json:"locator"`
	UploadedAt        time.Time       `json:"uploaded_at"`
	IsValid           bool            `json:"is_valid"`
	ValidationMessage string          `json:"validation_message,omitempty"`
	DocumentType      DocumentType    `json:"document_type"`
	CompanyCategory   CompanyCategory `json:"company_category,omitempty"`
	DocumentYear      *int            `json:"document_year,omitempty"`
	ReasonCode        ReasonCode      `json:"reason_code,omitempty"`
}

// IdentityKey derives the grouping key used by the upsert/replace policy.
// Balance and DICOSE documents of agricultural and new companies are kept
// per year; every other combination collapses to (type, category).
func (d Document) IdentityKey() string {
	key := string(d.DocumentType) + "|" + string(d.CompanyCategory)
	yearMatters := d.DocumentType == TypeBalance || d.DocumentType == TypeDICOSE
	categoryMatters := d.CompanyCategory == CategoryAgricultural || d.CompanyCategory == CategoryNew
	if yearMatters && categoryMatters && d.DocumentYear != nil {
		key += fmt.Sprintf("|%d", *d.DocumentYear)
	}
	return key
}

// Year is a nil-safe accessor for DocumentYear.
func (d Document) Year() (int, bool) {
	if d.DocumentYear == nil {
		return 0, false
	}
	return *d.DocumentYear, true
}
