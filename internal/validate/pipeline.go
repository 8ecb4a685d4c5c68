// Package validate implements the per-type document validators and the
// cross-document consistency checks. A validator is a pure function of the
// normalized content, the extracted facts, the organizational context and
// the current document snapshot; fuzzy sub-decisions are delegated to the
// oracle, which never fails hard (see the oracle package contract).
package validate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"credocs/internal/classify"
	"credocs/internal/content"
	"credocs/internal/facts"
	"credocs/internal/model"
	"credocs/internal/oracle"
)

// Minimum plain-text lengths below which a document of the given type is
// considered incomplete. Binary uploads (filename proxies) are exempt.
const (
	minLenDICOSE  = 50
	minLenDETA    = 100
	minLenFlujo   = 100
	minLenBalance = 150
	minLenInforme = 50
)

// Debt thresholds (UYU) mapping the declared maximum debt to the minimum
// required assurance tier of an Informe Profesional.
const (
	debtLimitedReviewThreshold = 900_000
	debtAuditThreshold         = 2_400_000
)

// Input is everything a validator may look at.
type Input struct {
	Extracted content.Extracted
	Filename  string
	Context   model.OrganizationalContext
	// Existing is the current snapshot of stored documents, read fresh for
	// every validation call.
	Existing []model.Document
	// Facts holds the probe signals. Evaluate fills it in; callers leave it
	// zero.
	Facts facts.Facts
}

// Verdict is a validator's terminal decision.
type Verdict struct {
	Type    model.DocumentType
	Valid   bool
	Message string
	Reason  model.ReasonCode
	Year    *int
}

func invalid(t model.DocumentType, reason model.ReasonCode, msg string) Verdict {
	return Verdict{Type: t, Valid: false, Reason: reason, Message: msg}
}

// Pipeline wires the classifier, the oracle and the integrity gate into the
// classify → extract → validate flow.
type Pipeline struct {
	classifier *classify.Classifier
	probes     *facts.Registry
	oracle     oracle.Oracle
	gate       Gate
	now        func() time.Time
}

// NewPipeline builds a validation pipeline. A nil gate allows everything;
// a nil clock defaults to time.Now.
func NewPipeline(o oracle.Oracle, gate Gate, now func() time.Time) *Pipeline {
	if gate == nil {
		gate = AllowAll
	}
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		classifier: classify.New(),
		probes:     facts.NewRegistry(now),
		oracle:     o,
		gate:       gate,
		now:        now,
	}
}

// UnsupportedFormatVerdict is the short-circuit result produced before any
// classification when the upload's extension is not accepted.
func UnsupportedFormatVerdict() Verdict {
	exts := content.SupportedExtensions()
	upper := make([]string, len(exts))
	for i, e := range exts {
		upper[i] = strings.ToUpper(e)
	}
	return invalid(model.TypeUnrecognized, model.ReasonUnsupportedFormat,
		fmt.Sprintf("Unsupported file format. Please upload %s files.", joinOr(upper)))
}

// Evaluate runs classification and the matching validator, then the
// integrity gate. The verdict is terminal: callers turn it into a Document
// record and hand it to the store's upsert policy.
func (p *Pipeline) Evaluate(ctx context.Context, in Input) Verdict {
	docType := p.classifier.Classify(in.Extracted.Text, in.Filename)
	in.Facts = p.probes.Extract(in.Extracted.Text, in.Filename)

	var v Verdict
	switch docType {
	case model.TypeDICOSE:
		v = p.validateDICOSE(in)
	case model.TypeDETA:
		v = p.validateDETA(ctx, in)
	case model.TypeFlujoDeFondos:
		v = p.validateFlujoDeFondos(ctx, in)
	case model.TypeBalance:
		v = p.validateBalance(ctx, in)
	case model.TypeInformeProfesional:
		v = p.validateInformeProfesional(ctx, in)
	default:
		v = p.validateUnrecognized(in)
	}

	if v.Valid && !p.gate(v.Type, in.Extracted.Ext) {
		return Verdict{
			Type:   v.Type,
			Valid:  false,
			Reason: model.ReasonCorruptFile,
			Message: fmt.Sprintf(
				"%s PDF file appears to be corrupted or improperly formatted.", v.Type),
			Year: v.Year,
		}
	}
	return v
}

func (p *Pipeline) validateUnrecognized(in Input) Verdict {
	var required string
	switch in.Context.CompanyCategory {
	case model.CategoryAgricultural:
		required = "Flujo de Fondos, Balance, Informe Profesional, DICOSE, or DETA"
	case model.CategoryNew:
		required = "Balance (up to 3), Informe Profesional, or DICOSE"
	default:
		required = "Flujo de Fondos, Balance, or Informe Profesional"
	}
	return invalid(model.TypeUnrecognized, model.ReasonNotRecognized,
		fmt.Sprintf("Document type not recognized. Please upload one of the following: %s. "+
			"Ensure the document title and content clearly indicate the document type.", required))
}

// missingConcepts returns the required concept keywords absent from text.
func missingConcepts(text string, concepts []string) []string {
	var missing []string
	for _, c := range concepts {
		if !strings.Contains(text, c) {
			missing = append(missing, c)
		}
	}
	return missing
}

func joinOr(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", or " + items[len(items)-1]
	}
}
