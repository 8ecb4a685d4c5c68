// Package classify assigns a document type from normalized text using an
// ordered table of keyword rules. First match wins; agricultural registry
// types are checked before generic financial types because they share
// vocabulary with them and are the more specific signal.
package classify

import (
	"strings"

	"credocs/internal/model"
)

// Rule is one keyword matcher in the precedence table.
type Rule struct {
	Type model.DocumentType
	// Keywords are matched as substrings against the normalized content.
	Keywords []string
	// FilenameKeywords are matched against the lowercased filename only.
	// Content is otherwise authoritative; this shortcut exists solely for
	// DICOSE and DETA, whose filenames are a reliable signal on their own.
	FilenameKeywords []string
}

// Rules returns the default precedence table. The order is deliberate: a
// document mentioning both "assets" and "dicose" classifies as DICOSE.
func Rules() []Rule {
	return []Rule{
		{
			Type: model.TypeDICOSE,
			Keywords: []string{
				"dicose", "registro dicose", "declaración dicose",
				"certificado dicose", "documento dicose",
				"dicose certificate", "agricultural registration",
			},
			FilenameKeywords: []string{"dicose"},
		},
		{
			Type: model.TypeDETA,
			Keywords: []string{
				"deta", "declaración deta", "registro deta",
				"certificado deta", "documento deta",
				"deta certificate", "agricultural declaration",
			},
			FilenameKeywords: []string{"deta"},
		},
		{
			Type: model.TypeFlujoDeFondos,
			Keywords: []string{
				"flujo de fondos", "cashflow", "cash flow", "cash-flow",
				"projected cashflow", "cash projection",
				"operating activities", "investing activities",
				"financing activities", "net cash flow",
				"cash receipts", "cash payments", "cash position",
			},
		},
		{
			Type: model.TypeBalance,
			Keywords: []string{
				"balance", "balance sheet", "financial statement",
				"estado de situación patrimonial", "income statement",
				"profit and loss", "p&l", "statement of financial position",
				"assets", "liabilities", "equity", "revenue", "expenses",
				"net income", "comprehensive income", "retained earnings",
			},
		},
		{
			Type: model.TypeInformeProfesional,
			Keywords: []string{
				"informe profesional", "accountant declaration",
				"accountant statement", "cpa declaration",
				"certified public accountant", "auditor declaration",
				"professional opinion", "accountant certification",
				"financial review", "compilation report", "certified by",
				"prepared by cpa", "accountant signature",
			},
		},
	}
}

// Classifier evaluates the rule table. It is stateless and safe for
// concurrent use.
type Classifier struct {
	rules []Rule
}

// New builds a classifier over the default rule table.
func New() *Classifier {
	return &Classifier{rules: Rules()}
}

// Classify returns the first matching document type, or Unrecognized.
func (c *Classifier) Classify(text, filename string) model.DocumentType {
	name := strings.ToLower(filename)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				return rule.Type
			}
		}
		for _, kw := range rule.FilenameKeywords {
			if strings.Contains(name, kw) {
				return rule.Type
			}
		}
	}
	return model.TypeUnrecognized
}
