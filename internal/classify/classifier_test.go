package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"credocs/internal/model"
)

func TestClassify(t *testing.T) {
	c := New()

	tests := []struct {
		name     string
		text     string
		filename string
		want     model.DocumentType
	}{
		{
			name: "dicose beats generic financial terms",
			text: "total assets and liabilities, registro dicose nro 1234",
			want: model.TypeDICOSE,
		},
		{
			name:     "dicose filename shortcut",
			text:     "binary proxy text without signal words",
			filename: "DICOSE_2023.pdf",
			want:     model.TypeDICOSE,
		},
		{
			name: "deta before cashflow",
			text: "declaración deta with opinion on cash flow",
			want: model.TypeDETA,
		},
		{
			name:     "deta filename shortcut",
			text:     "nothing useful",
			filename: "deta-final.docx",
			want:     model.TypeDETA,
		},
		{
			name: "cashflow before balance",
			text: "projected cashflow: operating activities, assets",
			want: model.TypeFlujoDeFondos,
		},
		{
			name: "balance sheet",
			text: "balance sheet with assets, liabilities and equity",
			want: model.TypeBalance,
		},
		{
			name: "informe profesional",
			text: "compilation report prepared by cpa",
			want: model.TypeInformeProfesional,
		},
		{
			name: "unrecognized",
			text: "grocery list: milk, eggs",
			want: model.TypeUnrecognized,
		},
		{
			name:     "content authoritative over non-agricultural filename",
			text:     "statement of financial position, assets",
			filename: "cashflow.txt",
			want:     model.TypeBalance,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.text, tt.filename))
		})
	}
}

func TestClassifyIdempotent(t *testing.T) {
	c := New()
	text := "flujo de fondos proyectado, financing activities 2026"
	first := c.Classify(text, "f.txt")
	assert.Equal(t, first, c.Classify(text, "f.txt"))
	assert.Equal(t, model.TypeFlujoDeFondos, first)
}
