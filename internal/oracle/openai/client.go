package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"credocs/internal/oracle"
)

const systemPrompt = "You are an assistant that analyzes Uruguayan credit-application " +
	"documents (financial statements, projected cashflows, accountant reports, " +
	"agricultural declarations). Answer ONLY with JSON matching the provided schema. " +
	"Use null or \"unknown\"/\"none\" when the document does not state something clearly."

var _ oracle.Oracle = (*Client)(nil)

// ClassifyReportTier asks which assurance tier an accountant report carries.
func (c *Client) ClassifyReportTier(ctx context.Context, text string, debt oracle.DebtContext) oracle.ReportTier {
	user := "Classify the assurance tier of this accountant report as one of: " +
		"compilation, limited review, audit, indeterminate."
	if debt.MaxDebtAmount != nil {
		user += fmt.Sprintf(" The applicant declared a maximum debt of %.2f UYU.", *debt.MaxDebtAmount)
	}
	var out struct {
		Tier string `json:"tier"`
	}
	if !c.ask(ctx, "report_tier", tierSchema, tierSchemaJSON, user, text, &out) {
		return oracle.TierIndeterminate
	}
	return oracle.ParseReportTier(out.Tier)
}

// CheckAccountingEquation extracts assets, liabilities and equity. The
// model's own "difference" field is accepted by the schema but ignored here:
// callers recompute it from the extracted numbers.
func (c *Client) CheckAccountingEquation(ctx context.Context, text string) oracle.AccountingFigures {
	user := "Extract total assets, total liabilities and total equity as numbers, " +
		"plus the difference assets - (liabilities + equity) if the document states one."
	var out struct {
		Assets      *float64          `json:"assets"`
		Liabilities *float64          `json:"liabilities"`
		Equity      *float64          `json:"equity"`
		Difference  *float64          `json:"difference"`
		Confidence  oracle.Confidence `json:"confidence"`
	}
	if !c.ask(ctx, "accounting_equation", equationSchema, equationSchemaJSON, user, text, &out) {
		return oracle.AccountingFigures{Confidence: oracle.ConfidenceNone}
	}
	return oracle.AccountingFigures{
		Assets:      out.Assets,
		Liabilities: out.Liabilities,
		Equity:      out.Equity,
		Confidence:  out.Confidence,
	}
}

// CheckDualOpinions asks whether the declaration contains both required
// professional opinions.
func (c *Client) CheckDualOpinions(ctx context.Context, text string) oracle.DualOpinions {
	user := "Does this declaration contain (a) an opinion on the projected cashflow " +
		"and (b) an overall opinion on the credit application? " +
		"Answer present/absent/unknown for each."
	var out oracle.DualOpinions
	if !c.ask(ctx, "dual_opinions", opinionsSchema, opinionsSchemaJSON, user, text, &out) {
		return oracle.DualOpinions{Cashflow: oracle.Unknown, Credit: oracle.Unknown}
	}
	return out
}

// CheckProjectionCoverage asks how far the projection claims to reach.
func (c *Client) CheckProjectionCoverage(ctx context.Context, text string) oracle.ProjectionCoverage {
	user := "Determine how far into the future this projected cashflow reaches: " +
		"either the explicit final projection year, or the projection duration in years."
	var out oracle.ProjectionCoverage
	if !c.ask(ctx, "projection_coverage", coverageSchema, coverageSchemaJSON, user, text, &out) {
		return oracle.ProjectionCoverage{Confidence: oracle.ConfidenceNone}
	}
	return out
}

// ask performs one structured completion round-trip. It returns false when
// anything went wrong; the caller substitutes its degraded result.
func (c *Client) ask(ctx context.Context, task string, schema *jsonschema.Schema, schemaJSON, instruction, document string, out any) bool {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("oracle.ask.start",
		"req_id", rid,
		"task", task,
		"model", c.cfg.Model,
		"text_len", len(document),
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": instruction + "\n\nDocument:\n" + document},
			{"role": "system", "content": "JSON Schema:\n" + schemaJSON},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.log.Error("oracle.ask.http_error",
			"req_id", rid, "task", task, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return false
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil || len(cc.Choices) == 0 {
		c.log.Error("oracle.ask.decode_error",
			"req_id", rid, "task", task, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return false
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	if err := validate(schema, content); err != nil {
		c.log.Error("oracle.ask.schema_validation_failed",
			"req_id", rid, "task", task, "error", err, "content", string(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return false
	}
	if err := json.Unmarshal(content, out); err != nil {
		c.log.Error("oracle.ask.unmarshal_failed",
			"req_id", rid, "task", task, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return false
	}

	c.log.Info("oracle.ask.ok",
		"req_id", rid, "task", task,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return true
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", res.StatusCode, string(raw))
	}
	return raw, nil
}
