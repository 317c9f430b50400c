package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"growthai-backend/internal/metrics"
	"growthai-backend/internal/model"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"

// Config for the generative decision oracle.
type Config struct {
	APIKey         string
	Model          string
	Endpoint       string
	TimeoutSeconds int
	MaxRetries     int
}

// GenAI asks a hosted generative model for an irrigation decision. Failures
// never surface as errors: the caller always gets a usable Decision.
type GenAI struct {
	cfg    Config
	http   *http.Client
	cb     *gobreaker.CircuitBreaker
}

func mkCB(name string, fails int, open time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: open,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(fails)
		},
	})
}

// NewGenAI builds the oracle client. Callers should use NewDisabled instead
// when no API key is configured.
func NewGenAI(cfg Config) *GenAI {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &GenAI{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		cb:   mkCB("oracle", 5, 60*time.Second),
	}
}

// Decide sends the condition and its context upstream and parses the reply.
// On transport failure, open breaker, or an empty reply it returns a Decision
// with the "error" verb; a reply that is not valid JSON degrades to "alerta"
// carrying the raw text as explanation.
func (g *GenAI) Decide(ctx context.Context, condition string, dctx model.DecisionContext) model.Decision {
	raw, err := g.generate(ctx, buildPrompt(condition, dctx))
	if err != nil {
		log.Printf("oracle: %v", err)
		return degraded(dctx, err)
	}
	dec, ok := parseDecision(raw)
	if !ok {
		dec = model.Decision{
			Decision:    model.DecisionAlert,
			Explanation: strings.TrimSpace(raw),
			Priority:    model.PriorityMedium,
		}
	}
	if dec.PlantID == "" {
		dec.PlantID = dctx.PlantID
	}
	if dec.GardenID == "" {
		dec.GardenID = dctx.GardenID
	}
	if dec.Priority == "" {
		dec.Priority = model.PriorityMedium
	}
	dec.Timestamp = time.Now().UTC()
	metrics.OracleDecisions.WithLabelValues(dec.Decision).Inc()
	return dec
}

func degraded(dctx model.DecisionContext, err error) model.Decision {
	return model.Decision{
		Decision:    model.DecisionError,
		PlantID:     dctx.PlantID,
		GardenID:    dctx.GardenID,
		Explanation: fmt.Sprintf("decision service unavailable: %v", err),
		Priority:    model.PriorityHigh,
		Timestamp:   time.Now().UTC(),
	}
}

var personalityStyles = map[string]string{
	"cuidadoso": "You are a careful gardener who prefers conservative watering.",
	"agresivo":  "You are a proactive gardener who irrigates at the first sign of stress.",
	"cientifico": "You are a data-driven agronomist who justifies every action with numbers.",
}

func buildPrompt(condition string, dctx model.DecisionContext) string {
	style, ok := personalityStyles[dctx.Personality]
	if !ok {
		style = "You are a pragmatic gardener."
	}
	ctxJSON, _ := json.Marshal(dctx)
	var b strings.Builder
	b.WriteString(style)
	b.WriteString(" You manage an automated irrigation system.\n")
	b.WriteString("Condition: ")
	b.WriteString(condition)
	b.WriteString("\nContext: ")
	b.Write(ctxJSON)
	b.WriteString("\nRespond with a single JSON object and nothing else, with fields: ")
	b.WriteString(`"decision" (one of regar, esperar, alerta, ajustar), "plant_id", `)
	b.WriteString(`"action_params" (object with "duration" in seconds and "reason"), `)
	b.WriteString(`"explanation", "priority" (critical, high, medium or low).`)
	return b.String()
}

// generateContent request/response shapes, reduced to the fields we use.
type genaiRequest struct {
	Contents []genaiContent `json:"contents"`
}

type genaiContent struct {
	Parts []genaiPart `json:"parts"`
}

type genaiPart struct {
	Text string `json:"text"`
}

type genaiResponse struct {
	Candidates []struct {
		Content genaiContent `json:"content"`
	} `json:"candidates"`
}

func (g *GenAI) generate(ctx context.Context, prompt string) (string, error) {
	out, err := g.cb.Execute(func() (interface{}, error) {
		var text string
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = 500 * time.Millisecond
		bo.MaxElapsedTime = time.Duration(g.cfg.TimeoutSeconds) * time.Second
		err := backoff.Retry(func() error {
			var err error
			text, err = g.doRequest(ctx, prompt)
			return err
		}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(g.cfg.MaxRetries-1)), ctx))
		return text, err
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (g *GenAI) doRequest(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(genaiRequest{
		Contents: []genaiContent{{Parts: []genaiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.cfg.Endpoint, g.cfg.Model, g.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("decision service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	var gr genaiResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from decision service")
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}

// parseDecision extracts the JSON object from a model reply, tolerating
// markdown code fences and prose around the object.
func parseDecision(raw string) (model.Decision, bool) {
	text := stripFences(raw)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return model.Decision{}, false
	}
	var dec model.Decision
	if err := json.Unmarshal([]byte(text[start:end+1]), &dec); err != nil {
		return model.Decision{}, false
	}
	if dec.Decision == "" {
		return model.Decision{}, false
	}
	return dec, true
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
