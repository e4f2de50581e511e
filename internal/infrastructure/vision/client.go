package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/cropsight/cropsight-backend/internal/adapter/vision"
	"github.com/cropsight/cropsight-backend/internal/infrastructure/config"
)

// HTTPClient calls the external disease-identification API. The image
// is base64-encoded into a JSON request; the response schema has
// drifted across upstream releases, so parsing tries several shapes
// before giving up.
type HTTPClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
	logger     *zap.Logger
}

func NewHTTPClient(cfg config.VisionConfig, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     logger,
	}
}

type diagnoseRequest struct {
	Model    string `json:"model"`
	Image    string `json:"image"`
	MimeType string `json:"mime_type"`
}

// diagnosePayload mirrors the upstream response schema. Confidence
// arrives either as a 0-1 fraction or an already-percent value.
type diagnosePayload struct {
	CropName              string   `json:"crop_name"`
	DiseaseName           string   `json:"disease_name"`
	Confidence            float64  `json:"confidence"`
	Severity              string   `json:"severity"`
	Urgency               string   `json:"urgency"`
	EstimatedYieldLossPct *float64 `json:"estimated_yield_loss_pct"`
	Symptoms              []string `json:"symptoms"`
	Causes                []string `json:"causes"`
	Treatments            []string `json:"treatments"`
	Prevention            []string `json:"prevention"`
	Recommendations       []string `json:"recommendations"`
	CostOfTreatment       *struct {
		Low      float64 `json:"low"`
		High     float64 `json:"high"`
		Currency string  `json:"currency"`
	} `json:"cost_of_treatment"`
}

func (c *HTTPClient) Analyze(ctx context.Context, image []byte, mimeType string) (*vision.Diagnosis, error) {
	if c.apiKey == "" {
		return nil, vision.NewError(vision.ErrorKindNotConfigured, errors.New("no api key configured"))
	}

	body, err := json.Marshal(diagnoseRequest{
		Model:    c.model,
		Image:    base64.StdEncoding.EncodeToString(image),
		MimeType: mimeType,
	})
	if err != nil {
		return nil, vision.NewError(vision.ErrorKindMalformed, fmt.Errorf("marshaling request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, vision.NewError(vision.ErrorKindUnreachable, fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, vision.NewError(vision.ErrorKindUnreachable, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &vision.Error{
			Kind:       vision.ErrorKindRejected,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("upstream %s: %s", resp.Status, truncate(string(data), 512)),
		}
	}

	payload, err := parseDiagnosis(data)
	if err != nil {
		c.logger.Warn("unparseable vision response", zap.Error(err), zap.Int("body_len", len(data)))
		return nil, vision.NewError(vision.ErrorKindMalformed, err)
	}

	return toDiagnosis(payload), nil
}

// parseDiagnosis tries the strict schema first, then the known drifted
// shapes: a result/data wrapper object, and JSON inside a markdown code
// fence in a text field. A parse counts as long as any recognized field
// is present; omitted fields are defaulted downstream.
func parseDiagnosis(data []byte) (*diagnosePayload, error) {
	var direct diagnosePayload
	if err := json.Unmarshal(data, &direct); err == nil && direct.populated() {
		return &direct, nil
	}

	var wrapped struct {
		Result *diagnosePayload `json:"result"`
		Data   *diagnosePayload `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		if wrapped.Result != nil && wrapped.Result.populated() {
			return wrapped.Result, nil
		}
		if wrapped.Data != nil && wrapped.Data.populated() {
			return wrapped.Data, nil
		}
	}

	var textual struct {
		Text    string `json:"text"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &textual); err == nil {
		raw := textual.Text
		if raw == "" {
			raw = textual.Content
		}
		if raw != "" {
			var fenced diagnosePayload
			if err := json.Unmarshal([]byte(stripCodeFence(raw)), &fenced); err == nil && fenced.populated() {
				return &fenced, nil
			}
		}
	}

	return nil, fmt.Errorf("no parse strategy matched response")
}

// populated reports whether any recognized diagnosis field carries data.
func (p *diagnosePayload) populated() bool {
	return p.CropName != "" ||
		p.DiseaseName != "" ||
		p.Confidence > 0 ||
		p.Severity != "" ||
		p.Urgency != "" ||
		p.EstimatedYieldLossPct != nil ||
		len(p.Symptoms) > 0 ||
		len(p.Causes) > 0 ||
		len(p.Treatments) > 0 ||
		len(p.Prevention) > 0 ||
		len(p.Recommendations) > 0 ||
		p.CostOfTreatment != nil
}

func toDiagnosis(p *diagnosePayload) *vision.Diagnosis {
	d := &vision.Diagnosis{
		CropName:        p.CropName,
		DiseaseName:     p.DiseaseName,
		Confidence:      vision.NormalizeConfidence(p.Confidence),
		Severity:        p.Severity,
		Urgency:         p.Urgency,
		Symptoms:        p.Symptoms,
		Causes:          p.Causes,
		Treatments:      p.Treatments,
		Prevention:      p.Prevention,
		Recommendations: p.Recommendations,
	}
	if p.EstimatedYieldLossPct != nil {
		d.EstimatedYieldLossPct = clampPct(*p.EstimatedYieldLossPct)
	}
	if p.CostOfTreatment != nil {
		d.CostLow = p.CostOfTreatment.Low
		d.CostHigh = p.CostOfTreatment.High
		d.CostCurrency = p.CostOfTreatment.Currency
	}
	return d
}

func clampPct(v float64) int {
	n := int(v + 0.5)
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
