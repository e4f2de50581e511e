package vision

import (
	"context"
	"fmt"
	"math"
)

//go:generate mockgen -source=vision.go -destination=../../mocks/vision_mocks.go -package=mocks

// Client calls the external disease-identification service.
type Client interface {
	Analyze(ctx context.Context, image []byte, mimeType string) (*Diagnosis, error)
}

// Diagnosis is the upstream result after parsing and confidence
// normalization. Fields the upstream omitted are left at their zero
// values; the report synthesizer fills them with defaults.
type Diagnosis struct {
	CropName              string
	DiseaseName           string
	Confidence            int
	Severity              string
	Urgency               string
	EstimatedYieldLossPct int
	Symptoms              []string
	Causes                []string
	Treatments            []string
	Prevention            []string
	Recommendations       []string
	CostLow               float64
	CostHigh              float64
	CostCurrency          string
}

type ErrorKind string

const (
	// ErrorKindNotConfigured means no upstream credential is available.
	ErrorKindNotConfigured ErrorKind = "not_configured"
	// ErrorKindRejected means the upstream answered non-2xx.
	ErrorKindRejected ErrorKind = "upstream_rejected"
	// ErrorKindUnreachable covers network errors and timeouts.
	ErrorKindUnreachable ErrorKind = "upstream_unreachable"
	// ErrorKindMalformed means no parse strategy produced a diagnosis.
	ErrorKindMalformed ErrorKind = "malformed_response"
)

type Error struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vision %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("vision %s", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether a single retry is worth attempting.
// Unreachable upstreams and 5xx rejections are transient; 4xx
// rejections are caller errors and are never retried.
func (e *Error) Retryable() bool {
	if e.Kind == ErrorKindUnreachable {
		return true
	}
	return e.Kind == ErrorKindRejected && e.StatusCode >= 500
}

func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// NormalizeConfidence maps upstream confidence values onto the 0-100
// integer scale. Values in [0,1] are treated as fractions and scaled,
// so 1.0 means 100%; values above 1 are treated as already-percent and
// only rounded. Results are clamped to [0,100].
func NormalizeConfidence(v float64) int {
	if v <= 1 {
		v *= 100
	}
	n := int(math.Round(v))
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
