package report

import (
	"github.com/cropsight/cropsight-backend/internal/adapter/vision"
	"github.com/cropsight/cropsight-backend/internal/domain/entity"
)

const DefaultCurrency = "USD"

// fallbackConfidence marks results produced without a successful
// upstream call. Low enough that operators treat them as advisory.
const fallbackConfidence = 35

// Synthesize maps an upstream diagnosis onto the canonical CropAnalysis,
// filling any omitted field with a deterministic healthy/low-confidence
// default so the completeness invariant holds. A nil diagnosis yields
// the canned fallback analysis used when the upstream is unavailable.
func Synthesize(d *vision.Diagnosis) entity.CropAnalysis {
	if d == nil {
		return fallbackAnalysis()
	}

	a := entity.CropAnalysis{
		CropName:              d.CropName,
		DiseaseName:           d.DiseaseName,
		Confidence:            d.Confidence,
		Severity:              parseSeverity(d.Severity),
		Urgency:               parseUrgency(d.Urgency),
		EstimatedYieldLossPct: d.EstimatedYieldLossPct,
		Symptoms:              orDefault(d.Symptoms, "No visible symptoms reported"),
		Causes:                orDefault(d.Causes, "Not determined"),
		Treatments:            orDefault(d.Treatments, "No treatment required"),
		Prevention:            orDefault(d.Prevention, "Maintain regular crop monitoring"),
		Recommendations:       orDefault(d.Recommendations, "Continue routine field inspections"),
		CostOfTreatment: entity.CostRange{
			Low:      d.CostLow,
			High:     d.CostHigh,
			Currency: d.CostCurrency,
		},
	}

	if a.CropName == "" {
		a.CropName = "Unknown crop"
	}
	if a.DiseaseName == "" {
		a.DiseaseName = entity.DiseaseHealthy
	}
	if a.Confidence < 0 {
		a.Confidence = 0
	}
	if a.Confidence > 100 {
		a.Confidence = 100
	}
	if a.EstimatedYieldLossPct < 0 {
		a.EstimatedYieldLossPct = 0
	}
	if a.EstimatedYieldLossPct > 100 {
		a.EstimatedYieldLossPct = 100
	}
	if a.CostOfTreatment.Currency == "" {
		a.CostOfTreatment.Currency = DefaultCurrency
	}
	if a.CostOfTreatment.Low < 0 {
		a.CostOfTreatment.Low = 0
	}
	if a.CostOfTreatment.High < a.CostOfTreatment.Low {
		a.CostOfTreatment.High = a.CostOfTreatment.Low
	}

	return a
}

// fallbackAnalysis is schema-complete and plausible but deliberately
// non-authoritative, so consumers never need fallback-specific
// branching.
func fallbackAnalysis() entity.CropAnalysis {
	return entity.CropAnalysis{
		CropName:              "Unknown crop",
		DiseaseName:           entity.DiseaseHealthy,
		Confidence:            fallbackConfidence,
		Severity:              entity.SeverityLow,
		Urgency:               entity.UrgencyMonitor,
		EstimatedYieldLossPct: 0,
		Symptoms:              []string{"No symptoms could be confirmed from automated analysis"},
		Causes:                []string{"Automated analysis was unavailable"},
		Treatments:            []string{"No treatment required at this time"},
		Prevention:            []string{"Maintain regular crop monitoring"},
		Recommendations: []string{
			"Retake the photo in good lighting and request re-analysis",
			"Consult a local agronomist if symptoms are visible in the field",
		},
		CostOfTreatment: entity.CostRange{Low: 0, High: 0, Currency: DefaultCurrency},
		IsFallback:      true,
	}
}

func parseSeverity(s string) entity.Severity {
	switch entity.Severity(s) {
	case entity.SeverityLow, entity.SeverityMedium, entity.SeverityHigh, entity.SeverityCritical:
		return entity.Severity(s)
	}
	return entity.SeverityLow
}

func parseUrgency(s string) entity.Urgency {
	switch entity.Urgency(s) {
	case entity.UrgencyImmediate, entity.UrgencyWithinWeek, entity.UrgencyWithinMonth, entity.UrgencyMonitor:
		return entity.Urgency(s)
	}
	return entity.UrgencyMonitor
}

func orDefault(items []string, fallback string) []string {
	if len(items) == 0 {
		return []string{fallback}
	}
	return items
}
