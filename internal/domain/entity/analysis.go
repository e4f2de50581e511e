package entity

// DiseaseHealthy is the reserved disease name meaning no disease was detected.
const DiseaseHealthy = "healthy"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type Urgency string

const (
	UrgencyImmediate   Urgency = "immediate"
	UrgencyWithinWeek  Urgency = "within_week"
	UrgencyWithinMonth Urgency = "within_month"
	UrgencyMonitor     Urgency = "monitor"
)

type CostRange struct {
	Low      float64 `json:"low"`
	High     float64 `json:"high"`
	Currency string  `json:"currency"`
}

// CropAnalysis is the canonical diagnosis attached to a completed photo.
// Every field is always populated; the report synthesizer fills gaps with
// deterministic defaults so consumers never branch on missing data.
type CropAnalysis struct {
	CropName              string    `json:"crop_name"`
	DiseaseName           string    `json:"disease_name"`
	Confidence            int       `json:"confidence"`
	Severity              Severity  `json:"severity"`
	Urgency               Urgency   `json:"urgency"`
	EstimatedYieldLossPct int       `json:"estimated_yield_loss_pct"`
	Symptoms              []string  `json:"symptoms"`
	Causes                []string  `json:"causes"`
	Treatments            []string  `json:"treatments"`
	Prevention            []string  `json:"prevention"`
	Recommendations       []string  `json:"recommendations"`
	CostOfTreatment       CostRange `json:"cost_of_treatment"`
	IsFallback            bool      `json:"is_fallback"`
}

func (a *CropAnalysis) IsHealthy() bool {
	return a.DiseaseName == DiseaseHealthy
}
