package report

import (
	"fmt"
	"strings"

	"github.com/cropsight/cropsight-backend/internal/domain/entity"
)

// Render produces a human-readable multi-section text report. Output is
// deterministic for a given analysis so it can be snapshot-tested.
func Render(a entity.CropAnalysis) string {
	var b strings.Builder

	b.WriteString("CROP ANALYSIS REPORT\n")
	b.WriteString("====================\n\n")

	fmt.Fprintf(&b, "Crop:                 %s\n", a.CropName)
	fmt.Fprintf(&b, "Diagnosis:            %s\n", a.DiseaseName)
	fmt.Fprintf(&b, "Confidence:           %d%%\n", a.Confidence)
	fmt.Fprintf(&b, "Severity:             %s\n", a.Severity)
	fmt.Fprintf(&b, "Urgency:              %s\n", a.Urgency)
	fmt.Fprintf(&b, "Estimated yield loss: %d%%\n", a.EstimatedYieldLossPct)
	if a.IsFallback {
		b.WriteString("Note:                 automated analysis unavailable, conservative estimate\n")
	}

	writeSection(&b, "SYMPTOMS", a.Symptoms)
	writeSection(&b, "LIKELY CAUSES", a.Causes)
	writeSection(&b, "TREATMENTS", a.Treatments)
	writeSection(&b, "PREVENTION", a.Prevention)
	writeSection(&b, "RECOMMENDATIONS", a.Recommendations)

	b.WriteString("\nCOST OF TREATMENT\n-----------------\n")
	fmt.Fprintf(&b, "%.2f - %.2f %s\n", a.CostOfTreatment.Low, a.CostOfTreatment.High, a.CostOfTreatment.Currency)

	return b.String()
}

func writeSection(b *strings.Builder, title string, items []string) {
	fmt.Fprintf(b, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}
