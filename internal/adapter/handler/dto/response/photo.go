package response

import (
	"time"

	"github.com/cropsight/cropsight-backend/internal/domain/entity"
)

type PhotoResponse struct {
	ID           int64             `json:"id"`
	OwnerID      int64             `json:"owner_id"`
	OriginalName string            `json:"original_name"`
	MimeType     string            `json:"mime_type"`
	SizeBytes    int64             `json:"size_bytes"`
	Width        int               `json:"width,omitempty"`
	Height       int               `json:"height,omitempty"`
	Format       string            `json:"format,omitempty"`
	Location     *LocationResponse `json:"location,omitempty"`
	Status       string            `json:"status"`
	Durable      bool              `json:"durable"`
	Analysis     *AnalysisResponse `json:"analysis,omitempty"`
	ErrorReason  string            `json:"error_reason,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

type LocationResponse struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  *float64 `json:"altitude,omitempty"`
}

type AnalysisResponse struct {
	CropName              string            `json:"crop_name"`
	DiseaseName           string            `json:"disease_name"`
	Confidence            int               `json:"confidence"`
	Severity              string            `json:"severity"`
	Urgency               string            `json:"urgency"`
	EstimatedYieldLossPct int               `json:"estimated_yield_loss_pct"`
	Symptoms              []string          `json:"symptoms"`
	Causes                []string          `json:"causes"`
	Treatments            []string          `json:"treatments"`
	Prevention            []string          `json:"prevention"`
	Recommendations       []string          `json:"recommendations"`
	CostOfTreatment       CostRangeResponse `json:"cost_of_treatment"`
	IsFallback            bool              `json:"is_fallback"`
}

type CostRangeResponse struct {
	Low      float64 `json:"low"`
	High     float64 `json:"high"`
	Currency string  `json:"currency"`
}

type PhotoListResponse struct {
	Photos []PhotoResponse `json:"photos"`
}

func PhotoFromEntity(p *entity.Photo) PhotoResponse {
	resp := PhotoResponse{
		ID:           p.ID,
		OwnerID:      p.OwnerID,
		OriginalName: p.OriginalName,
		MimeType:     p.MimeType,
		SizeBytes:    p.SizeBytes,
		Width:        p.Width,
		Height:       p.Height,
		Format:       p.Format,
		Status:       string(p.Status),
		Durable:      p.BlobRef.Durable,
		ErrorReason:  p.ErrorReason,
		CreatedAt:    p.CreatedAt,
	}

	if p.CaptureLocation != nil {
		resp.Location = &LocationResponse{
			Latitude:  p.CaptureLocation.Latitude,
			Longitude: p.CaptureLocation.Longitude,
			Altitude:  p.CaptureLocation.Altitude,
		}
	}

	if p.Analysis != nil {
		analysis := AnalysisFromEntity(p.Analysis)
		resp.Analysis = &analysis
	}

	return resp
}

func PhotosFromEntities(photos []entity.Photo) []PhotoResponse {
	result := make([]PhotoResponse, 0, len(photos))
	for _, p := range photos {
		result = append(result, PhotoFromEntity(&p))
	}
	return result
}

func AnalysisFromEntity(a *entity.CropAnalysis) AnalysisResponse {
	return AnalysisResponse{
		CropName:              a.CropName,
		DiseaseName:           a.DiseaseName,
		Confidence:            a.Confidence,
		Severity:              string(a.Severity),
		Urgency:               string(a.Urgency),
		EstimatedYieldLossPct: a.EstimatedYieldLossPct,
		Symptoms:              a.Symptoms,
		Causes:                a.Causes,
		Treatments:            a.Treatments,
		Prevention:            a.Prevention,
		Recommendations:       a.Recommendations,
		CostOfTreatment: CostRangeResponse{
			Low:      a.CostOfTreatment.Low,
			High:     a.CostOfTreatment.High,
			Currency: a.CostOfTreatment.Currency,
		},
		IsFallback: a.IsFallback,
	}
}
