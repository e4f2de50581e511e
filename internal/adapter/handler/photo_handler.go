package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cropsight/cropsight-backend/internal/adapter/handler/dto/request"
	"github.com/cropsight/cropsight-backend/internal/adapter/handler/dto/response"
	"github.com/cropsight/cropsight-backend/internal/domain"
	"github.com/cropsight/cropsight-backend/internal/pkg/apperror"
	"github.com/cropsight/cropsight-backend/internal/pkg/httputil"
	"github.com/cropsight/cropsight-backend/internal/usecase/ingest"
	"github.com/cropsight/cropsight-backend/internal/usecase/report"
)

// maxUploadSize bounds the request body; it is the pipeline limit plus
// headroom for multipart framing. The exact size rule lives in the
// ingest service.
const maxUploadSize = 21 << 20

type PhotoHandler struct {
	ingestSvc IngestService
	photoSvc  PhotoQueryService
}

func NewPhotoHandler(ingestSvc IngestService, photoSvc PhotoQueryService) *PhotoHandler {
	return &PhotoHandler{ingestSvc: ingestSvc, photoSvc: photoSvc}
}

func (h *PhotoHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	// Parse the form before reading any field so a tripped body cap is
	// reported as 413 rather than surfacing as missing form fields.
	if err := c.Request.ParseMultipartForm(maxUploadSize); err != nil {
		if isBodyTooLarge(err) {
			httputil.HandleError(c, apperror.PayloadTooLarge("uploaded file exceeds the size limit"))
			return
		}
		httputil.ErrorWithCode(c, http.StatusBadRequest, "INVALID_FILE", "could not parse multipart form")
		return
	}

	ownerID, err := strconv.ParseInt(c.PostForm("owner_id"), 10, 64)
	if err != nil || ownerID < 1 {
		httputil.ErrorWithCode(c, http.StatusBadRequest, "INVALID_OWNER", "valid owner_id is required")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		httputil.ErrorWithCode(c, http.StatusBadRequest, "INVALID_FILE", "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.ErrorWithCode(c, http.StatusBadRequest, "INVALID_FILE", "could not read file")
		return
	}

	photo, err := h.ingestSvc.Ingest(c.Request.Context(), ingest.IngestInput{
		OwnerID:  ownerID,
		Data:     data,
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		h.handleIngestError(c, err)
		return
	}

	httputil.Created(c, response.PhotoFromEntity(photo))
}

func (h *PhotoHandler) Get(c *gin.Context) {
	photoID, err := parsePhotoID(c)
	if err != nil {
		return
	}

	photo, err := h.photoSvc.GetByID(c.Request.Context(), photoID)
	if err != nil {
		if errors.Is(err, domain.ErrPhotoNotFound) {
			httputil.ErrorWithCode(c, http.StatusNotFound, "NOT_FOUND", "photo not found")
			return
		}
		httputil.InternalError(c)
		return
	}

	httputil.OK(c, response.PhotoFromEntity(photo))
}

func (h *PhotoHandler) Recent(c *gin.Context) {
	var req request.RecentPhotosRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.ValidationError(c, err)
		return
	}

	photos, err := h.photoSvc.ListRecent(c.Request.Context(), req.OwnerID, req.Limit)
	if err != nil {
		httputil.InternalError(c)
		return
	}

	httputil.OK(c, response.PhotoListResponse{Photos: response.PhotosFromEntities(photos)})
}

func (h *PhotoHandler) Reanalyze(c *gin.Context) {
	photoID, err := parsePhotoID(c)
	if err != nil {
		return
	}

	photo, err := h.ingestSvc.Reanalyze(c.Request.Context(), photoID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPhotoNotFound):
			httputil.ErrorWithCode(c, http.StatusNotFound, "NOT_FOUND", "photo not found")
		case errors.Is(err, domain.ErrInvalidTransition):
			httputil.ErrorWithCode(c, http.StatusConflict, "ANALYSIS_IN_PROGRESS", "photo is already being analyzed")
		default:
			httputil.InternalError(c)
		}
		return
	}

	httputil.OK(c, response.PhotoFromEntity(photo))
}

func (h *PhotoHandler) Report(c *gin.Context) {
	photoID, err := parsePhotoID(c)
	if err != nil {
		return
	}

	var req request.ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.ValidationError(c, err)
		return
	}

	photo, err := h.photoSvc.GetByID(c.Request.Context(), photoID)
	if err != nil {
		if errors.Is(err, domain.ErrPhotoNotFound) {
			httputil.ErrorWithCode(c, http.StatusNotFound, "NOT_FOUND", "photo not found")
			return
		}
		httputil.InternalError(c)
		return
	}

	if photo.Analysis == nil {
		httputil.ErrorWithCode(c, http.StatusBadRequest, "NO_ANALYSIS", "analysis not available yet")
		return
	}

	if req.Format == "json" {
		httputil.OK(c, response.AnalysisFromEntity(photo.Analysis))
		return
	}

	c.String(http.StatusOK, report.Render(*photo.Analysis))
}

func (h *PhotoHandler) handleIngestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyFile):
		httputil.HandleError(c, apperror.New("EMPTY_FILE", "uploaded file is empty", http.StatusBadRequest))
	case errors.Is(err, domain.ErrFileTooLarge):
		httputil.HandleError(c, apperror.PayloadTooLarge("uploaded file exceeds the size limit"))
	case errors.Is(err, domain.ErrUnsupportedType):
		httputil.HandleError(c, apperror.UnsupportedMedia("only jpeg, png and webp images are allowed"))
	case errors.Is(err, domain.ErrStorageUnavailable):
		httputil.HandleError(c, apperror.Unavailable("storage is unavailable, try again later"))
	default:
		httputil.InternalError(c)
	}
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

func parsePhotoID(c *gin.Context) (int64, error) {
	photoID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || photoID < 1 {
		httputil.ErrorWithCode(c, http.StatusBadRequest, "INVALID_ID", "invalid photo id")
		return 0, errors.New("invalid photo id")
	}
	return photoID, nil
}
