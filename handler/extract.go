package handler

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/priceloka/backend/pkg/logger"
	"github.com/priceloka/backend/service"
)

type ExtractHandler struct {
	extractor *service.Extractor
	archive   *service.ArchiveService // nil when archiving is disabled
}

func NewExtractHandler(extractor *service.Extractor, archive *service.ArchiveService) *ExtractHandler {
	return &ExtractHandler{
		extractor: extractor,
		archive:   archive,
	}
}

type extractRequest struct {
	ImageBase64 string `json:"imageBase64"`
}

// parsedResultsEnvelope mirrors the response shape of the legacy OCR
// endpoint so existing clients keep working.
type parsedResultsEnvelope struct {
	ParsedResults         []parsedResult `json:"ParsedResults"`
	IsErroredOnProcessing bool           `json:"IsErroredOnProcessing"`
}

type parsedResult struct {
	ParsedText string `json:"ParsedText"`
}

// decodeImagePayload strips an optional data-URI prefix
// ("data:image/png;base64,...") and decodes the remaining base64 blob.
func decodeImagePayload(payload string) ([]byte, error) {
	if idx := strings.Index(payload, ","); idx != -1 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image data: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	return data, nil
}

// Extract handles the dual-pass receipt extraction endpoint.
func (h *ExtractHandler) Extract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ImageBase64 == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing imageBase64"})
		return
	}

	data, err := decodeImagePayload(req.ImageBase64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.extractor.Extract(c.Request.Context(), data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "OCR processing failed: " + err.Error()})
		return
	}

	if h.archive != nil {
		objectName, err := h.archive.Store(c.Request.Context(), report.Merchant, data)
		if err != nil {
			// Archiving is best-effort; the extraction result still stands.
			logger.Warn(c.Request.Context(), "failed to archive receipt image", "error", err)
		} else {
			logger.Debug(c.Request.Context(), "receipt image archived", "object", objectName)
		}
	}

	c.JSON(http.StatusOK, report)
}

// OCR handles the legacy single-pass endpoint.
func (h *ExtractHandler) OCR(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ImageBase64 == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing imageBase64"})
		return
	}

	data, err := decodeImagePayload(req.ImageBase64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	text, err := h.extractor.ExtractPlain(c.Request.Context(), data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "OCR processing failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, parsedResultsEnvelope{
		ParsedResults:         []parsedResult{{ParsedText: text}},
		IsErroredOnProcessing: false,
	})
}
