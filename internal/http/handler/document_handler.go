package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bidwatch/bid-api/internal/service"
)

type DocumentHandler struct {
	documentService *service.DocumentService
	maxUploadMB     int64
	logger          *zap.Logger
}

func NewDocumentHandler(documentService *service.DocumentService, maxUploadMB int64, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		maxUploadMB:     maxUploadMB,
		logger:          logger,
	}
}

// @Summary Upload bid document
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Bid ID"
// @Param file formData file true "Document to upload"
// @Success 201 {object} domain.DocumentDTO
// @Security ApiKeyAuth
// @Router /bids/{id}/documents [post]
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	bidID, err := parseBidID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid bid ID: must be a number")
		return
	}

	// Limit request size
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadMB*1024*1024)

	if err := r.ParseMultipartForm(h.maxUploadMB * 1024 * 1024); err != nil {
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid file upload: file field is required")
		return
	}
	defer file.Close()

	doc, err := h.documentService.Upload(r.Context(), bidID, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Bid not found")
			return
		}
		h.logger.Error("failed to upload document", zap.Error(err), zap.Int64("bid_id", bidID))
		respondWithError(w, http.StatusInternalServerError, "Failed to upload document")
		return
	}

	respondJSON(w, http.StatusCreated, doc)
}

// @Summary List bid documents
// @Tags Documents
// @Produce json
// @Param id path int true "Bid ID"
// @Success 200 {array} domain.DocumentDTO
// @Security ApiKeyAuth
// @Router /bids/{id}/documents [get]
func (h *DocumentHandler) ListByBid(w http.ResponseWriter, r *http.Request) {
	bidID, err := parseBidID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid bid ID: must be a number")
		return
	}

	docs, err := h.documentService.ListByBid(r.Context(), bidID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Bid not found")
			return
		}
		h.logger.Error("failed to list documents", zap.Error(err), zap.Int64("bid_id", bidID))
		respondWithError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	respondJSON(w, http.StatusOK, docs)
}

// @Summary Download document
// @Tags Documents
// @Produce application/octet-stream
// @Param documentId path int true "Document ID"
// @Success 200
// @Security ApiKeyAuth
// @Router /documents/{documentId}/download [get]
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "documentId"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid document ID: must be a number")
		return
	}

	reader, filename, contentType, err := h.documentService.Download(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Document not found")
			return
		}
		h.logger.Error("failed to download document", zap.Error(err), zap.Int64("document_id", id))
		respondWithError(w, http.StatusInternalServerError, "Failed to download document")
		return
	}
	defer reader.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	w.Header().Set("Content-Type", contentType)

	_, _ = io.Copy(w, reader)
}

// @Summary Delete document
// @Tags Documents
// @Param documentId path int true "Document ID"
// @Success 204
// @Security ApiKeyAuth
// @Router /documents/{documentId} [delete]
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "documentId"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid document ID: must be a number")
		return
	}

	if err := h.documentService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Document not found")
			return
		}
		h.logger.Error("failed to delete document", zap.Error(err), zap.Int64("document_id", id))
		respondWithError(w, http.StatusInternalServerError, "Failed to delete document")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
