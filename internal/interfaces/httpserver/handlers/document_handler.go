package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bootlang/services/agent-api/internal/domain/document"
	"bootlang/services/agent-api/internal/infrastructure/metrics"
	"bootlang/services/agent-api/internal/infrastructure/observability"
	"bootlang/services/agent-api/internal/interfaces/httpserver/responses"
	"bootlang/services/agent-api/internal/utils/platformerrors"
)

// maxUploadBytes caps reference uploads at 20 MiB.
const maxUploadBytes = 20 << 20

// DocumentHandler exposes HTTP entrypoints for reference documents.
type DocumentHandler struct {
	service *document.Service
	log     zerolog.Logger
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(service *document.Service, log zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		log:     log.With().Str("handler", "document").Logger(),
	}
}

// Ingest handles POST /v1/documents
// @Summary Upload a reference document
// @Description Ingests a text, markdown, PDF, or image file into the user's retrieval index
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param file formData file true "Document file"
// @Param type formData string false "Document type (text, markdown, pdf, image); inferred from the filename when omitted"
// @Success 201 {object} responses.DocumentPayload
// @Failure 400 {object} responses.ErrorResponse
// @Router /v1/documents [post]
func (h *DocumentHandler) Ingest(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
			"multipart field 'file' is required", "5d7e8f90-1a2b-4c3d-8e4f-6a7b8c9d0e1f")
		return
	}
	if fileHeader.Size > maxUploadBytes {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
			"file exceeds the 20 MiB upload limit", "9a0b1c2d-3e4f-4a5b-9c6d-7e8f9a0b1c2d")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		responses.HandleError(c, err, "failed to open upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		responses.HandleError(c, err, "failed to read upload")
		return
	}

	declaredType := c.PostForm("type")
	if declaredType == "" {
		declaredType = inferType(fileHeader.Filename)
	}
	mimeType := fileHeader.Header.Get("Content-Type")

	ctx, span := observability.StartIngestSpan(c.Request.Context(), fileHeader.Filename, declaredType)
	defer span.End()

	doc, err := h.service.Ingest(ctx, user, fileHeader.Filename, declaredType, data, mimeType)
	if err != nil {
		observability.RecordError(span, err)
		metrics.RecordIngest(declaredType, "failed")
		responses.HandleError(c, err, "failed to ingest document")
		return
	}

	metrics.RecordIngest(string(doc.Type), "completed")
	c.JSON(http.StatusCreated, responses.FromDocument(doc))
}

// List handles GET /v1/documents
// @Summary List reference documents
// @Tags Documents
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Success 200 {object} responses.DocumentListPayload
// @Router /v1/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}

	docs, err := h.service.List(c.Request.Context(), user)
	if err != nil {
		responses.HandleError(c, err, "failed to list documents")
		return
	}

	payload := responses.DocumentListPayload{Data: make([]responses.DocumentPayload, len(docs))}
	for i, doc := range docs {
		payload.Data[i] = responses.FromDocument(doc)
	}
	c.JSON(http.StatusOK, payload)
}

// Delete handles DELETE /v1/documents/:document_id
// @Summary Delete a reference document
// @Description Removes the document and its chunks from storage and the retrieval index
// @Tags Documents
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param document_id path string true "Document ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/documents/{document_id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), user, c.Param("document_id")); err != nil {
		responses.HandleError(c, err, "failed to delete document")
		return
	}
	statusOK(c)
}

// inferType guesses the document type from the filename extension.
func inferType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return string(document.TypeMarkdown)
	case ".pdf":
		return string(document.TypePDF)
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return string(document.TypeImage)
	default:
		return string(document.TypeText)
	}
}
