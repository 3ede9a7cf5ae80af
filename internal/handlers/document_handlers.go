package handlers

import (
	"net/http"
	"strings"
	"time"

	"clinicore/internal/common"
	"clinicore/internal/services"

	"github.com/labstack/echo/v4"
)

// DocumentHandlers manages patient document uploads and download links.
type DocumentHandlers struct {
	documentService services.DocumentService
}

func NewDocumentHandlers(documentService services.DocumentService) *DocumentHandlers {
	return &DocumentHandlers{documentService: documentService}
}

// Upload stores a multipart file against a patient record.
func (h *DocumentHandlers) Upload(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	patientID, err := common.ValidateUUID(c.Param("patientId"), "patient id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "A file is required")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Could not read the uploaded file")
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objectName, err := h.documentService.Upload(ctx, clinicID, patientID, fileHeader.Filename, contentType, src, fileHeader.Size)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Upload failed")
	}

	return c.JSON(http.StatusCreated, map[string]string{"object_name": objectName})
}

// DownloadURL returns a time-limited presigned link for an object.
func (h *DocumentHandlers) DownloadURL(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	objectName := c.QueryParam("object")
	if objectName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "object query parameter is required")
	}
	// Object keys are prefixed with the clinic ID, which doubles as the
	// tenancy check here.
	if !strings.HasPrefix(objectName, clinicID.String()+"/") {
		return echo.NewHTTPError(http.StatusForbidden, "Object does not belong to this clinic")
	}

	url, err := h.documentService.GetPresignedURL(ctx, objectName, 15*time.Minute)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Could not create download link")
	}

	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

// Delete removes an object belonging to the caller's clinic.
func (h *DocumentHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	objectName := c.QueryParam("object")
	if objectName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "object query parameter is required")
	}
	if !strings.HasPrefix(objectName, clinicID.String()+"/") {
		return echo.NewHTTPError(http.StatusForbidden, "Object does not belong to this clinic")
	}

	if err := h.documentService.Delete(ctx, objectName); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Delete failed")
	}

	return c.NoContent(http.StatusNoContent)
}
