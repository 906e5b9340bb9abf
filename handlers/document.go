package handlers

import (
	"fmt"
	"net/http"

	"interview_booking_app_go/db"
	"interview_booking_app_go/middleware"
	"interview_booking_app_go/models"
	"interview_booking_app_go/services"

	"github.com/labstack/echo/v4"
)

// ListDocumentsHandler lists the current user's documents
func ListDocumentsHandler(c echo.Context) error {
	docs, err := services.GetUserDocuments(db.DB, middleware.GetCurrentUser(c).ID)
	if err != nil {
		return err
	}
	return ok(c, docs)
}

// UploadDocumentHandler stores a multipart "file" for the current user.
// Optional form fields: type, booking_id.
func UploadDocumentHandler(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}

	user := middleware.GetCurrentUser(c)
	in := services.UploadDocumentInput{
		UserID: user.ID,
		Type:   c.FormValue("type"),
	}
	if bookingID := c.FormValue("booking_id"); bookingID != "" {
		in.BookingID = &bookingID
	}

	doc, err := services.UploadDocument(c.Request().Context(), db.DB, in, fh)
	if err != nil {
		return err
	}
	auditAdmin(c, models.AuditActionCreate, services.AuditResourceDocument, doc.ID, "Uploaded "+doc.FileOriginalName)
	return created(c, "Document uploaded", doc)
}

// DownloadDocumentHandler streams a document to its owner or an admin
func DownloadDocumentHandler(c echo.Context) error {
	doc, err := services.GetDocumentForUser(db.DB, c.Param("id"), middleware.GetCurrentUser(c))
	if err != nil {
		return err
	}

	reader, contentType, err := services.OpenDocument(c.Request().Context(), doc)
	if err != nil {
		return err
	}
	defer reader.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, doc.FileOriginalName))
	return c.Stream(http.StatusOK, contentType, reader)
}

// DeleteDocumentHandler removes a document and its stored file
func DeleteDocumentHandler(c echo.Context) error {
	doc, err := services.GetDocumentForUser(db.DB, c.Param("id"), middleware.GetCurrentUser(c))
	if err != nil {
		return err
	}
	if err := services.DeleteDocument(c.Request().Context(), db.DB, doc); err != nil {
		return err
	}
	auditAdmin(c, models.AuditActionDelete, services.AuditResourceDocument, doc.ID, "Deleted "+doc.FileOriginalName)
	return okMessage(c, "Document deleted", nil)
}
