package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// UploadsHandler manages attachment file endpoints.
type UploadsHandler struct {
	service *service.UploadService
}

// NewUploadsHandler constructs handler.
func NewUploadsHandler(uploadService *service.UploadService) *UploadsHandler {
	return &UploadsHandler{service: uploadService}
}

// UploadFiles POST /uploads. Accepts multipart form field "files".
func (h *UploadsHandler) UploadFiles(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return apperrors.NewValidationError("invalid multipart payload")
	}

	attachments, err := h.service.Save(form.File["files"])
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"count":   len(attachments),
		"data":    fiber.Map{"attachments": attachments},
	})
}

// DeleteFile DELETE /uploads/:filename.
func (h *UploadsHandler) DeleteFile(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Params("filename")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"message": "file deleted successfully"},
	})
}
