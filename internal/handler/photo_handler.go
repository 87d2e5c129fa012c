package handler

import (
	"errors"
	"net/http"

	"github.com/closehq/close-api/internal/model"
	"github.com/closehq/close-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// request bodies may carry a little multipart overhead beyond the photo itself
const maxPhotoRequestSize = model.MaxPhotoSize + (64 << 10)

// PhotoHandler handles the ephemeral photo store endpoints
type PhotoHandler struct {
	photoService *service.PhotoService
}

func NewPhotoHandler(photoService *service.PhotoService) *PhotoHandler {
	return &PhotoHandler{photoService: photoService}
}

func photoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPhotoTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{Error: "Each image should be less than 1MB"})
	case errors.Is(err, service.ErrPhotoBadType):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Please select only image files"})
	case errors.Is(err, service.ErrPhotoCapReached):
		c.JSON(http.StatusConflict, model.ErrorResponse{Error: "Maximum 3 photos allowed"})
	case errors.Is(err, service.ErrPhotoNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Photo not found"})
	default:
		roomError(c, err)
	}
}

// UploadPhoto godoc
// @Summary Upload a photo to a room
// @Description Accepts one image up to 1MB. The room holds at most three live photos; each expires one hour after upload.
// @Tags Photos
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Param file formData file true "Image file"
// @Success 201 {object} model.Photo
// @Failure 400 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Failure 413 {object} model.ErrorResponse
// @Router /rooms/{id}/photos [post]
func (h *PhotoHandler) UploadPhoto(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid room ID"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoRequestSize)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{Error: "Each image should be less than 1MB"})
			return
		}
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "File is required", Message: err.Error()})
		return
	}
	defer file.Close()

	userID := c.MustGet("user_id").(uuid.UUID)
	photo, err := h.photoService.Upload(c.Request.Context(), roomID, userID, file, header)
	if err != nil {
		photoError(c, err)
		return
	}

	c.JSON(http.StatusCreated, photo)
}

// ListPhotos godoc
// @Summary List a room's live photos
// @Tags Photos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Success 200 {object} model.PhotoListResponse
// @Router /rooms/{id}/photos [get]
func (h *PhotoHandler) ListPhotos(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid room ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	photos, err := h.photoService.List(roomID, userID)
	if err != nil {
		photoError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.PhotoListResponse{Success: true, Photos: photos})
}

// DeletePhoto godoc
// @Summary Delete a photo
// @Tags Photos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Param photo_id path string true "Photo ID"
// @Success 200 {object} model.SuccessResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /rooms/{id}/photos/{photo_id} [delete]
func (h *PhotoHandler) DeletePhoto(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid room ID"})
		return
	}

	photoID, err := uuid.Parse(c.Param("photo_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid photo ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.photoService.Remove(c.Request.Context(), roomID, photoID, userID); err != nil {
		photoError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Success: true, Message: "Photo deleted"})
}
