package handler

import (
	"errors"
	"net/http"

	"github.com/closehq/close-api/internal/model"
	"github.com/closehq/close-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RoomHandler handles room lifecycle endpoints
type RoomHandler struct {
	roomService *service.RoomService
}

func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

// roomError translates service failures into {success:false} responses
func roomError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Room not found"})
	case errors.Is(err, service.ErrInvalidPassword):
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "Invalid password"})
	case errors.Is(err, service.ErrRoomFull):
		c.JSON(http.StatusConflict, model.ErrorResponse{Error: "Room is full"})
	case errors.Is(err, service.ErrNotMember):
		c.JSON(http.StatusForbidden, model.ErrorResponse{Error: "User not in room"})
	case errors.Is(err, service.ErrMissingToken):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Device token is required"})
	default:
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Something went wrong"})
	}
}

// CreateRoom godoc
// @Summary Create a room
// @Description Creates a room with the caller as its sole member.
// @Tags Rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.CreateRoomRequest true "Room name, password and optional device token"
// @Success 201 {object} model.RoomResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /rooms [post]
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req model.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	room, err := h.roomService.Create(req.Name, req.Password, userID, req.FCMToken)
	if err != nil {
		roomError(c, err)
		return
	}

	c.JSON(http.StatusCreated, model.RoomResponse{Success: true, Room: room.ToSnapshot()})
}

// GetRoomPreview godoc
// @Summary Public room preview
// @Description Name and member count for the share-URL join form prefill. No auth required.
// @Tags Rooms
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} model.RoomPreview
// @Failure 404 {object} model.ErrorResponse
// @Router /rooms/{id} [get]
func (h *RoomHandler) GetRoomPreview(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid room ID"})
		return
	}

	preview, err := h.roomService.Preview(roomID)
	if err != nil {
		roomError(c, err)
		return
	}

	c.JSON(http.StatusOK, preview)
}

// JoinRoom godoc
// @Summary Join a room
// @Description Validates the password and joins under the two-member cap. Rejoining is idempotent.
// @Tags Rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Param body body model.JoinRoomRequest true "Password and optional device token"
// @Success 200 {object} model.RoomResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /rooms/{id}/join [post]
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid room ID"})
		return
	}

	var req model.JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	room, err := h.roomService.Join(roomID, req.Password, userID, req.FCMToken)
	if err != nil {
		roomError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.RoomResponse{Success: true, Room: room.ToSnapshot()})
}

// LeaveRoom godoc
// @Summary Leave a room
// @Description Removes the caller's membership; the last member out deletes the room.
// @Tags Rooms
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Success 200 {object} model.SuccessResponse
// @Router /rooms/{id}/leave [post]
func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid room ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.roomService.Leave(roomID, userID); err != nil {
		roomError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Success: true, Message: "Left room"})
}

// UpdateEmoji godoc
// @Summary Update the shared mood emoji
// @Tags Rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Param body body model.UpdateEmojiRequest true "New emoji"
// @Success 200 {object} model.RoomResponse
// @Router /rooms/{id}/emoji [put]
func (h *RoomHandler) UpdateEmoji(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid room ID"})
		return
	}

	var req model.UpdateEmojiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	room, err := h.roomService.UpdateEmoji(roomID, userID, req.Emoji)
	if err != nil {
		roomError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.RoomResponse{Success: true, Room: room.ToSnapshot()})
}

// UpdatePhoto godoc
// @Summary Update the legacy shared photo pointer
// @Tags Rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Param body body model.UpdatePhotoRequest true "Photo URL"
// @Success 200 {object} model.RoomResponse
// @Router /rooms/{id}/photo [put]
func (h *RoomHandler) UpdatePhoto(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid room ID"})
		return
	}

	var req model.UpdatePhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	room, err := h.roomService.UpdatePhoto(roomID, userID, req.PhotoURL)
	if err != nil {
		roomError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.RoomResponse{Success: true, Room: room.ToSnapshot()})
}

// SendPing godoc
// @Summary Send a ping
// @Description Records the ping, then fans out notifications best-effort. Success depends only on the record.
// @Tags Rooms
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Success 200 {object} model.PingResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /rooms/{id}/ping [post]
func (h *RoomHandler) SendPing(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid room ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	ping, err := h.roomService.SendPing(roomID, userID)
	if err != nil {
		roomError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.PingResponse{Success: true, Ping: *ping})
}

// SetToken godoc
// @Summary Register the caller's device token in a room
// @Tags Rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Param body body model.SetTokenRequest true "Device token"
// @Success 200 {object} model.SuccessResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /rooms/{id}/token [put]
func (h *RoomHandler) SetToken(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid room ID"})
		return
	}

	var req model.SetTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.roomService.SetMemberToken(roomID, userID, req.FCMToken); err != nil {
		roomError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Success: true, Message: "Token updated"})
}
