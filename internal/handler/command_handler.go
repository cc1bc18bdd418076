// internal/handler/command_handler.go
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"serial-service/internal/protocol/serial"
	"serial-service/internal/service"
	"serial-service/internal/utils"
)

// CommandHandler exposes the serial line over HTTP
type CommandHandler struct {
	commandService *service.CommandService
	logger         *utils.ServiceLogger
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(commandService *service.CommandService, logger *zap.Logger) *CommandHandler {
	return &CommandHandler{
		commandService: commandService,
		logger:         utils.NewServiceLogger(logger, "command-handler"),
	}
}

// SendCommandRequest is the body of POST /commands. An empty command is
// allowed and sends only the terminator.
type SendCommandRequest struct {
	Command    *string `json:"command" binding:"required"`
	Terminator string  `json:"terminator"`
}

// WriteRequest is the body of POST /writes
type WriteRequest struct {
	Data *string `json:"data" binding:"required"`
}

// SendCommand writes a terminated command
// @Summary Send a command
// @Description Append the terminator (default from config) and write the command to the serial port
// @Tags Commands
// @Accept json
// @Produce json
// @Param request body SendCommandRequest true "Command"
// @Success 200 {object} utils.APIResponse{data=service.CommandResult}
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 502 {object} utils.APIResponse "Write failed"
// @Failure 503 {object} utils.APIResponse "Serial port closed"
// @Router /commands [post]
func (h *CommandHandler) SendCommand(c *gin.Context) {
	var req SendCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	terminator := h.commandService.DefaultTerminator()
	if req.Terminator != "" {
		t, err := serial.ParseTerminator(req.Terminator)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid terminator", err)
			return
		}
		terminator = t
	}

	result, err := h.commandService.SendCommand(c.Request.Context(), *req.Command, terminator)
	if err != nil {
		h.writeError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Command sent", result)
}

// WriteString writes raw data with no terminator
// @Summary Write raw data
// @Tags Commands
// @Accept json
// @Produce json
// @Param request body WriteRequest true "Data"
// @Success 200 {object} utils.APIResponse{data=service.CommandResult}
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 502 {object} utils.APIResponse "Write failed"
// @Failure 503 {object} utils.APIResponse "Serial port closed"
// @Router /writes [post]
func (h *CommandHandler) WriteString(c *gin.Context) {
	var req WriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.commandService.WriteString(c.Request.Context(), *req.Data)
	if err != nil {
		h.writeError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Data written", result)
}

// GetConnection returns the port, its parameters and write statistics
// @Summary Connection status
// @Tags Commands
// @Produce json
// @Success 200 {object} utils.APIResponse{data=service.ConnectionStatus}
// @Router /connection [get]
func (h *CommandHandler) GetConnection(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Connection status", h.commandService.Status())
}

func (h *CommandHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		utils.ErrorResponse(c, http.StatusRequestTimeout, "Request cancelled", err)
	case errors.Is(err, serial.ErrClosed):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Serial port closed", err)
	case errors.Is(err, serial.ErrWrite):
		h.logger.Error("Serial write failed",
			zap.Error(err),
			zap.String("request_id", c.GetString(utils.RequestIDKey)),
		)
		utils.ErrorResponse(c, http.StatusBadGateway, "Unable to write to serial port", err)
	default:
		utils.LogError(h.logger.Logger, "Command failed", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Command failed", err)
	}
}
