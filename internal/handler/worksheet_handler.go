package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/insieme-app/insieme-api/internal/dto"
	"github.com/insieme-app/insieme-api/internal/repository"
	"github.com/insieme-app/insieme-api/internal/service"
	"github.com/insieme-app/insieme-api/internal/utils"
)

// WorksheetHandler serves worksheet and submission read endpoints.
type WorksheetHandler struct {
	service service.WorksheetService
	logger  zerolog.Logger
}

// NewWorksheetHandler builds a worksheet handler instance.
func NewWorksheetHandler(service service.WorksheetService, logger zerolog.Logger) *WorksheetHandler {
	return &WorksheetHandler{
		service: service,
		logger:  logger.With().Str("component", "worksheet_handler").Logger(),
	}
}

// Register attaches the routes to the provided router.
func (h *WorksheetHandler) Register(router fiber.Router) {
	router.Get("/worksheets", h.list)
	router.Get("/worksheets/:id", h.get)
	router.Get("/worksheets/:id/submission", h.submission)
}

func (h *WorksheetHandler) list(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "userId query parameter is required")
	}

	worksheets, err := h.service.ListActive(c.UserContext(), userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendJSON(c, dto.NewWorksheetListResponse(worksheets))
}

func (h *WorksheetHandler) get(c *fiber.Ctx) error {
	worksheet, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendJSON(c, dto.WorksheetResponse{Success: true, Worksheet: worksheet})
}

func (h *WorksheetHandler) submission(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "userId query parameter is required")
	}

	submission, err := h.service.SubmissionFor(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendJSON(c, dto.SubmissionResponse{Success: true, Submission: submission})
}

func (h *WorksheetHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrWorksheetNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "worksheet not found")
	case errors.Is(err, repository.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	default:
		h.logger.Error().Err(err).Msg("worksheet lookup failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
