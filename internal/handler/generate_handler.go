package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/insieme-app/insieme-api/internal/dto"
	"github.com/insieme-app/insieme-api/internal/observability"
	"github.com/insieme-app/insieme-api/internal/service"
	"github.com/insieme-app/insieme-api/internal/utils"
)

// GenerateHandler serves worksheet generation requests.
type GenerateHandler struct {
	service   service.GenerationService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewGenerateHandler builds a generation handler instance.
func NewGenerateHandler(service service.GenerationService, validator *validator.Validate, logger zerolog.Logger) *GenerateHandler {
	return &GenerateHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "generate_handler").Logger(),
	}
}

// Register attaches the routes to the provided router.
func (h *GenerateHandler) Register(router fiber.Router) {
	router.Post("/generateProblems", h.generate)
}

func (h *GenerateHandler) generate(c *fiber.Ctx) error {
	var payload dto.GenerateProblemsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	worksheet, err := h.service.Generate(c.UserContext(), payload.ToInput())
	if err != nil {
		observability.WorksheetGenerations().WithLabelValues("error").Inc()
		return h.handleError(c, err)
	}

	observability.WorksheetGenerations().WithLabelValues("ready").Inc()
	return utils.SendJSON(c, dto.NewGenerateProblemsResponse(worksheet))
}

func (h *GenerateHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrTopicOrPDFRequired):
		return utils.SendError(c, fiber.StatusBadRequest, "topic or pdfData is required")
	case errors.Is(err, service.ErrInvalidPDF):
		return utils.SendError(c, fiber.StatusBadRequest, "pdfData is not a valid pdf")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("worksheet generation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "problem generation failed")
	}
}
