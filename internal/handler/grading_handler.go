package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/insieme-app/insieme-api/internal/dto"
	"github.com/insieme-app/insieme-api/internal/models"
	"github.com/insieme-app/insieme-api/internal/observability"
	"github.com/insieme-app/insieme-api/internal/service"
	"github.com/insieme-app/insieme-api/internal/utils"
)

// GradingHandler serves the text and scanned-PDF grading endpoints.
type GradingHandler struct {
	grading    service.GradingService
	extraction service.ExtractionService
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewGradingHandler builds a grading handler instance.
func NewGradingHandler(grading service.GradingService, extraction service.ExtractionService, validator *validator.Validate, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		grading:    grading,
		extraction: extraction,
		validator:  validator,
		logger:     logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches the routes to the provided router.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Post("/gradeAnswers", h.gradeAnswers)
	router.Post("/gradeAnswersPDF", h.gradeAnswersPDF)
}

func (h *GradingHandler) gradeAnswers(c *fiber.Ctx) error {
	var payload dto.GradeAnswersRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.grading.GradeAnswers(c.UserContext(), payload.ToInput())
	if err != nil {
		return h.handleError(c, err)
	}

	observability.Gradings().WithLabelValues(result.Submission.GradingMethod).Inc()
	return utils.SendJSON(c, dto.NewGradeAnswersResponse(result))
}

func (h *GradingHandler) gradeAnswersPDF(c *fiber.Ctx) error {
	var payload dto.GradeAnswersPDFRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.extraction.GradeFromScan(c.UserContext(), payload.ToInput())
	if err != nil {
		return h.handleError(c, err)
	}

	observability.Gradings().WithLabelValues(models.GradingMethodLLMAssisted).Inc()
	return utils.SendJSON(c, dto.NewGradeScanResponse(result))
}

func (h *GradingHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrInvalidPDF):
		return utils.SendError(c, fiber.StatusBadRequest, "answerPDFData is not a valid pdf")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	case errors.Is(err, service.ErrExtractionUnparsable):
		return utils.SendError(c, fiber.StatusBadGateway, "could not read the answer sheet, please retry")
	case errors.Is(err, service.ErrUploadFailed):
		return utils.SendError(c, fiber.StatusBadGateway, "answer sheet upload failed")
	default:
		h.logger.Error().Err(err).Msg("grading failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "grading failed")
	}
}
