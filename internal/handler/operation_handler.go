package handler

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/academia-api/internal/middleware"
	"github.com/noah-isme/academia-api/internal/service"
	"github.com/noah-isme/academia-api/internal/utils"
)

// OperationRequest is the body of POST /operations.
type OperationRequest struct {
	Operation string          `json:"operation"`
	Variables json.RawMessage `json:"variables"`
}

// operation runs one named query or mutation for the given caller.
type operation func(ctx context.Context, actor service.Actor, variables json.RawMessage) (interface{}, error)

// Services groups the service layer dependencies the operations dispatch to.
type Services struct {
	Auth      service.AuthService
	Students  service.StudentService
	Courses   service.CourseService
	Faculty   service.FacultyService
	Dashboard service.DashboardService
	Reports   service.ReportService
	Activity  service.ActivityService
}

// OperationHandler exposes every query and mutation through one typed endpoint.
type OperationHandler struct {
	operations map[string]operation
	logger     zerolog.Logger
}

// NewOperationHandler constructs the handler and its operation registry.
func NewOperationHandler(services Services, logger zerolog.Logger) *OperationHandler {
	return &OperationHandler{
		operations: buildOperations(services),
		logger:     logger.With().Str("component", "operation_handler").Logger(),
	}
}

// Register mounts the endpoint on the router behind the given middlewares.
func (h *OperationHandler) Register(router fiber.Router, middlewares ...fiber.Handler) {
	handlers := append(append([]fiber.Handler{}, middlewares...), h.Execute)
	router.Post("/operations", handlers...)
}

// Operations lists the registered operation names in alphabetical order.
func (h *OperationHandler) Operations() []string {
	names := make([]string, 0, len(h.operations))
	for name := range h.operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute decodes the request, dispatches it and writes the response envelope.
func (h *OperationHandler) Execute(c *fiber.Ctx) error {
	var req OperationRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	name := strings.TrimSpace(req.Operation)
	op, ok := h.operations[name]
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "unknown operation")
	}
	c.Locals(middleware.LocalOperation, name)

	result, err := op(c.UserContext(), actorFromContext(c), req.Variables)
	if err != nil {
		return h.writeError(c, name, err)
	}

	return utils.SendSuccess(c, name, result)
}

func (h *OperationHandler) writeError(c *fiber.Ctx, name string, err error) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, validationMessage(err))
	case errors.Is(err, service.ErrInvalidInput):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrAccessDenied):
		return utils.SendError(c, fiber.StatusForbidden, service.ErrAccessDenied.Error())
	case errors.Is(err, service.ErrNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Str("operation", name).Msg("operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
