package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/lira-ai/lira/pkg/api/middleware"
	"github.com/lira-ai/lira/pkg/api/response"
	"github.com/lira-ai/lira/pkg/logger"
	"github.com/lira-ai/lira/pkg/turn"
)

// maxGenerateBody bounds the request body of a turn.
const maxGenerateBody = 64 << 10

// TurnService runs one conversational turn.
type TurnService interface {
	Handle(ctx context.Context, req turn.Request) (*turn.Response, error)
}

// GenerateHandler serves POST /api/lira/generate.
type GenerateHandler struct {
	service  TurnService
	validate *validator.Validate
}

// NewGenerateHandler creates a new generate handler.
func NewGenerateHandler(service TurnService) *GenerateHandler {
	return &GenerateHandler{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Generate decodes a turn request, runs it and returns the reply with the
// emotion summary.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req turn.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxGenerateBody)).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", requestID)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make(map[string]interface{}, len(verrs))
			for _, fe := range verrs {
				details[jsonField(fe.Field())] = fe.Tag()
			}
			response.ErrorWithDetails(w, http.StatusBadRequest, response.ErrCodeValidationFailed,
				"Request validation failed", details, requestID)
			return
		}
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), requestID)
		return
	}

	resp, err := h.service.Handle(ctx, req)
	if err != nil {
		status, code, message := turnError(err)
		log := logger.FromContext(ctx)
		if status >= http.StatusInternalServerError {
			log.ErrorContext(ctx, "Turn failed", "session_id", req.SessionID, "error", err)
		} else {
			log.WarnContext(ctx, "Turn rejected", "session_id", req.SessionID, "error", err)
		}
		response.Error(w, status, code, message, requestID)
		return
	}

	response.JSON(w, http.StatusOK, resp)
}

// turnError maps turn failures to an HTTP status, code and client message.
func turnError(err error) (int, string, string) {
	switch {
	case errors.Is(err, turn.ErrInvalidRequest):
		return http.StatusBadRequest, response.ErrCodeValidationFailed, "user_id, session_id and text are required"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, response.ErrCodeGatewayTimeout, "Turn timed out"
	case errors.Is(err, turn.ErrGenerationFailed):
		return http.StatusBadGateway, response.ErrCodeBadGateway, "Reply generation failed"
	default:
		return http.StatusInternalServerError, response.ErrCodeInternalServer, "Internal server error"
	}
}

func jsonField(field string) string {
	switch field {
	case "UserID":
		return "user_id"
	case "SessionID":
		return "session_id"
	case "Text":
		return "text"
	default:
		return field
	}
}
