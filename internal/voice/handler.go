package voice

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"voicebook/internal/auth"
	apperrors "voicebook/pkg/errors"
	"voicebook/pkg/logger"
	"voicebook/pkg/middleware"
)

// Outward error codes for the voice provider. The agent relays these to
// the caller, so they carry no internal detail.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidToken     = "MISSING_OR_INVALID_TOKEN"
	CodeTenantMismatch   = "TENANT_MISMATCH"
	CodeResourceNotFound = "RESOURCE_NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeStorageFailure   = "STORAGE_FAILURE"
)

// toolCallEnvelope is the provider's webhook shape. Anything tenant-like
// inside arguments is ignored; identity comes from the bearer token.
type toolCallEnvelope struct {
	Message struct {
		ToolCall struct {
			Name     string `json:"name"`
			Function struct {
				Name      string          `json:"name"`
				Arguments json.RawMessage `json:"arguments"`
			} `json:"function"`
		} `json:"toolCall"`
	} `json:"message"`
}

type toolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type toolResponse struct {
	Success bool           `json:"success"`
	Booking *bookingResult `json:"booking,omitempty"`
	Result  any            `json:"result,omitempty"`
	Error   *toolError     `json:"error,omitempty"`
}

type VoiceHandler struct {
	registry      *Registry
	verifier      *auth.Verifier
	webhookSecret string
	log           *logger.Logger
}

func NewVoiceHandler(registry *Registry, verifier *auth.Verifier, webhookSecret string, log *logger.Logger) *VoiceHandler {
	return &VoiceHandler{
		registry:      registry,
		verifier:      verifier,
		webhookSecret: webhookSecret,
		log:           log,
	}
}

// RegisterRoutes mounts the tool endpoint behind webhook signature
// verification. Bearer auth happens inside the handler so failures map
// to the provider's error codes instead of the dashboard API's.
func (h *VoiceHandler) RegisterRoutes(router *httprouter.Router) {
	sigVerify := middleware.ProviderSignatureVerification(h.webhookSecret, h.log)
	router.Handler(http.MethodPost, "/api/v1/voice/tools/:tool", sigVerify(http.HandlerFunc(h.HandleToolCall)))
}

func (h *VoiceHandler) HandleToolCall(w http.ResponseWriter, r *http.Request) {
	claims, err := h.verifier.Verify(bearerToken(r))
	if err != nil {
		h.writeError(w, err)
		return
	}

	var envelope toolCallEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		h.writeError(w, apperrors.InvalidInput("Malformed webhook payload"))
		return
	}

	toolName := httprouter.ParamsFromContext(r.Context()).ByName("tool")
	bodyName := envelope.Message.ToolCall.Name
	if bodyName == "" {
		bodyName = envelope.Message.ToolCall.Function.Name
	}
	if bodyName != "" && bodyName != toolName {
		h.writeError(w, apperrors.InvalidInput("Tool name mismatch between path and payload"))
		return
	}

	args := envelope.Message.ToolCall.Function.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	result, err := h.registry.Dispatch(r.Context(), toolName, claims, args)
	if err != nil {
		h.log.Warn("Tool call failed",
			"tool", toolName,
			"tenant_id", claims.TenantID,
			"error", err,
		)
		h.writeError(w, err)
		return
	}

	h.log.Info("Tool call completed", "tool", toolName, "tenant_id", claims.TenantID)

	resp := toolResponse{Success: true}
	if booking, ok := result.(*bookingResult); ok {
		resp.Booking = booking
	} else {
		resp.Result = result
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *VoiceHandler) writeError(w http.ResponseWriter, err error) {
	appErr := apperrors.AsAppError(err)
	code, status := outwardCode(appErr)

	message := appErr.Message
	if code == CodeStorageFailure {
		message = "Booking could not be completed"
	}

	h.writeJSON(w, status, toolResponse{
		Success: false,
		Error:   &toolError{Code: code, Message: message},
	})
}

// outwardCode translates internal error codes to the provider contract.
func outwardCode(appErr *apperrors.AppError) (string, int) {
	switch appErr.Code {
	case apperrors.CodeInvalidInput, apperrors.CodeValidation:
		return CodeInvalidRequest, http.StatusBadRequest
	case apperrors.CodeUnauthorized:
		return CodeInvalidToken, http.StatusUnauthorized
	case apperrors.CodeForbidden:
		return CodeTenantMismatch, http.StatusForbidden
	case apperrors.CodeNotFound:
		return CodeResourceNotFound, http.StatusNotFound
	case apperrors.CodeConflict:
		return CodeConflict, http.StatusConflict
	default:
		return CodeStorageFailure, http.StatusInternalServerError
	}
}

func (h *VoiceHandler) writeJSON(w http.ResponseWriter, status int, resp toolResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error("Failed to encode tool response", "error", err)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}
