package voice

import (
	"context"
	"encoding/json"

	"voicebook/internal/auth"
	bookingservice "voicebook/internal/bookings/service"
	apperrors "voicebook/pkg/errors"
	"voicebook/pkg/model"
)

// Tool names the voice provider can invoke.
const (
	ToolBookAppointment   = "bookAppointment"
	ToolCheckAvailability = "checkAvailability"
	ToolCancelAppointment = "cancelAppointment"
)

// ToolFunc executes one tool call. The tenant comes from the verified
// claims, never from the arguments: the provider relays whatever the
// caller said, and callers lie.
type ToolFunc func(ctx context.Context, claims *auth.IdentityClaims, args json.RawMessage) (any, error)

// Registry dispatches tool calls by name.
type Registry struct {
	tools map[string]ToolFunc
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]ToolFunc)}
}

func (r *Registry) Register(name string, fn ToolFunc) {
	r.tools[name] = fn
}

func (r *Registry) Dispatch(ctx context.Context, name string, claims *auth.IdentityClaims, args json.RawMessage) (any, error) {
	fn, ok := r.tools[name]
	if !ok {
		return nil, apperrors.InvalidInput("Unknown tool: " + name)
	}
	return fn(ctx, claims, args)
}

func (r *Registry) ToolNames() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// bookArguments is what the agent sends for bookAppointment. tenantId
// shows up here from some prompt templates; it is deliberately dropped.
type bookArguments struct {
	ResourceID       string `json:"resource_id"`
	SlotTime         string `json:"slot_time"`
	DurationMin      int    `json:"duration_min,omitempty"`
	RequesterName    string `json:"requester_name,omitempty"`
	RequesterContact string `json:"requester_contact,omitempty"`
}

type availabilityArguments struct {
	ResourceID string `json:"resource_id"`
	Date       string `json:"date"`
}

type cancelArguments struct {
	ConfirmationRef string `json:"confirmation_ref"`
}

type bookingResult struct {
	ID              string `json:"id"`
	ResourceID      string `json:"resource_id"`
	ScheduledAt     string `json:"scheduled_at"`
	DurationMin     int    `json:"duration_min"`
	Status          string `json:"status"`
	ConfirmationRef string `json:"confirmation_ref"`
}

// NewBookingRegistry wires the three booking tools against the service.
func NewBookingRegistry(service bookingservice.BookingService) *Registry {
	registry := NewRegistry()

	registry.Register(ToolBookAppointment, func(ctx context.Context, claims *auth.IdentityClaims, args json.RawMessage) (any, error) {
		var params bookArguments
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, apperrors.InvalidInput("Malformed tool arguments")
		}
		if params.ResourceID == "" || params.SlotTime == "" {
			return nil, apperrors.InvalidInput("resource_id and slot_time are required")
		}

		confirmation, err := service.Book(ctx, claims.TenantID, claims.Subject, &model.BookingRequest{
			ResourceID:       params.ResourceID,
			SlotTime:         params.SlotTime,
			DurationMin:      params.DurationMin,
			RequesterName:    params.RequesterName,
			RequesterContact: params.RequesterContact,
		})
		if err != nil {
			return nil, err
		}

		return &bookingResult{
			ID:              confirmation.Booking.ID,
			ResourceID:      confirmation.Booking.ResourceID,
			ScheduledAt:     confirmation.Booking.ScheduledAt.Format("2006-01-02T15:04:05Z07:00"),
			DurationMin:     confirmation.Booking.Duration,
			Status:          confirmation.Booking.Status,
			ConfirmationRef: confirmation.ConfirmationRef,
		}, nil
	})

	registry.Register(ToolCheckAvailability, func(ctx context.Context, claims *auth.IdentityClaims, args json.RawMessage) (any, error) {
		var params availabilityArguments
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, apperrors.InvalidInput("Malformed tool arguments")
		}
		if params.ResourceID == "" || params.Date == "" {
			return nil, apperrors.InvalidInput("resource_id and date are required")
		}
		return service.CheckAvailability(ctx, claims.TenantID, params.ResourceID, params.Date)
	})

	registry.Register(ToolCancelAppointment, func(ctx context.Context, claims *auth.IdentityClaims, args json.RawMessage) (any, error) {
		var params cancelArguments
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, apperrors.InvalidInput("Malformed tool arguments")
		}
		if params.ConfirmationRef == "" {
			return nil, apperrors.InvalidInput("confirmation_ref is required")
		}
		if err := service.Cancel(ctx, claims.TenantID, params.ConfirmationRef); err != nil {
			return nil, err
		}
		return map[string]string{"status": model.BookingStatusCancelled}, nil
	})

	return registry
}
