package handler

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"voicebook/internal/auth"
	"voicebook/internal/bookings/service"
	apperrors "voicebook/pkg/errors"
	apphttp "voicebook/pkg/http"
	"voicebook/pkg/logger"
)

// BookingHandler exposes the dashboard surface for bookings. Every route
// is tenant-scoped: the tenant comes from the verified token and must
// match the path.
type BookingHandler struct {
	service service.BookingService
	authMw  *auth.Middleware
	log     *logger.Logger
}

func NewBookingHandler(svc service.BookingService, authMw *auth.Middleware, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: svc,
		authMw:  authMw,
		log:     log,
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	guard := func(next httprouter.Handle) httprouter.Handle {
		return h.authMw.RequireAuth(h.authMw.VerifyTenantOwnership(next))
	}

	router.GET("/v1/tenants/:tenantId/bookings", guard(h.ListByTenant))
	router.GET("/v1/tenants/:tenantId/resources/:resourceId/bookings", guard(h.List))
	router.GET("/v1/tenants/:tenantId/resources/:resourceId/availability", guard(h.Availability))
	router.GET("/v1/tenants/:tenantId/bookings/:id", guard(h.GetByID))
	router.DELETE("/v1/tenants/:tenantId/bookings/:id", guard(h.Cancel))
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenantID := ps.ByName("tenantId")
	resourceID := ps.ByName("resourceId")

	limit, offset, err := apphttp.ExtractLimitOffset(r)
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	from, to, err := extractTimeWindow(r)
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	bookings, total, err := h.service.ListByResource(r.Context(), tenantID, resourceID, from, to, limit, offset)
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	apphttp.WritePaginated(w, bookings, total, limit, int(offset))
}

func (h *BookingHandler) ListByTenant(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := apphttp.ExtractLimitOffset(r)
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	from, to, err := extractTimeWindow(r)
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	bookings, total, err := h.service.ListByTenant(r.Context(), ps.ByName("tenantId"), from, to, limit, offset)
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	apphttp.WritePaginated(w, bookings, total, limit, int(offset))
}

func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenantID := ps.ByName("tenantId")
	resourceID := ps.ByName("resourceId")
	date := r.URL.Query().Get("date")

	availability, err := h.service.CheckAvailability(r.Context(), tenantID, resourceID, date)
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	apphttp.WriteSuccess(w, availability)
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("tenantId"), ps.ByName("id"))
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	apphttp.WriteSuccess(w, booking)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.CancelByID(r.Context(), ps.ByName("tenantId"), ps.ByName("id")); err != nil {
		apphttp.WriteError(w, err)
		return
	}

	apphttp.WriteNoContent(w)
}

func extractTimeWindow(r *http.Request) (*time.Time, *time.Time, error) {
	query := r.URL.Query()

	var from, to *time.Time
	if s := query.Get("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, nil, apperrors.InvalidInput("from must be an RFC3339 timestamp")
		}
		from = &t
	}
	if s := query.Get("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, nil, apperrors.InvalidInput("to must be an RFC3339 timestamp")
		}
		to = &t
	}

	return from, to, nil
}
