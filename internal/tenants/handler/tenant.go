package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"voicebook/internal/auth"
	"voicebook/internal/tenants/service"
	apperrors "voicebook/pkg/errors"
	apphttp "voicebook/pkg/http"
	"voicebook/pkg/logger"
	"voicebook/pkg/model"
)

// TenantHandler exposes the provisioning surface: tenants, their
// bookable resources, and membership roles. Mutations are admin-only.
type TenantHandler struct {
	service service.TenantService
	authMw  *auth.Middleware
	log     *logger.Logger
}

func NewTenantHandler(svc service.TenantService, authMw *auth.Middleware, log *logger.Logger) *TenantHandler {
	return &TenantHandler{
		service: svc,
		authMw:  authMw,
		log:     log,
	}
}

func (h *TenantHandler) RegisterRoutes(router *httprouter.Router) {
	admin := func(next httprouter.Handle) httprouter.Handle {
		return h.authMw.RequireAuth(h.authMw.VerifyTenantOwnership(h.authMw.RequireRole(model.RoleAdmin, next)))
	}
	member := func(next httprouter.Handle) httprouter.Handle {
		return h.authMw.RequireAuth(h.authMw.VerifyTenantOwnership(next))
	}

	// Tenant creation is unscoped: the creator has no tenant yet.
	router.POST("/v1/tenants", h.authMw.RequireAuth(h.CreateTenant))
	router.GET("/v1/tenants/:tenantId", member(h.GetTenant))
	router.PUT("/v1/tenants/:tenantId", admin(h.UpdateTenant))
	router.DELETE("/v1/tenants/:tenantId", admin(h.DeleteTenant))

	router.POST("/v1/tenants/:tenantId/resources", admin(h.CreateResource))
	router.GET("/v1/tenants/:tenantId/resources", member(h.ListResources))
	router.GET("/v1/tenants/:tenantId/resources/:resourceId", member(h.GetResource))
	router.PATCH("/v1/tenants/:tenantId/resources/:resourceId", admin(h.UpdateResource))
	router.DELETE("/v1/tenants/:tenantId/resources/:resourceId", admin(h.DeleteResource))

	router.PUT("/v1/tenants/:tenantId/members/:subject", admin(h.SetMembership))
	router.GET("/v1/tenants/:tenantId/members", admin(h.ListMemberships))
	router.DELETE("/v1/tenants/:tenantId/members/:subject", admin(h.RemoveMembership))
}

func (h *TenantHandler) CreateTenant(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var tenant model.Tenant
	if err := json.NewDecoder(r.Body).Decode(&tenant); err != nil {
		apphttp.WriteError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	created, err := h.service.CreateTenant(r.Context(), &tenant)
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	apphttp.WriteCreated(w, created)
}

func (h *TenantHandler) GetTenant(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenant, err := h.service.GetTenant(r.Context(), ps.ByName("tenantId"))
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	apphttp.WriteSuccess(w, tenant)
}

func (h *TenantHandler) UpdateTenant(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var tenant model.Tenant
	if err := json.NewDecoder(r.Body).Decode(&tenant); err != nil {
		apphttp.WriteError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.UpdateTenant(r.Context(), ps.ByName("tenantId"), &tenant); err != nil {
		apphttp.WriteError(w, err)
		return
	}

	apphttp.WriteSuccess(w, tenant)
}

func (h *TenantHandler) DeleteTenant(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.DeleteTenant(r.Context(), ps.ByName("tenantId")); err != nil {
		apphttp.WriteError(w, err)
		return
	}

	apphttp.WriteNoContent(w)
}

func (h *TenantHandler) CreateResource(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var resource model.Resource
	if err := json.NewDecoder(r.Body).Decode(&resource); err != nil {
		apphttp.WriteError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	created, err := h.service.CreateResource(r.Context(), ps.ByName("tenantId"), &resource)
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	apphttp.WriteCreated(w, created)
}

func (h *TenantHandler) GetResource(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	resource, err := h.service.GetResource(r.Context(), ps.ByName("tenantId"), ps.ByName("resourceId"))
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	apphttp.WriteSuccess(w, resource)
}

func (h *TenantHandler) ListResources(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := apphttp.ExtractLimitOffset(r)
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	resources, total, err := h.service.ListResources(r.Context(), ps.ByName("tenantId"), limit, offset)
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	apphttp.WritePaginated(w, resources, total, limit, int(offset))
}

func (h *TenantHandler) UpdateResource(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.ResourceUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		apphttp.WriteError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.UpdateResource(r.Context(), ps.ByName("tenantId"), ps.ByName("resourceId"), &update); err != nil {
		apphttp.WriteError(w, err)
		return
	}

	apphttp.WriteNoContent(w)
}

func (h *TenantHandler) DeleteResource(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.DeleteResource(r.Context(), ps.ByName("tenantId"), ps.ByName("resourceId")); err != nil {
		apphttp.WriteError(w, err)
		return
	}

	apphttp.WriteNoContent(w)
}

type membershipRequest struct {
	Role string `json:"role"`
}

func (h *TenantHandler) SetMembership(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req membershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apphttp.WriteError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.SetMembership(r.Context(), ps.ByName("tenantId"), ps.ByName("subject"), req.Role); err != nil {
		apphttp.WriteError(w, err)
		return
	}

	apphttp.WriteNoContent(w)
}

func (h *TenantHandler) ListMemberships(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := apphttp.ExtractLimitOffset(r)
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	memberships, err := h.service.ListMemberships(r.Context(), ps.ByName("tenantId"), limit, offset)
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	apphttp.WriteSuccess(w, memberships)
}

func (h *TenantHandler) RemoveMembership(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.RemoveMembership(r.Context(), ps.ByName("tenantId"), ps.ByName("subject")); err != nil {
		apphttp.WriteError(w, err)
		return
	}

	apphttp.WriteNoContent(w)
}
