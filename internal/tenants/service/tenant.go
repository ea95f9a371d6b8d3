package service

import (
	"context"
	"errors"

	tenantserrors "voicebook/internal/tenants/errors"
	"voicebook/internal/tenants/repository"
	"voicebook/internal/tenants/validator"
	"voicebook/pkg/config"
	apperrors "voicebook/pkg/errors"
	"voicebook/pkg/model"
	"voicebook/pkg/sanitizer"
)

type TenantService interface {
	CreateTenant(ctx context.Context, tenant *model.Tenant) (*model.Tenant, error)
	GetTenant(ctx context.Context, id string) (*model.Tenant, error)
	ListTenants(ctx context.Context, limit int, offset int64) ([]*model.Tenant, int64, error)
	UpdateTenant(ctx context.Context, id string, tenant *model.Tenant) error
	DeleteTenant(ctx context.Context, id string) error

	CreateResource(ctx context.Context, tenantID string, resource *model.Resource) (*model.Resource, error)
	GetResource(ctx context.Context, tenantID, id string) (*model.Resource, error)
	ListResources(ctx context.Context, tenantID string, limit int, offset int64) ([]*model.Resource, int64, error)
	UpdateResource(ctx context.Context, tenantID, id string, update *model.ResourceUpdate) error
	DeleteResource(ctx context.Context, tenantID, id string) error

	SetMembership(ctx context.Context, tenantID, subject, role string) error
	ListMemberships(ctx context.Context, tenantID string, limit int, offset int64) ([]*model.Membership, error)
	RemoveMembership(ctx context.Context, tenantID, subject string) error
}

type tenantService struct {
	tenants     repository.TenantRepository
	resources   repository.ResourceRepository
	memberships repository.MembershipRepository
	validator   *validator.TenantValidator
	cfg         *config.Config
}

func NewTenantService(
	tenants repository.TenantRepository,
	resources repository.ResourceRepository,
	memberships repository.MembershipRepository,
	v *validator.TenantValidator,
	cfg *config.Config,
) TenantService {
	return &tenantService{
		tenants:     tenants,
		resources:   resources,
		memberships: memberships,
		validator:   v,
		cfg:         cfg,
	}
}

func (s *tenantService) CreateTenant(ctx context.Context, tenant *model.Tenant) (*model.Tenant, error) {
	tenant.ID = ""
	tenant.Name = sanitizer.NormalizeName(tenant.Name)

	if err := s.validator.ValidateTenant(tenant); err != nil {
		return nil, validationError(err)
	}

	if err := s.tenants.Create(ctx, tenant); err != nil {
		if errors.Is(err, tenantserrors.ErrDuplicateName) {
			return nil, apperrors.Conflict("A tenant with this name already exists")
		}
		return nil, apperrors.Internal("Failed to create tenant", err)
	}

	s.cfg.Log.Info("Tenant created", "tenant_id", tenant.ID, "name", tenant.Name)
	return tenant, nil
}

func (s *tenantService) GetTenant(ctx context.Context, id string) (*model.Tenant, error) {
	tenant, err := s.tenants.FindByID(ctx, id)
	if err != nil {
		return nil, translateTenantError(err, id)
	}
	return tenant, nil
}

func (s *tenantService) ListTenants(ctx context.Context, limit int, offset int64) ([]*model.Tenant, int64, error) {
	tenants, err := s.tenants.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to list tenants", err)
	}

	total, err := s.tenants.Count(ctx)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to count tenants", err)
	}
	return tenants, total, nil
}

func (s *tenantService) UpdateTenant(ctx context.Context, id string, tenant *model.Tenant) error {
	tenant.ID = id
	tenant.Name = sanitizer.NormalizeName(tenant.Name)

	if err := s.validator.ValidateTenant(tenant); err != nil {
		return validationError(err)
	}

	if err := s.tenants.Update(ctx, id, tenant); err != nil {
		return translateTenantError(err, id)
	}
	return nil
}

func (s *tenantService) DeleteTenant(ctx context.Context, id string) error {
	if err := s.tenants.Delete(ctx, id); err != nil {
		return translateTenantError(err, id)
	}
	s.cfg.Log.Info("Tenant deleted", "tenant_id", id)
	return nil
}

func (s *tenantService) CreateResource(ctx context.Context, tenantID string, resource *model.Resource) (*model.Resource, error) {
	resource.ID = ""
	resource.TenantID = tenantID
	resource.Name = sanitizer.NormalizeName(resource.Name)
	resource.Active = true

	if err := s.validator.ValidateResource(resource); err != nil {
		return nil, validationError(err)
	}

	if err := s.resources.Create(ctx, resource); err != nil {
		if errors.Is(err, tenantserrors.ErrDuplicateName) {
			return nil, apperrors.Conflict("A resource with this name already exists")
		}
		return nil, apperrors.Internal("Failed to create resource", err)
	}

	s.cfg.Log.Info("Resource created",
		"tenant_id", tenantID,
		"resource_id", resource.ID,
		"name", resource.Name,
	)
	return resource, nil
}

func (s *tenantService) GetResource(ctx context.Context, tenantID, id string) (*model.Resource, error) {
	resource, err := s.resources.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, translateResourceError(err, id)
	}
	return resource, nil
}

func (s *tenantService) ListResources(ctx context.Context, tenantID string, limit int, offset int64) ([]*model.Resource, int64, error) {
	resources, err := s.resources.FindByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to list resources", err)
	}

	total, err := s.resources.CountByTenant(ctx, tenantID)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to count resources", err)
	}
	return resources, total, nil
}

func (s *tenantService) UpdateResource(ctx context.Context, tenantID, id string, update *model.ResourceUpdate) error {
	if update.Name != "" {
		update.Name = sanitizer.NormalizeName(update.Name)
	}

	if err := s.validator.ValidateResourceUpdate(update); err != nil {
		return validationError(err)
	}

	if err := s.resources.Update(ctx, tenantID, id, update); err != nil {
		return translateResourceError(err, id)
	}
	return nil
}

func (s *tenantService) DeleteResource(ctx context.Context, tenantID, id string) error {
	if err := s.resources.Delete(ctx, tenantID, id); err != nil {
		return translateResourceError(err, id)
	}
	s.cfg.Log.Info("Resource deleted", "tenant_id", tenantID, "resource_id", id)
	return nil
}

func (s *tenantService) SetMembership(ctx context.Context, tenantID, subject, role string) error {
	if subject == "" {
		return apperrors.InvalidInput("Subject is required")
	}
	if role != model.RoleAdmin && role != model.RoleUser {
		return apperrors.InvalidInput("Role must be admin or user")
	}

	err := s.memberships.Upsert(ctx, &model.Membership{
		TenantID: tenantID,
		Subject:  subject,
		Role:     role,
	})
	if err != nil {
		return apperrors.Internal("Failed to set membership", err)
	}

	s.cfg.Log.Info("Membership set", "tenant_id", tenantID, "subject", subject, "role", role)
	return nil
}

func (s *tenantService) ListMemberships(ctx context.Context, tenantID string, limit int, offset int64) ([]*model.Membership, error) {
	memberships, err := s.memberships.FindByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, apperrors.Internal("Failed to list memberships", err)
	}
	return memberships, nil
}

func (s *tenantService) RemoveMembership(ctx context.Context, tenantID, subject string) error {
	if err := s.memberships.Delete(ctx, tenantID, subject); err != nil {
		if errors.Is(err, tenantserrors.ErrMembershipNotFound) {
			return apperrors.NotFound("Membership")
		}
		return apperrors.Internal("Failed to remove membership", err)
	}
	return nil
}

func validationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make(map[string]any, len(validationErrs))
		for _, ve := range validationErrs {
			details[ve.Field] = ve.Message
		}
		return apperrors.Validation("Validation failed", details)
	}
	return apperrors.InvalidInput(err.Error())
}

func translateTenantError(err error, id string) error {
	switch {
	case errors.Is(err, tenantserrors.ErrTenantNotFound):
		return apperrors.NotFoundWithID("Tenant", id)
	case errors.Is(err, tenantserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid tenant id format")
	default:
		return apperrors.Internal("Tenant operation failed", err)
	}
}

func translateResourceError(err error, id string) error {
	switch {
	case errors.Is(err, tenantserrors.ErrResourceNotFound):
		return apperrors.NotFoundWithID("Resource", id)
	case errors.Is(err, tenantserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid resource id format")
	default:
		return apperrors.Internal("Resource operation failed", err)
	}
}
