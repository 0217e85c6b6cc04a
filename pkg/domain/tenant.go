package domain

import (
	"time"

	"github.com/google/uuid"
)

// TenantStatus represents the provisioning lifecycle state of a tenant.
type TenantStatus string

const (
	TenantStatusProvisioning TenantStatus = "provisioning"
	TenantStatusReady        TenantStatus = "ready"
	TenantStatusFailed       TenantStatus = "failed"
)

// Plan is a tenant's subscription tier.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Tenant represents an organization or workspace with its own isolated
// database namespace.
type Tenant struct {
	ID            uuid.UUID
	Name          string
	Slug          string
	Status        TenantStatus
	Active        bool
	NamespaceName string
	Plan          Plan
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

// IsDeleted returns true if the tenant has been soft deleted.
func (t *Tenant) IsDeleted() bool {
	return t.DeletedAt != nil
}
