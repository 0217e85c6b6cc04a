package domain

import "github.com/google/uuid"

// TenantExecutionContext is the value object threaded through every
// workflow and activity call. Building it once per run keeps tenant
// scoping explicit at each step and gives one place to hang future
// routing metadata.
type TenantExecutionContext struct {
	TenantID      uuid.UUID `json:"tenant_id"`
	NamespaceName string    `json:"namespace_name,omitempty"`
	Plan          Plan      `json:"plan,omitempty"`
}

// FairnessWeight returns the scheduling weight for the tenant's plan.
// Unknown or empty plans get the base weight.
func (c TenantExecutionContext) FairnessWeight() float32 {
	switch c.Plan {
	case PlanPro:
		return 3
	case PlanEnterprise:
		return 10
	default:
		return 1
	}
}
