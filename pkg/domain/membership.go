package domain

import (
	"time"

	"github.com/google/uuid"
)

// MembershipRole represents a user's role within a tenant.
type MembershipRole string

const (
	RoleOwner  MembershipRole = "owner"
	RoleAdmin  MembershipRole = "admin"
	RoleMember MembershipRole = "member"
)

// Membership represents a user's membership in a tenant.
// The (user_id, tenant_id) pair is unique.
type Membership struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	UserID    uuid.UUID
	Role      MembershipRole
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TenantInvite is a pending email invite into a tenant. Invites expire
// and are swept by the scheduled cleanup workflow.
type TenantInvite struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Email      string
	Role       MembershipRole
	TokenHash  string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	AcceptedAt *time.Time
}

// IsPending returns true if the invite has not been accepted and has not
// expired.
func (i *TenantInvite) IsPending() bool {
	return i.AcceptedAt == nil && time.Now().Before(i.ExpiresAt)
}
