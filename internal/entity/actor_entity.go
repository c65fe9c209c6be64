package entity

import "github.com/google/uuid"

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleTechnician Role = "technician"
	RoleViewer     Role = "viewer"
)

// Capability is the permission a tool requires before it may run.
type Capability string

const (
	CapabilityFleetRead        Capability = "fleet.read"
	CapabilityMaintenanceWrite Capability = "maintenance.write"
	CapabilityInventoryWrite   Capability = "inventory.write"
	CapabilityPurchasingWrite  Capability = "purchasing.write"
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin:      {CapabilityFleetRead, CapabilityMaintenanceWrite, CapabilityInventoryWrite, CapabilityPurchasingWrite},
	RoleManager:    {CapabilityFleetRead, CapabilityMaintenanceWrite, CapabilityInventoryWrite, CapabilityPurchasingWrite},
	RoleTechnician: {CapabilityFleetRead, CapabilityMaintenanceWrite, CapabilityInventoryWrite},
	RoleViewer:     {CapabilityFleetRead},
}

// Actor is the authenticated caller. Every assistant operation receives it
// explicitly; nothing reads identity from request state.
type Actor struct {
	UserId    uuid.UUID
	CompanyId uuid.UUID
	Role      Role
}

func (a Actor) Can(capability Capability) bool {
	if capability == "" {
		return true
	}
	role := a.Role
	if role == "" {
		role = RoleViewer
	}
	for _, c := range roleCapabilities[role] {
		if c == capability {
			return true
		}
	}
	return false
}

// Owns reports whether a record scoped to (userId, companyId) belongs to the actor.
func (a Actor) Owns(userId, companyId uuid.UUID) bool {
	return a.UserId == userId && a.CompanyId == companyId
}
