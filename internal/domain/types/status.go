package types

// TenantStatus es el estado del ciclo de vida de un tenant.
type TenantStatus string

const (
	TenantStatusTrial     TenantStatus = "TRIAL"
	TenantStatusActive    TenantStatus = "ACTIVE"
	TenantStatusSuspended TenantStatus = "SUSPENDED"
	TenantStatusCancelled TenantStatus = "CANCELLED"
	TenantStatusPending   TenantStatus = "PENDING"
)

type statusInfo struct {
	display    string
	accessible bool
}

var tenantStatuses = map[TenantStatus]statusInfo{
	TenantStatusTrial:     {"Période d'essai", true},
	TenantStatusActive:    {"Actif", true},
	TenantStatusSuspended: {"Suspendu", false},
	TenantStatusCancelled: {"Annulé", false},
	TenantStatusPending:   {"En attente", false},
}

// TenantStatuses en orden de declaración.
var TenantStatuses = []TenantStatus{
	TenantStatusTrial, TenantStatusActive, TenantStatusSuspended,
	TenantStatusCancelled, TenantStatusPending,
}

func (s TenantStatus) Valid() bool {
	_, ok := tenantStatuses[s]
	return ok
}

func (s TenantStatus) DisplayName() string { return tenantStatuses[s].display }

// IsAccessible es la única fuente de verdad sobre si un tenant puede operar.
func IsAccessible(s TenantStatus) bool { return tenantStatuses[s].accessible }

// InvitationStatus es el estado de una invitación.
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "PENDING"
	InvitationAccepted  InvitationStatus = "ACCEPTED"
	InvitationExpired   InvitationStatus = "EXPIRED"
	InvitationCancelled InvitationStatus = "CANCELLED"
	InvitationDeclined  InvitationStatus = "DECLINED"
)

func (s InvitationStatus) Valid() bool {
	switch s {
	case InvitationPending, InvitationAccepted, InvitationExpired, InvitationCancelled, InvitationDeclined:
		return true
	}
	return false
}
