// Package platform contiene DTOs de la consola de administración de la plataforma.
package platform

import "github.com/kobecorporation/kbsaas/internal/domain/types"

type UpdateStatusRequest struct {
	Status types.TenantStatus `json:"status"`
}

// Stats resume la flota de tenants.
type Stats struct {
	TotalTenants     int            `json:"totalTenants"`
	ByStatus         map[string]int `json:"byStatus"`
	ByPlan           map[string]int `json:"byPlan"`
	TrialTenants     int            `json:"trialTenants"`
	ActiveTenants    int            `json:"activeTenants"`
	SuspendedTenants int            `json:"suspendedTenants"`
}
