package types

// Plan es el plan de suscripción de un tenant.
type Plan string

const (
	PlanFree       Plan = "FREE"
	PlanStarter    Plan = "STARTER"
	PlanPro        Plan = "PRO"
	PlanEnterprise Plan = "ENTERPRISE"
)

// Feature es una capacidad habilitada por plan.
type Feature string

const (
	FeatureBasicSupport     Feature = "BASIC_SUPPORT"
	FeatureEmailSupport     Feature = "EMAIL_SUPPORT"
	FeaturePrioritySupport  Feature = "PRIORITY_SUPPORT"
	FeatureCustomBranding   Feature = "CUSTOM_BRANDING"
	FeatureCustomDomain     Feature = "CUSTOM_DOMAIN"
	FeatureAPIAccess        Feature = "API_ACCESS"
	FeatureWebhooks         Feature = "WEBHOOKS"
	FeatureSSO              Feature = "SSO"
	FeatureAuditLogs        Feature = "AUDIT_LOGS"
	FeatureDedicatedSupport Feature = "DEDICATED_SUPPORT"
)

// Unlimited marca límites sin tope (y precio "sobre presupuesto").
const Unlimited = -1

// PlanLimits es la fila de la tabla de planes.
type PlanLimits struct {
	DisplayName  string
	MaxUsers     int
	MaxStorageMB int64
	MonthlyPrice int // euros; Unlimited = sobre presupuesto
	Features     []Feature
}

var planOrder = []Plan{PlanFree, PlanStarter, PlanPro, PlanEnterprise}

var plans = map[Plan]PlanLimits{
	PlanFree: {
		DisplayName: "Gratuit", MaxUsers: 3, MaxStorageMB: 100, MonthlyPrice: 0,
		Features: []Feature{FeatureBasicSupport},
	},
	PlanStarter: {
		DisplayName: "Starter", MaxUsers: 10, MaxStorageMB: 1024, MonthlyPrice: 19,
		Features: []Feature{FeatureBasicSupport, FeatureEmailSupport, FeatureCustomBranding},
	},
	PlanPro: {
		DisplayName: "Pro", MaxUsers: 50, MaxStorageMB: 10240, MonthlyPrice: 49,
		Features: []Feature{
			FeatureBasicSupport, FeatureEmailSupport, FeaturePrioritySupport,
			FeatureCustomBranding, FeatureCustomDomain, FeatureAPIAccess,
		},
	},
	PlanEnterprise: {
		DisplayName: "Enterprise", MaxUsers: Unlimited, MaxStorageMB: Unlimited, MonthlyPrice: Unlimited,
		Features: []Feature{
			FeatureBasicSupport, FeatureEmailSupport, FeaturePrioritySupport,
			FeatureCustomBranding, FeatureCustomDomain, FeatureAPIAccess,
			FeatureWebhooks, FeatureSSO, FeatureAuditLogs, FeatureDedicatedSupport,
		},
	},
}

// Plans retorna los planes en orden ascendente.
func Plans() []Plan { return append([]Plan(nil), planOrder...) }

func (p Plan) Valid() bool {
	_, ok := plans[p]
	return ok
}

// Limits retorna la fila del plan; zero value si es desconocido.
func (p Plan) Limits() PlanLimits { return plans[p] }

// CanAddUser reporta si un tenant con count miembros puede sumar otro.
func CanAddUser(p Plan, count int) bool {
	l, ok := plans[p]
	if !ok {
		return false
	}
	return l.MaxUsers == Unlimited || count < l.MaxUsers
}

// HasFeature reporta si el plan incluye f.
func HasFeature(p Plan, f Feature) bool {
	for _, x := range plans[p].Features {
		if x == f {
			return true
		}
	}
	return false
}

func planIndex(p Plan) int {
	for i, x := range planOrder {
		if x == p {
			return i
		}
	}
	return -1
}

// PlanIsAtLeast compara por orden de declaración.
func PlanIsAtLeast(p, other Plan) bool {
	a, b := planIndex(p), planIndex(other)
	return a >= 0 && b >= 0 && a >= b
}
