package types

// Gender del perfil de usuario (opcional).
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

// CompanySize del tenant (settings).
type CompanySize string

const (
	CompanySolo       CompanySize = "SOLO"
	CompanySmall      CompanySize = "SMALL"
	CompanyMedium     CompanySize = "MEDIUM"
	CompanyLarge      CompanySize = "LARGE"
	CompanyEnterprise CompanySize = "ENTERPRISE"
)

func (c CompanySize) Valid() bool {
	switch c {
	case CompanySolo, CompanySmall, CompanyMedium, CompanyLarge, CompanyEnterprise:
		return true
	}
	return false
}
