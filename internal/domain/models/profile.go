package models

// UserProfile is owned by the configuration layer and read-only to the
// pipeline. Validation rules live on the config side.
type UserProfile struct {
	ID      string
	Version int

	FirstName string
	LastName  string
	Email     string
	Phone     string
	Location  string

	CurrentTitle    string
	TargetRoles     []string
	Skills          []string
	ExperienceYears int

	RemotePreference string
	SalaryMin        int
	SalaryMax        int

	// CredentialsRef points to per-site cookie files, keyed by site name.
	CredentialsRef map[string]string

	MaxApplicationsPerDay   int
	ApplicationDelaySeconds int
	PreferredSites          []string
}

func (p UserProfile) FullName() string {
	return p.FirstName + " " + p.LastName
}
