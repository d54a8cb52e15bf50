// Package partner defines the partner identity used by the authenticated
// dashboard API: who a partner is, what role they hold and which permissions
// that grants.
package partner

// Permissions granted to partner roles.
const (
	PermViewMetrics   = "view_metrics"
	PermExportData    = "export_data"
	PermManageUsers   = "manage_users"
	PermViewAnalytics = "view_analytics"
)

// Partner is an authenticated integration partner.
type Partner struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	Organization string   `json:"organization"`
	Role         string   `json:"role"`
	Permissions  []string `json:"permissions"`
}

// HasPermission reports whether the partner holds the named permission. A nil
// partner holds nothing.
func (p *Partner) HasPermission(permission string) bool {
	if p == nil {
		return false
	}
	for _, granted := range p.Permissions {
		if granted == permission {
			return true
		}
	}
	return false
}
