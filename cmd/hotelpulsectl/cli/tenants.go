package cli

import (
	"sort"

	"github.com/hotelpulse/hotelpulse/internal/tenants"
)

// TenantSummary describes a validated directory file.
type TenantSummary struct {
	Hotels int
	Users  int
	// Unassigned lists hotels no user can see.
	Unassigned []string
}

// CheckTenants loads and validates the directory at path.
func CheckTenants(path string) (TenantSummary, error) {
	dir, err := tenants.LoadFile(path)
	if err != nil {
		return TenantSummary{}, err
	}
	return Summarize(dir), nil
}

// Summarize counts the directory and reports hotels outside every user's scope.
func Summarize(dir *tenants.Directory) TenantSummary {
	users := dir.Users()
	allHotels := dir.HotelIDs()
	seen := make(map[string]struct{})
	for _, u := range users {
		for _, id := range u.HotelIDs {
			seen[id] = struct{}{}
		}
	}
	summary := TenantSummary{Hotels: len(allHotels), Users: len(users)}
	for _, id := range allHotels {
		if _, ok := seen[id]; !ok {
			summary.Unassigned = append(summary.Unassigned, id)
		}
	}
	sort.Strings(summary.Unassigned)
	return summary
}
