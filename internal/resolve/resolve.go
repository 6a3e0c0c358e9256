package resolve

import (
	"github.com/trustlogix-labs/atlan-sync/internal/atlan"
	"github.com/trustlogix-labs/atlan-sync/internal/normalize"
)

// UnassignedDomain groups accounts whose assets carry no domain.
const UnassignedDomain = "Unassigned"

// MatchAssets returns every catalog asset belonging to any of the scanned
// database names. The join key is the uppercased database name only;
// identically named databases on different connections intentionally
// match together. Duplicates are removed by GUID, first occurrence wins.
func MatchAssets(idx *atlan.Index, databaseNames []string) []atlan.Asset {
	seen := make(map[string]struct{})
	var out []atlan.Asset
	for _, name := range databaseNames {
		for _, asset := range idx.ByDatabase[normalize.Upper(name)] {
			if _, dup := seen[asset.GUID]; dup {
				continue
			}
			seen[asset.GUID] = struct{}{}
			out = append(out, asset)
		}
	}
	return out
}

// ResolveDomain picks one domain name for an account by majority vote
// over its matched assets' domain assignments. Ties break toward the
// domain seen first. GUIDs that fail to resolve, or that resolve to a
// catalog domain literally named Unassigned, cast no vote. Accounts
// with no votes at all resolve to UnassignedDomain.
func ResolveDomain(idx *atlan.Index, assets []atlan.Asset) string {
	counts := make(map[string]int)
	var order []string
	for _, asset := range assets {
		for _, guid := range asset.DomainGUIDs {
			name, ok := idx.DomainName(guid)
			if !ok || name == UnassignedDomain {
				continue
			}
			if counts[name] == 0 {
				order = append(order, name)
			}
			counts[name]++
		}
	}
	if len(order) == 0 {
		return UnassignedDomain
	}
	best := order[0]
	for _, name := range order[1:] {
		if counts[name] > counts[best] {
			best = name
		}
	}
	return best
}
