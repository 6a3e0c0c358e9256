package trustlogix

import "strings"

// Principal kinds after normalization.
const (
	KindUser  = "user"
	KindRole  = "role"
	KindGroup = "group"
)

// Entitlement is a normalized grant of privileges to a principal. Records
// missing a principal name or all privileges are dropped during
// normalization.
type Entitlement struct {
	PrincipalName string
	PrincipalKind string
	Privileges    []string
}

// Synonymous field names across scanner configurations, tried in order.
var (
	principalKeys = []string{"principalName", "granteeName", "name", "userName", "roleName"}
	privilegeKeys = []string{"privileges", "permissions", "grants", "privilegeNames"}
)

func appendEntitlements(out []Entitlement, payloads []map[string]any, kind string) []Entitlement {
	for _, payload := range payloads {
		if e, ok := normalizeEntitlement(payload, kind); ok {
			out = append(out, e)
		}
	}
	return out
}

func normalizeEntitlement(payload map[string]any, kind string) (Entitlement, bool) {
	name := firstStringField(payload, principalKeys)
	if name == "" {
		return Entitlement{}, false
	}
	privileges := firstStringListField(payload, privilegeKeys)
	if len(privileges) == 0 {
		return Entitlement{}, false
	}
	return Entitlement{
		PrincipalName: name,
		PrincipalKind: kind,
		Privileges:    privileges,
	}, true
}

func firstStringField(payload map[string]any, keys []string) string {
	for _, key := range keys {
		if value, ok := payload[key].(string); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func firstStringListField(payload map[string]any, keys []string) []string {
	for _, key := range keys {
		value, ok := payload[key]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case []any:
			var out []string
			for _, item := range v {
				if s, ok := item.(string); ok {
					if trimmed := strings.TrimSpace(s); trimmed != "" {
						out = append(out, trimmed)
					}
				}
			}
			if len(out) > 0 {
				return out
			}
		case string:
			var out []string
			for _, part := range strings.Split(v, ",") {
				if trimmed := strings.TrimSpace(part); trimmed != "" {
					out = append(out, trimmed)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}
