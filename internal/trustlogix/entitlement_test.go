package trustlogix

import "testing"

func TestNormalizeEntitlement(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload map[string]any
		kind    string
		want    Entitlement
		ok      bool
	}{
		{
			name:    "primary field names",
			payload: map[string]any{"principalName": "ANALYST", "privileges": []any{"SELECT", "USAGE"}},
			kind:    KindRole,
			want:    Entitlement{PrincipalName: "ANALYST", PrincipalKind: KindRole, Privileges: []string{"SELECT", "USAGE"}},
			ok:      true,
		},
		{
			name:    "synonymous field names",
			payload: map[string]any{"granteeName": "bob@corp.com", "permissions": []any{"SELECT"}},
			kind:    KindUser,
			want:    Entitlement{PrincipalName: "bob@corp.com", PrincipalKind: KindUser, Privileges: []string{"SELECT"}},
			ok:      true,
		},
		{
			name:    "comma separated privileges",
			payload: map[string]any{"name": "ENGINEERING", "grants": "SELECT, INSERT"},
			kind:    KindGroup,
			want:    Entitlement{PrincipalName: "ENGINEERING", PrincipalKind: KindGroup, Privileges: []string{"SELECT", "INSERT"}},
			ok:      true,
		},
		{
			name:    "missing principal dropped",
			payload: map[string]any{"privileges": []any{"SELECT"}},
			kind:    KindUser,
			ok:      false,
		},
		{
			name:    "missing privileges dropped",
			payload: map[string]any{"principalName": "ANALYST"},
			kind:    KindRole,
			ok:      false,
		},
		{
			name:    "empty privilege list dropped",
			payload: map[string]any{"principalName": "ANALYST", "privileges": []any{}},
			kind:    KindRole,
			ok:      false,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := normalizeEntitlement(tc.payload, tc.kind)
			if ok != tc.ok {
				t.Fatalf("normalizeEntitlement() ok = %v, want %v", ok, tc.ok)
			}
			if !ok {
				return
			}
			if got.PrincipalName != tc.want.PrincipalName || got.PrincipalKind != tc.want.PrincipalKind {
				t.Fatalf("normalizeEntitlement() = %+v, want %+v", got, tc.want)
			}
			if len(got.Privileges) != len(tc.want.Privileges) {
				t.Fatalf("Privileges = %v, want %v", got.Privileges, tc.want.Privileges)
			}
			for i := range tc.want.Privileges {
				if got.Privileges[i] != tc.want.Privileges[i] {
					t.Fatalf("Privileges[%d] = %q, want %q", i, got.Privileges[i], tc.want.Privileges[i])
				}
			}
		})
	}
}
