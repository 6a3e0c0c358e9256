package normalize

import "testing"

func TestTextHelpers(t *testing.T) {
	t.Parallel()

	if got := Trim("  health_care  "); got != "health_care" {
		t.Fatalf("Trim() = %q", got)
	}
	if got := Lower("  Snowflake "); got != "snowflake" {
		t.Fatalf("Lower() = %q", got)
	}
	if got := Upper(" health_care "); got != "HEALTH_CARE" {
		t.Fatalf("Upper() = %q", got)
	}
	if !EqualFoldTrimmed(" CRM ", "crm") {
		t.Fatal("EqualFoldTrimmed() = false, want true")
	}
}
