package normalize

import "strings"

func Trim(value string) string {
	return strings.TrimSpace(value)
}

func Lower(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// Upper is the database-name join key used by the catalog index: trimmed and
// uppercased, nothing else. Two connections sharing a database name collide
// on purpose.
func Upper(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

func EqualFoldTrimmed(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
