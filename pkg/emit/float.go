package emit

import "strconv"

// formatFloat renders a float64 using the shortest decimal
// representation that round-trips back to the identical value — the
// same guarantee encoding/json's own float encoder relies on, used
// here for the human-readable guard/effect/where text fields (§4.7).
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
