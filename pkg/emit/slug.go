package emit

import "regexp"

// slugPattern is the invariant every emitted key (type, entity,
// location, section-path segment, exit, rule name) must satisfy
// (§3.1, §4.7): lowercase, starting with a letter, hyphen-separated.
var slugPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// ValidSlug reports whether s satisfies the slug invariant.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}
