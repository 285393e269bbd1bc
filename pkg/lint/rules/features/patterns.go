package features

import "regexp"

var (
	fromRe    = regexp.MustCompile(`(?i)(FROM)(\s+NAMED)?\b`)
	serviceRe = regexp.MustCompile(`(?i)(SERVICE)\b`)
)
