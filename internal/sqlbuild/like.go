package sqlbuild

import "strings"

// LikeEscapeChar is the escape character used in rendered LIKE patterns.
const LikeEscapeChar = `\`

var likeEscaper = strings.NewReplacer(
	`\`, `\\`,
	`%`, `\%`,
	`_`, `\_`,
)

// EscapeLike escapes LIKE wildcards so s matches literally.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ContainsPattern matches s anywhere in the value.
func ContainsPattern(s string) string { return "%" + EscapeLike(s) + "%" }

// PrefixPattern matches values starting with s.
func PrefixPattern(s string) string { return EscapeLike(s) + "%" }

// SuffixPattern matches values ending with s.
func SuffixPattern(s string) string { return "%" + EscapeLike(s) }
