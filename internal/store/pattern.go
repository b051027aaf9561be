package store

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern turns a needle into a lower-cased LIKE pattern matching any
// value that contains it. Wildcards in the needle are escaped with '\', so
// queries must use ESCAPE '\'.
func ContainsPattern(needle string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(needle)) + "%"
}
