package dbutil

import (
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var limitRegex = regexp.MustCompile(`(?i)LIMIT\s+\?\s*,\s*\?`)

// Finalize turns a builder query with `?` placeholders and a MySQL style
// `LIMIT offset, count` clause into something the target driver accepts.
func Finalize(driver, query string, args []interface{}) (string, []interface{}) {
	loc := limitRegex.FindStringIndex(query)
	if loc != nil {
		prefix := query[:loc[0]]
		qCount := strings.Count(prefix, "?")
		if qCount+1 < len(args) {
			args[qCount], args[qCount+1] = args[qCount+1], args[qCount]
			query = limitRegex.ReplaceAllString(query, "LIMIT ? OFFSET ?")
		}
	}
	if driver == DriverPostgres {
		return sqlx.Rebind(sqlx.DOLLAR, query), args
	}
	return query, args
}

// SQLiteLower is registered on the sqlite driver; the builtin LOWER only folds ASCII.
const SQLiteLower = "unicode_lower"

// LowerFunc names the case-folding SQL function for driver.
func LowerFunc(driver string) string {
	if driver == DriverPostgres {
		return "LOWER"
	}
	return SQLiteLower
}
