package sqlxrepos

import (
	"database/sql"

	"github.com/kayembi/ratiba/core"
)

// getExec picks the executor a service passed down (an open transaction) over
// the repository's own connection pool.
func getExec(repo core.DBExecutor, svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo
}

// nullStr maps the empty string to SQL NULL, for optional UUID references.
func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// strVal unwraps a nullable column back to the empty string.
func strVal(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
