// Package migrations embeds the SQL schema migrations so binaries do not
// depend on the working directory. The SQL is portable between PostgreSQL
// and SQLite.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file.
//
//go:embed *.sql
var FS embed.FS
