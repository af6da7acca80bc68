package migrations

import "embed"

// FS holds the weblog's SQLite schema migrations.
//
//go:embed *.sql
var FS embed.FS
