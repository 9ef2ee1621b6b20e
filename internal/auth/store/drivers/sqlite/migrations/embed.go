package migrations

import "embed"

// Migrations holds the SQL migration files compiled into the binary so the
// store can bring a fresh database up to date without external files.
//
//go:embed *.sql
var Migrations embed.FS
