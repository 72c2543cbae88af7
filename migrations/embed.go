package migrations

import "embed"

// Files exposes embedded SQL migration files, one directory per driver.
//
//go:embed postgres/*.sql sqlite/*.sql
var Files embed.FS
