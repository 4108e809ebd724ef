// Package migrations embeds the goose migration set applied by
// database.RunMigrations at service startup.
package migrations

import "embed"

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
