// Package db embeds the SQL migrations of both services.
package db

import "embed"

//go:embed migrations/users/*.sql
var UsersMigrations embed.FS

//go:embed migrations/contents/*.sql
var ContentsMigrations embed.FS
