// Package migrations embeds the SQL schema for the PostgreSQL storage backend.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
