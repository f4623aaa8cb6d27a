// Package migrations embeds the storefront's PostgreSQL schema.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
