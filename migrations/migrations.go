// Package migrations embeds the schema files for the local store.
package migrations

import "embed"

//go:embed sqlite/*.sql
var FS embed.FS
