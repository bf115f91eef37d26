// Package migrations embeds the SQLite schema for the snapshot store.
package migrations

import "embed"

// FS contains embedded SQLite migrations.
//
//go:embed *.sql
var FS embed.FS
