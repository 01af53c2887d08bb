// Package migrations embeds the versioned schema for the local database.
// Upgrades must never drop the sync_queue table: unsynced actions survive
// every schema version bump.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
