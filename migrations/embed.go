// Package migrations embeds the goose SQL migration files so cmd/api can
// run them at boot without shelling out to the goose CLI (teacher:
// cmd/api/main.go already wired goose.SetBaseFS against this package).
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
