// Package migrations embeds the artifact index schema for goose.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
