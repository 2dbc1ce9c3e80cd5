// Package migrations embeds the PostgreSQL schema for the accounts table.
package migrations

import "embed"

// Migrations holds the goose SQL files.
//
//go:embed *.sql
var Migrations embed.FS
