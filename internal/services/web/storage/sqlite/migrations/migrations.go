// Package migrations embeds the desk session schema.
package migrations

import "embed"

// FS holds the session store migrations.
//
//go:embed *.sql
var FS embed.FS
