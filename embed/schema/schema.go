// Package schema embeds the coordinator's SQLite DDL, mirroring the
// teacher's embed/prompts package: static assets ship inside the binary
// via go:embed rather than being read from disk at runtime.
package schema

import _ "embed"

//go:embed schema.sql
var Schema string
