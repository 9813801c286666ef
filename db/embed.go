// Package db embeds the SQL schema applied at startup.
package db

import _ "embed"

// Schema contains the DDL for all marketplace tables.
//
//go:embed migrations/001_schema.sql
var Schema string
