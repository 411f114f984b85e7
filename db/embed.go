// Package db provides embedded database schema and seed data files.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// SeedProducts contains the default storefront catalog as a JSON array.
//
//go:embed seed/products.json
var SeedProducts []byte
