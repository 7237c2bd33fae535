package sqlassets

import _ "embed"

//go:embed schema/core.sql
var CoreSQL string

//go:embed schema/seed_permissions.sql
var SeedPermissionsSQL string
