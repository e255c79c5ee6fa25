// Package migrations compiles the SQL migration files into the binary,
// so a deployment is a single executable with no schema files alongside
// it. Importing this package for side effects registers the embedded
// filesystem with the database package:
//
//	import _ "github.com/XolifyDev/mizan-core/migrations"
package migrations

import (
	"embed"

	"github.com/XolifyDev/mizan-core/internal/infrastructure/database"
)

//go:embed *.sql
var files embed.FS

func init() {
	database.MigrationsFS = files
	database.MigrationsDir = "."
}
