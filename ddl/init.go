package ddl

import "github.com/hatlonely/schemax/ref"

const Namespace = "github.com/hatlonely/schemax/ddl"

func init() {
	ref.MustRegister(Namespace, "SQLMigrator", NewSQLMigratorWithOptions)
	ref.MustRegister(Namespace, "GormMigrator", NewGormMigratorWithOptions)
	ref.MustRegister(Namespace, "MongoMigrator", NewMongoMigratorWithOptions)
	ref.MustRegister(Namespace, "ESMigrator", NewESMigratorWithOptions)
	ref.MustRegister(Namespace, "ObservableMigrator", NewObservableMigratorWithOptions)
}
