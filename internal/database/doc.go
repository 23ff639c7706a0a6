// Package database owns the SQLite connection behind the content provider.
//
// The Manager opens the database lazily and applies the schema of every
// registered entity with CREATE TABLE IF NOT EXISTS the first time a handle
// is acquired. Concurrent first callers race on a mutex, so table creation
// runs exactly once per successful initialisation:
//
//	m, err := database.NewManager("./symptomchecker.db", schema.All(), database.Options{Logger: log})
//	db, err := m.Writable()
//
// Readable and Writable return the same *gorm.DB; the split only documents
// intent at the call site. Row-level isolation is left to SQLite.
package database
