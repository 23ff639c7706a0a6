package config

const (
	// DefaultDatabasePath is the default path for the records database
	DefaultDatabasePath = "./symptomchecker.db"

	// DefaultAuthority prefixes every content path, e.g. "<authority>/hospitals/1"
	DefaultAuthority = "com.example.symptomchecker"
)
