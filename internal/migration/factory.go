package migration

import (
	"fmt"

	"github.com/BaSui01/productshot/internal/database"
)

// NewMigratorFromDatabaseConfig creates a migrator for the history database.
func NewMigratorFromDatabaseConfig(dbCfg database.Config) (*DefaultMigrator, error) {
	dbURL, dbType, err := DatabaseURL(dbCfg)
	if err != nil {
		return nil, err
	}
	return NewMigrator(&Config{
		DatabaseType: dbType,
		DatabaseURL:  dbURL,
	})
}

// DatabaseURL derives the migrate URL. An explicit DSN is used verbatim,
// except for sqlite where the file path is wrapped.
func DatabaseURL(dbCfg database.Config) (string, DatabaseType, error) {
	dbType, err := ParseDatabaseType(dbCfg.Driver)
	if err != nil {
		return "", "", fmt.Errorf("invalid database type: %w", err)
	}

	switch dbType {
	case DatabaseTypeSQLite:
		return BuildDatabaseURL(dbType, "", 0, dbCfg.BuildDSN(), "", "", ""), dbType, nil
	default:
		if dbCfg.DSN != "" {
			return dbCfg.DSN, dbType, nil
		}
		return BuildDatabaseURL(dbType, dbCfg.Host, dbCfg.Port, dbCfg.Name, dbCfg.User, dbCfg.Password, dbCfg.SSLMode), dbType, nil
	}
}
