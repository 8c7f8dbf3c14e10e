package main

import (
	"fmt"

	"github.com/spf13/viper"
)

// dbConfig mirrors spec.md §6's "database connection string composed from
// host/port/user/password/db variables". The repository implementation is
// SQLite (see storage.OpenSQLite and DESIGN.md's schema-simplification
// note), so dsn() is informational/log-only; the file actually opened is
// db.path.
type dbConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	Path     string
}

func loadDBConfig() dbConfig {
	viper.SetDefault("db.user", "chemca")
	viper.SetDefault("db.name", "chemca")
	viper.SetDefault("db.path", "chemca.db")
	return dbConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetInt("db.port"),
		User:     viper.GetString("db.user"),
		Password: viper.GetString("db.password"),
		Name:     viper.GetString("db.name"),
		Path:     viper.GetString("db.path"),
	}
}

func (c dbConfig) dsn() string {
	return fmt.Sprintf("postgres://%s:***@%s:%d/%s", c.User, c.Host, c.Port, c.Name)
}
