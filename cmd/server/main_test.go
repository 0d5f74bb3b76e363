package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/localhq/localservices/internal/app"
)

func TestDatabaseConfigDefaultsToSQLite(t *testing.T) {
	cfg := &app.Config{}
	cfg.Database.Path = "./data/app.sqlite"

	dbCfg := databaseConfig(cfg)

	assert.Equal(t, "sqlite", dbCfg.Driver)
	assert.Equal(t, "./data/app.sqlite", dbCfg.Path)
}

func TestDatabaseConfigUsesPostgresBlock(t *testing.T) {
	cfg := &app.Config{}
	cfg.Database.Driver = "postgresql"
	cfg.Database.Postgres = app.DBAuthConfig{
		Host:     "db.internal",
		Port:     5432,
		Database: "localservices",
		Username: "svc",
		Password: "pw",
	}
	cfg.Database.MySQL = app.DBAuthConfig{Host: "ignored"}

	dbCfg := databaseConfig(cfg)

	assert.Equal(t, "postgres", dbCfg.Driver)
	assert.Equal(t, "db.internal", dbCfg.Host)
	assert.Equal(t, 5432, dbCfg.Port)
	assert.Equal(t, "localservices", dbCfg.Name)
	assert.Equal(t, "svc", dbCfg.User)
	assert.Equal(t, "pw", dbCfg.Password)
}

func TestDatabaseConfigUsesMySQLBlock(t *testing.T) {
	cfg := &app.Config{}
	cfg.Database.Driver = "MySQL"
	cfg.Database.MySQL = app.DBAuthConfig{
		Host:     "mysql.internal",
		Port:     3306,
		Database: "localservices",
		Username: "svc",
		Password: "pw",
	}
	cfg.Database.Postgres = app.DBAuthConfig{Host: "ignored"}

	dbCfg := databaseConfig(cfg)

	assert.Equal(t, "mysql", dbCfg.Driver)
	assert.Equal(t, "mysql.internal", dbCfg.Host)
	assert.Equal(t, 3306, dbCfg.Port)
	assert.Equal(t, "localservices", dbCfg.Name)
	assert.Equal(t, "svc", dbCfg.User)
	assert.Equal(t, "pw", dbCfg.Password)
}
