package connection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostgresConfig(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db",
		User:     "leave",
		Password: "p@ss word",
		DBName:   "leave",
		Port:     "5432",
		SSLMode:  "disable",
	}

	assert.Equal(t, "host=db user=leave password=p@ss word dbname=leave port=5432 sslmode=disable", cfg.DSN())
	assert.Equal(t, "postgres://leave:p%40ss%20word@db:5432/leave?sslmode=disable", cfg.URL())
}
