package db

import (
	"testing"

	"food-storefront/config"
)

func TestDSN(t *testing.T) {
	got := DSN(config.DBConfig{Host: "db", Port: 5432, User: "shop", Password: "p@ss/word", Database: "storefront"})
	want := "postgres://shop:p%40ss%2Fword@db:5432/storefront"
	if got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
