package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE_DRIVER", "")
	os.Unsetenv("STORE_DRIVER")

	cnf, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cnf.DB.Port != 5432 || cnf.Srv.RideServicePort != "3000" {
		t.Fatalf("unexpected defaults: db port %d, srv port %s", cnf.DB.Port, cnf.Srv.RideServicePort)
	}
	if cnf.App.StoreDriver != StorePostgres {
		t.Fatalf("expected postgres store, got %s", cnf.App.StoreDriver)
	}
}

func TestNewYAMLOverlayAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "travelo.yaml")
	data := []byte(`
db:
  host: db.internal
  port: 6543
server:
  ride_service: "4000"
app:
  otp_ttl: 2m
  store_driver: memory
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DB_HOST", "db.override")

	cnf, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cnf.DB.Host != "db.override" {
		t.Errorf("env must win over yaml, got %s", cnf.DB.Host)
	}
	if cnf.DB.Port != 6543 {
		t.Errorf("yaml port not applied, got %d", cnf.DB.Port)
	}
	if cnf.Srv.RideServicePort != "4000" {
		t.Errorf("yaml server port not applied, got %s", cnf.Srv.RideServicePort)
	}
	if cnf.App.OtpTTL != 2*time.Minute {
		t.Errorf("yaml otp ttl not applied, got %v", cnf.App.OtpTTL)
	}
	if cnf.App.StoreDriver != StoreMemory {
		t.Errorf("yaml store driver not applied, got %s", cnf.App.StoreDriver)
	}
	// untouched sections keep their defaults
	if cnf.RabbitMq.Port != 5672 {
		t.Errorf("expected default rabbitmq port, got %d", cnf.RabbitMq.Port)
	}
}

func TestNewRejectsUnknownStore(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE_DRIVER", "mongo")

	if _, err := New(); err == nil {
		t.Fatal("expected error for unknown store driver")
	}
}

func TestDSN(t *testing.T) {
	c := DBconfig{Host: "h", Port: 5432, User: "u", Password: "p@ss", Database: "d", SSLMode: "disable"}
	want := "postgres://u:p%40ss@h:5432/d?sslmode=disable"
	if got := c.DSN(); got != want {
		t.Fatalf("DSN = %s, want %s", got, want)
	}
}
