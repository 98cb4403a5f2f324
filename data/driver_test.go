package data

import (
	"context"
	"strings"
	"testing"

	"github.com/ncobase/collab/config"
)

// stubDriver hands back a value that is not a *sql.DB.
type stubDriver struct {
	name   string
	closed int
}

func (d *stubDriver) Name() string                              { return d.name }
func (d *stubDriver) Connect(context.Context, any) (any, error) { return "conn", nil }
func (d *stubDriver) Close(any) error                           { d.closed++; return nil }
func (d *stubDriver) Ping(context.Context, any) error           { return nil }

func withDrivers(t *testing.T) {
	t.Helper()
	saved := databaseDrivers
	databaseDrivers = newRegistry("database")
	t.Cleanup(func() { databaseDrivers = saved })
}

func TestRegisterAndLookup(t *testing.T) {
	withDrivers(t)
	RegisterDatabaseDriver(&stubDriver{name: "stub"})

	d, err := GetDatabaseDriver("stub")
	if err != nil || d.Name() != "stub" {
		t.Fatalf("GetDatabaseDriver = %v, %v", d, err)
	}
	_, err = GetDatabaseDriver("postgres")
	if err == nil || !strings.Contains(err.Error(), "stub") {
		t.Fatalf("missing driver err = %v, want registered names listed", err)
	}
}

func TestRegisterPanics(t *testing.T) {
	withDrivers(t)
	RegisterDatabaseDriver(&stubDriver{name: "stub"})

	for name, register := range map[string]func(){
		"nil":       func() { RegisterDatabaseDriver(nil) },
		"duplicate": func() { RegisterDatabaseDriver(&stubDriver{name: "stub"}) },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("%s registration did not panic", name)
				}
			}()
			register()
		}()
	}
}

func TestNewRejectsNonSQLConnection(t *testing.T) {
	withDrivers(t)
	stub := &stubDriver{name: "stub"}
	RegisterDatabaseDriver(stub)

	_, _, err := New(context.Background(), &config.Data{Database: &config.Database{Driver: "stub"}})
	if err == nil {
		t.Fatal("expected error for a non *sql.DB connection")
	}
	if stub.closed != 1 {
		t.Fatalf("stray connection closed %d times, want 1", stub.closed)
	}
	if _, _, err := New(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestGetTxMissing(t *testing.T) {
	if _, err := GetTx(context.Background()); err == nil {
		t.Fatal("expected error when no transaction is bound")
	}
}
