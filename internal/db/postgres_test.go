package db

import (
	"os"
	"testing"
)

func TestOpen_EmptyDSN(t *testing.T) {
	sqlDB, err := Open("")
	if err == nil {
		if sqlDB != nil {
			sqlDB.Close()
		}
		t.Fatal("Open with empty DSN should return error")
	}
	if sqlDB != nil {
		t.Error("Open should return nil db when error occurs")
	}
}

func TestOpen_InvalidDSN(t *testing.T) {
	for _, dsn := range []string{"invalid-dsn", "postgres://", "://localhost/test"} {
		sqlDB, err := Open(dsn)
		if err == nil {
			if sqlDB != nil {
				sqlDB.Close()
			}
			t.Errorf("Open(%q) should return error", dsn)
		}
	}
}

func TestOpen_Success(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	sqlDB, err := Open(dsn)
	if err != nil {
		t.Skipf("database connection failed: %v", err)
	}
	defer sqlDB.Close()
	var result int
	if err := sqlDB.QueryRow("SELECT 1").Scan(&result); err != nil {
		t.Errorf("query: %v", err)
	}
	if result != 1 {
		t.Errorf("result = %d, want 1", result)
	}
}
