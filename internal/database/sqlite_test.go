package database

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// newTestDB creates a new in-memory database with migrations applied.
func newTestDB(t *testing.T) *SQLiteDatabase {
	t.Helper()

	db, err := NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		t.Fatalf("failed to migrate: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestSQLiteDatabase_Order(t *testing.T) {
	ctx := context.Background()

	t.Run("empty before first save", func(t *testing.T) {
		db := newTestDB(t)
		ids, err := db.LoadOrder(ctx)
		if err != nil {
			t.Fatalf("LoadOrder() error = %v", err)
		}
		if ids == nil || len(ids) != 0 {
			t.Errorf("LoadOrder() = %#v, want empty non-nil slice", ids)
		}
	})

	t.Run("save overwrites", func(t *testing.T) {
		db := newTestDB(t)
		if err := db.SaveOrder(ctx, []string{"img-1"}); err != nil {
			t.Fatalf("SaveOrder() error = %v", err)
		}
		if err := db.SaveOrder(ctx, []string{"img-3", "img-1", "img-2"}); err != nil {
			t.Fatalf("SaveOrder() error = %v", err)
		}

		ids, err := db.LoadOrder(ctx)
		if err != nil {
			t.Fatalf("LoadOrder() error = %v", err)
		}
		want := []string{"img-3", "img-1", "img-2"}
		if !reflect.DeepEqual(ids, want) {
			t.Errorf("LoadOrder() = %v, want %v", ids, want)
		}
	})

	t.Run("empty order stored as empty array", func(t *testing.T) {
		db := newTestDB(t)
		if err := db.SaveOrder(ctx, nil); err != nil {
			t.Fatalf("SaveOrder() error = %v", err)
		}
		raw, ok, err := db.GetPreference(ctx, OrderKey)
		if err != nil || !ok {
			t.Fatalf("GetPreference(%s) = %q, %v, %v", OrderKey, raw, ok, err)
		}
		if raw != "[]" {
			t.Errorf("stored order = %q, want %q", raw, "[]")
		}
	})

	t.Run("corrupt record", func(t *testing.T) {
		db := newTestDB(t)
		if err := db.SetPreference(ctx, OrderKey, "not json"); err != nil {
			t.Fatal(err)
		}
		if _, err := db.LoadOrder(ctx); err == nil {
			t.Error("LoadOrder() expected error for corrupt record")
		}
	})
}

func TestSQLiteDatabase_Preferences(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	if _, ok, err := db.GetPreference(ctx, "darkMode"); err != nil || ok {
		t.Fatalf("GetPreference() before set = ok %v, err %v", ok, err)
	}

	if err := db.SetPreference(ctx, "darkMode", "true"); err != nil {
		t.Fatalf("SetPreference() error = %v", err)
	}
	if err := db.SetPreference(ctx, "darkMode", "false"); err != nil {
		t.Fatalf("SetPreference() error = %v", err)
	}

	v, ok, err := db.GetPreference(ctx, "darkMode")
	if err != nil {
		t.Fatalf("GetPreference() error = %v", err)
	}
	if !ok || v != "false" {
		t.Errorf("GetPreference() = %q, %v, want %q, true", v, ok, "false")
	}
}

func TestSQLiteDatabase_Operations(t *testing.T) {
	ctx := context.Background()

	t.Run("create and list operations", func(t *testing.T) {
		db := newTestDB(t)

		op1, err := db.CreateOperation(ctx, "Add", "cat.png")
		if err != nil {
			t.Fatalf("CreateOperation() error = %v", err)
		}
		if op1.ID == 0 {
			t.Error("operation ID should be non-zero")
		}

		op2, err := db.CreateOperation(ctx, "Remove", "img-1")
		if err != nil {
			t.Fatalf("CreateOperation() error = %v", err)
		}

		ops, err := db.ListOperations(ctx, 10)
		if err != nil {
			t.Fatalf("ListOperations() error = %v", err)
		}
		if len(ops) != 2 {
			t.Fatalf("got %d operations, want 2", len(ops))
		}
		if ops[0].ID != op2.ID {
			t.Errorf("expected newest first: got ID %d, want %d", ops[0].ID, op2.ID)
		}
		if ops[1].Parameters != "cat.png" {
			t.Errorf("Parameters = %q, want %q", ops[1].Parameters, "cat.png")
		}
		if ops[0].Status != "running" || ops[0].FinishedAt.Valid {
			t.Errorf("unfinished operation = %+v, want running with no finish time", ops[0])
		}
	})

	t.Run("finish operation sets status and time", func(t *testing.T) {
		db := newTestDB(t)

		op, err := db.CreateOperation(ctx, "Move", "img-2 img-1")
		if err != nil {
			t.Fatal(err)
		}
		if err := db.FinishOperation(ctx, op.ID, "success"); err != nil {
			t.Fatalf("FinishOperation() error = %v", err)
		}

		ops, err := db.ListOperations(ctx, 1)
		if err != nil {
			t.Fatal(err)
		}
		if ops[0].Status != "success" {
			t.Errorf("Status = %q, want %q", ops[0].Status, "success")
		}
		if !ops[0].FinishedAt.Valid {
			t.Error("FinishedAt should be set")
		}
	})
}

func TestSQLiteDatabase_BackupTo(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	if err := db.SaveOrder(ctx, []string{"img-2", "img-1"}); err != nil {
		t.Fatal(err)
	}

	destPath := filepath.Join(t.TempDir(), "backup.db")
	if err := db.BackupTo(destPath); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}

	backup, err := NewSQLiteDatabase(destPath)
	if err != nil {
		t.Fatalf("opening backup: %v", err)
	}
	defer backup.Close()

	ids, err := backup.LoadOrder(ctx)
	if err != nil {
		t.Fatalf("LoadOrder() error = %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"img-2", "img-1"}) {
		t.Errorf("backup order = %v", ids)
	}
}

func TestSQLiteDatabase_CheckMigrations(t *testing.T) {
	t.Run("fails on DB without migrations applied", func(t *testing.T) {
		db, err := NewSQLiteDatabase(":memory:")
		if err != nil {
			t.Fatalf("NewSQLiteDatabase() error = %v", err)
		}
		defer db.Close()

		if err := db.CheckMigrations(); !errors.Is(err, ErrNeedsMigration) {
			t.Errorf("CheckMigrations() error = %v, want %v", err, ErrNeedsMigration)
		}
		st, err := db.SchemaStatus()
		if err != nil {
			t.Fatalf("SchemaStatus() error = %v", err)
		}
		if st.Current() {
			t.Errorf("SchemaStatus() = %+v, want not current", st)
		}
	})

	t.Run("passes after Migrate", func(t *testing.T) {
		db := newTestDB(t)
		if err := db.CheckMigrations(); err != nil {
			t.Errorf("CheckMigrations() error = %v", err)
		}
	})
}

func TestSQLiteDatabase_DriverFailures(t *testing.T) {
	ctx := context.Background()
	errDisk := errors.New("disk I/O error")

	t.Run("save order", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New()
		if err != nil {
			t.Fatal(err)
		}
		defer sqlDB.Close()

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO kv")).WillReturnError(errDisk)

		db := NewSQLiteDatabaseFromDB(sqlDB)
		if err := db.SaveOrder(ctx, []string{"img-1"}); !errors.Is(err, errDisk) {
			t.Errorf("SaveOrder() error = %v, want %v", err, errDisk)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})

	t.Run("load order", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New()
		if err != nil {
			t.Fatal(err)
		}
		defer sqlDB.Close()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM kv WHERE key = ?")).
			WithArgs(OrderKey).
			WillReturnError(errDisk)

		db := NewSQLiteDatabaseFromDB(sqlDB)
		if _, err := db.LoadOrder(ctx); !errors.Is(err, errDisk) {
			t.Errorf("LoadOrder() error = %v, want %v", err, errDisk)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})

	t.Run("create operation", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New()
		if err != nil {
			t.Fatal(err)
		}
		defer sqlDB.Close()

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO operations")).
			WithArgs(sqlmock.AnyArg(), "Add", "a.png", "running").
			WillReturnError(errDisk)

		db := NewSQLiteDatabaseFromDB(sqlDB)
		if _, err := db.CreateOperation(ctx, "Add", "a.png"); !errors.Is(err, errDisk) {
			t.Errorf("CreateOperation() error = %v, want %v", err, errDisk)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})

	t.Run("load order reads stored json", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New()
		if err != nil {
			t.Fatal(err)
		}
		defer sqlDB.Close()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM kv WHERE key = ?")).
			WithArgs(OrderKey).
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`["img-3","img-1"]`))

		db := NewSQLiteDatabaseFromDB(sqlDB)
		ids, err := db.LoadOrder(ctx)
		if err != nil {
			t.Fatalf("LoadOrder() error = %v", err)
		}
		if !reflect.DeepEqual(ids, []string{"img-3", "img-1"}) {
			t.Errorf("LoadOrder() = %v", ids)
		}
	})
}
