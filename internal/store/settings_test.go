package store

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSettingsRepository_SetGet(t *testing.T) {
	s := newTestStore(t)
	settings := s.Settings()

	if _, err := settings.Get(KeyExercise); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unset key, got %v", err)
	}

	if err := settings.Set(KeyExercise, "hip-hinge"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := settings.Set(KeyExercise, "dead-bug"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err := settings.Get(KeyExercise)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "dead-bug" {
		t.Errorf("expected dead-bug, got %q", got)
	}
}

func TestSettingsRepository_SetManyAndAll(t *testing.T) {
	s := newTestStore(t)
	settings := s.Settings()

	err := settings.SetMany(map[string]string{
		KeyMinConfidence: "0.6",
		KeyCheckDistance: "true",
		KeyEnabled:       "false",
	})
	if err != nil {
		t.Fatalf("set many: %v", err)
	}

	all, err := settings.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 settings, got %d: %v", len(all), all)
	}
	if all[KeyMinConfidence] != "0.6" || all[KeyCheckDistance] != "true" || all[KeyEnabled] != "false" {
		t.Errorf("unexpected settings %v", all)
	}
}

func TestSettingsRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	settings := s.Settings()

	if err := settings.Delete(KeyActiveProfile); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting unset key, got %v", err)
	}

	if err := settings.Set(KeyActiveProfile, "abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := settings.Delete(KeyActiveProfile); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := settings.Get(KeyActiveProfile); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSettingsRepository_SetWrapsDriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	driverErr := errors.New("disk I/O error")
	mock.ExpectExec("INSERT INTO settings").
		WithArgs(KeyExercise, "plank", sqlmock.AnyArg()).
		WillReturnError(driverErr)

	s := &Store{db: db}
	err = s.Settings().Set(KeyExercise, "plank")
	if !errors.Is(err, driverErr) {
		t.Errorf("expected wrapped driver error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestSettingsRepository_SetManyRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO settings").WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	s := &Store{db: db}
	if err := s.Settings().SetMany(map[string]string{KeyEnabled: "true"}); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
