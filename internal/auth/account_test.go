package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/trznica/internal/db"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/store"
)

func registration() model.Registration {
	return model.Registration{
		FirstName:       " Ana ",
		LastName:        "Novak",
		StudentID:       "12345678901",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Major:           "Science",
		Level:           "M4",
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := Register(ctx, database, registration())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Name != "Ana Novak" || user.Role != model.RoleStudent {
		t.Errorf("unexpected user: %+v", user)
	}

	got, err := Authenticate(ctx, database, "12345678901", "secret1")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("expected user %d, got %d", user.ID, got.ID)
	}

	if _, err := Authenticate(ctx, database, "12345678901", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := Authenticate(ctx, database, "99999999999", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := Register(ctx, database, registration()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := Register(ctx, database, registration()); !errors.Is(err, ErrStudentIDTaken) {
		t.Errorf("expected ErrStudentIDTaken, got %v", err)
	}
}

func TestRegisterRejectsTakenName(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	first, err := Register(ctx, database, registration())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	reg := registration()
	reg.StudentID = "12345678902"
	if _, err := Register(ctx, database, reg); !errors.Is(err, ErrNameTaken) {
		t.Errorf("expected ErrNameTaken, got %v", err)
	}

	admin := model.User{StudentID: "00000000001", Name: "Ana Novak", Role: model.RoleAdmin}
	if _, err := CreateAccount(ctx, database, admin, "secret1"); !errors.Is(err, ErrNameTaken) {
		t.Errorf("expected ErrNameTaken for admin account, got %v", err)
	}

	if err := store.DeleteUser(ctx, database, first.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if _, err := Register(ctx, database, reg); err != nil {
		t.Errorf("expected name to be free after delete, got %v", err)
	}
}

func TestRegisterAfterDelete(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := Register(ctx, database, registration())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := store.DeleteUser(ctx, database, user.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	if _, err := Authenticate(ctx, database, "12345678901", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected deleted user to fail authentication, got %v", err)
	}
	if _, err := Register(ctx, database, registration()); err != nil {
		t.Errorf("expected re-registration after delete to succeed, got %v", err)
	}
}

func TestRegisterValidates(t *testing.T) {
	database := db.NewTestDB(t)
	reg := registration()
	reg.StudentID = "123"
	if _, err := Register(context.Background(), database, reg); !model.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}
