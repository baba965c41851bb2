package web

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/erazemk/trznica/internal/confirm"
	"github.com/erazemk/trznica/internal/model"
)

func TestConfirmKey(t *testing.T) {
	admin := &model.Identity{Name: "Site Admin", StudentID: "00000000001", Role: model.RoleAdmin}
	other := &model.Identity{Name: "Ana Novak", StudentID: "12345678901", Role: model.RoleAdmin}

	assert.Empty(t, confirmKey(nil, "l-1"))
	assert.NotEqual(t, confirmKey(admin, "l-1"), confirmKey(other, "l-1"))
	assert.NotEqual(t, confirmKey(admin, "l-1"), confirmKey(admin, "l-2"))

	tracker := confirm.NewTracker(time.Minute)
	assert.False(t, tracker.Confirm(confirmKey(admin, "l-1")))
	assert.False(t, tracker.Pending(confirmKey(nil, "l-1")), "no identity never sees a pending delete")
	assert.True(t, tracker.Pending(confirmKey(admin, "l-1")))
}
