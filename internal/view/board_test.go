package view

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erazemk/trznica/internal/model"
)

func cardsWithIDs(ids ...string) []Card {
	out := []Card{}
	for _, id := range ids {
		out = append(out, Card{Listing: model.Listing{ID: id, Name: "item " + id}})
	}
	return out
}

func cardIDs(cards []Card) []string {
	out := []string{}
	for _, c := range cards {
		out = append(out, c.ID)
	}
	return out
}

func TestBoardApplyFromEmpty(t *testing.T) {
	b := NewBoard(nil)
	p := b.Apply(cardsWithIDs("a", "b"))

	assert.Empty(t, p.Update)
	assert.Empty(t, p.Remove)
	assert.Equal(t, []string{"a", "b"}, cardIDs(p.Append))
	assert.Equal(t, []string{"a", "b"}, b.Displayed())
}

func TestBoardApplyKeepsPositions(t *testing.T) {
	b := NewBoard([]string{"a", "b", "c"})

	// "b" disappears, "d" is new, "c" moved ahead of "a" in the result.
	p := b.Apply(cardsWithIDs("c", "d", "a"))

	assert.Equal(t, []string{"a", "c"}, cardIDs(p.Update))
	assert.Equal(t, []string{"b"}, p.Remove)
	assert.Equal(t, []string{"d"}, cardIDs(p.Append))
	assert.Equal(t, []string{"a", "c", "d"}, p.Order)
	assert.Equal(t, []string{"a", "c", "d"}, b.Displayed())
}

func TestBoardApplyToEmpty(t *testing.T) {
	b := NewBoard([]string{"a", "b"})
	p := b.Apply(nil)

	assert.Equal(t, []string{"a", "b"}, p.Remove)
	assert.Empty(t, b.Displayed())
}

func TestBoardApplyIsIdempotent(t *testing.T) {
	b := NewBoard(nil)
	b.Apply(cardsWithIDs("a", "b"))
	p := b.Apply(cardsWithIDs("a", "b"))

	assert.Equal(t, []string{"a", "b"}, cardIDs(p.Update))
	assert.Empty(t, p.Remove)
	assert.Empty(t, p.Append)
}
