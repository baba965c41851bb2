package view

import "sync"

// Patch is the change needed to bring a displayed card set up to date.
type Patch struct {
	Update []Card   `json:"update"`
	Remove []string `json:"remove"`
	Append []Card   `json:"append"`
	Order  []string `json:"order"`
}

// Board tracks which cards a client is displaying, in display order, so that
// a new result can be applied as a patch instead of a full re-render.
type Board struct {
	mu    sync.Mutex
	order []string
}

// NewBoard returns a board that is displaying the cards with ids.
func NewBoard(ids []string) *Board {
	return &Board{order: append([]string(nil), ids...)}
}

// Displayed returns the displayed card IDs in display order.
func (b *Board) Displayed() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.order...)
}

// Apply reconciles the board with cards. Cards already displayed are updated
// where they are, displayed cards no longer present are removed, and new
// cards are appended in the order given.
func (b *Board) Apply(cards []Card) Patch {
	b.mu.Lock()
	defer b.mu.Unlock()

	incoming := make(map[string]Card, len(cards))
	for _, c := range cards {
		incoming[c.ID] = c
	}

	p := Patch{Update: []Card{}, Remove: []string{}, Append: []Card{}}
	order := make([]string, 0, len(cards))
	displayed := make(map[string]bool, len(b.order))

	for _, id := range b.order {
		displayed[id] = true
		if c, ok := incoming[id]; ok {
			p.Update = append(p.Update, c)
			order = append(order, id)
		} else {
			p.Remove = append(p.Remove, id)
		}
	}

	for _, c := range cards {
		if !displayed[c.ID] {
			p.Append = append(p.Append, c)
			order = append(order, c.ID)
			displayed[c.ID] = true
		}
	}

	b.order = order
	p.Order = append([]string(nil), order...)
	return p
}
