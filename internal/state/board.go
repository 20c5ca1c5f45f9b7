package state

import (
	"fmt"
	"sort"
	"sync"

	"ResearchBoard/internal/logger"
)

// Board is the single item collection of a canvas session.
type Board struct {
	clock Clock
	items map[int64]*Item
	maxZ  int64 // highest z ever assigned, deleted items included
	mu    sync.RWMutex
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{items: make(map[int64]*Item)}
}

// Add assigns a fresh identity and a z-order above every existing one, then stores the item.
func (b *Board) Add(it Item) (Item, error) {
	if err := it.Valid(); err != nil {
		return Item{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	it = it.Clone()
	it.ID = b.clock.Tick()
	b.maxZ++
	it.Z = b.maxZ
	if it.Kind == KindLine {
		it.SyncLineOrigin()
	}
	b.items[it.ID] = &it

	logger.Debug("[BOARD] item added", map[string]interface{}{"id": it.ID, "kind": it.Kind, "z": it.Z})
	return it.Clone(), nil
}

// Put replaces an existing item. Identity and z-order are kept from the stored copy.
func (b *Board) Put(it Item) error {
	if err := it.Valid(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cur, ok := b.items[it.ID]
	if !ok {
		return fmt.Errorf("put %d: %w", it.ID, ErrNotFound)
	}
	it = it.Clone()
	it.Z = cur.Z
	if it.Kind == KindLine {
		it.SyncLineOrigin()
	}
	b.items[it.ID] = &it
	return nil
}

// Restore puts back an item that was removed, keeping its identity and z-order.
func (b *Board) Restore(it Item) error {
	if err := it.Valid(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.items[it.ID]; ok || it.ID <= 0 {
		return fmt.Errorf("restore %d: id in use", it.ID)
	}
	it = it.Clone()
	b.items[it.ID] = &it
	b.clock.Update(it.ID)
	if it.Z > b.maxZ {
		b.maxZ = it.Z
	}
	return nil
}

// Get returns a copy of the item with the given id.
func (b *Board) Get(id int64) (Item, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	it, ok := b.items[id]
	if !ok {
		return Item{}, false
	}
	return it.Clone(), true
}

// Remove deletes an item; it reports whether the item existed.
func (b *Board) Remove(id int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.items[id]; !ok {
		return false
	}
	delete(b.items, id)
	logger.Debug("[BOARD] item removed", map[string]interface{}{"id": id})
	return true
}

// Items returns copies of every item in ascending z-order.
func (b *Board) Items() []Item {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Item, 0, len(b.items))
	for _, it := range b.items {
		out = append(out, it.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Z != out[j].Z {
			return out[i].Z < out[j].Z
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}

// Selected returns the selected items in ascending z-order.
func (b *Board) Selected() []Item {
	var out []Item
	for _, it := range b.Items() {
		if it.Selected {
			out = append(out, it)
		}
	}
	return out
}

// SelectionMode derives none/single/group from the selection flags.
func (b *Board) SelectionMode() SelectionMode {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, it := range b.items {
		if it.Selected {
			n++
		}
	}
	switch {
	case n == 0:
		return SelectionNone
	case n == 1:
		return SelectionSingle
	}
	return SelectionGroup
}

// Select replaces the whole selection with ids in one step. Unknown ids are ignored.
func (b *Board) Select(ids ...int64) {
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for id, it := range b.items {
		it.Selected = want[id]
	}
}

func (b *Board) ClearSelection() {
	b.Select()
}

// IsSelected reports the selection flag of one item.
func (b *Board) IsSelected(id int64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	it, ok := b.items[id]
	return ok && it.Selected
}

// BringToFront moves the given items above everything else, keeping their relative order.
func (b *Board) BringToFront(ids ...int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var targets []*Item
	for _, id := range ids {
		if it, ok := b.items[id]; ok {
			targets = append(targets, it)
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Z < targets[j].Z })
	for _, it := range targets {
		b.maxZ++
		it.Z = b.maxZ
	}
}

// MaxZ returns the highest z-order assigned so far.
func (b *Board) MaxZ() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.maxZ
}

// Hydrate replaces the collection wholesale, e.g. after loading a snapshot.
// Invalid items are dropped; the clock and z floor move past every loaded value.
func (b *Board) Hydrate(items []Item) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = make(map[int64]*Item, len(items))
	b.maxZ = 0
	for _, it := range items {
		if err := it.Valid(); err != nil {
			logger.Warn("[BOARD] dropping invalid item", map[string]interface{}{"id": it.ID, "kind": it.Kind, "reason": err.Error()})
			continue
		}
		c := it.Clone()
		if _, dup := b.items[c.ID]; dup || c.ID <= 0 {
			c.ID = b.clock.Now() + 1
		}
		b.items[c.ID] = &c
		b.clock.Update(c.ID)
		if c.Z > b.maxZ {
			b.maxZ = c.Z
		}
	}
	return len(b.items)
}
