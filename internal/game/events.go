package game

import "sync"

type EventKind string

const (
	EventState             EventKind = "state"
	EventClock             EventKind = "clock"
	EventDrawOffered       EventKind = "draw_offered"
	EventDrawDeclined      EventKind = "draw_declined"
	EventAlert             EventKind = "alert"
	EventPromotionRequired EventKind = "promotion_required"
	EventGameOver          EventKind = "game_over"
)

type Event struct {
	Kind EventKind
	View View
	Err  error
}

type EventCallback func(Event)

type callbackEntry struct {
	id       int
	callback EventCallback
}

type eventRegistry struct {
	mu     sync.RWMutex
	nextID int
	cbs    []callbackEntry
}

func (r *eventRegistry) add(cb EventCallback) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.cbs = append(r.cbs, callbackEntry{id: r.nextID, callback: cb})
	return r.nextID
}

func (r *eventRegistry) remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cb := range r.cbs {
		if cb.id == id {
			r.cbs = append(r.cbs[:i], r.cbs[i+1:]...)
			break
		}
	}
}

func (r *eventRegistry) emit(events ...Event) {
	if len(events) == 0 {
		return
	}
	r.mu.RLock()
	callbacks := make([]callbackEntry, len(r.cbs))
	copy(callbacks, r.cbs)
	r.mu.RUnlock()
	for _, ev := range events {
		for _, entry := range callbacks {
			if entry.callback != nil {
				entry.callback(ev)
			}
		}
	}
}
