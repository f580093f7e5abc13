package game

import (
	"time"

	"github.com/park285/chessonline-client/internal/board"
)

// recaptureLocked takes the snapshot's remaining times as the new clock base.
func (r *Reconciler) recaptureLocked(at time.Time) {
	r.clock = captureClock(r.snap, at)
	r.whiteMs = r.clock.WhiteMs
	r.blackMs = r.clock.BlackMs
}

// freezeLocked stops the mover's clock at its displayed value after a local move.
func (r *Reconciler) freezeLocked(mover board.Color) {
	now := r.now()
	if mover == board.White {
		r.clock.WhiteMs = r.whiteMs
	} else {
		r.clock.BlackMs = r.blackMs
	}
	r.clock.CapturedAt = now
}

func (r *Reconciler) halfMovesLocked() int {
	n := r.hist.Len()
	if p := r.board.Plies(); p > n {
		n = p
	}
	return n
}

// shouldTickLocked: the game is active with a clock, push is connected and
// both sides have moved at least once.
func (r *Reconciler) shouldTickLocked() bool {
	if r.closed || !r.loaded || !r.snap.Active() || !r.snap.HasClock {
		return false
	}
	if r.push == nil || r.unsubscribe == nil || !r.push.IsConnected() {
		return false
	}
	return r.halfMovesLocked() >= 2
}

func (r *Reconciler) updateTickerLocked() {
	want := r.shouldTickLocked()
	switch {
	case want && r.tickStop == nil:
		stop := make(chan struct{})
		r.tickStop = stop
		r.wg.Add(1)
		go r.tickLoop(stop)
	case !want && r.tickStop != nil:
		r.stopTickerLocked()
	}
}

func (r *Reconciler) stopTickerLocked() {
	if r.tickStop != nil {
		close(r.tickStop)
		r.tickStop = nil
	}
}

func (r *Reconciler) tickLoop(stop chan struct{}) {
	defer r.wg.Done()
	t := time.NewTicker(r.tickEvery)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			r.tick()
		}
	}
}

// tick recomputes the displayed time of the side on move only.
func (r *Reconciler) tick() {
	r.mu.Lock()
	if r.tickStop == nil {
		r.mu.Unlock()
		return
	}
	if !r.shouldTickLocked() {
		r.stopTickerLocked()
		events := []Event{{Kind: EventState}}
		r.fillViewsLocked(events)
		r.mu.Unlock()
		r.events.emit(events...)
		return
	}
	onMove := r.board.Turn()
	rem := r.clock.Remaining(onMove, onMove, r.now())
	if onMove == board.White {
		r.whiteMs = rem
	} else {
		r.blackMs = rem
	}
	events := []Event{{Kind: EventClock}}
	r.fillViewsLocked(events)
	r.mu.Unlock()
	r.events.emit(events...)
}
