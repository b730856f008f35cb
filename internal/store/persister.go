package store

import (
	"pokepet/internal/engine"
	"pokepet/internal/pet"
)

// Persister saves the pet after every change and clears the record once the
// pet runs away.
type Persister struct {
	w *Writer
}

func NewPersister(w *Writer) *Persister {
	return &Persister{w: w}
}

// Notify implements engine.Observer.
func (p *Persister) Notify(ev engine.Event) {
	if ev.Kind != engine.EventChanged || !ev.Snapshot.Active {
		return
	}
	snap := ev.Snapshot
	if snap.Mode == pet.GameOver {
		p.w.Clear()
		return
	}
	p.w.Save(snap.Pet, snap.Needs, snap.Mode)
}
