package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"pokepet/internal/catalog"
	"pokepet/internal/engine"
	"pokepet/internal/pet"
	"pokepet/internal/schedule"
	"pokepet/internal/ui"
)

// runHeadless keeps the pet alive without a terminal UI. Engine messages and
// alerts are printed as they happen. Without a saved pet the first catch must
// succeed, since there is no menu to retry from.
func (a *app) runHeadless(ctx context.Context, restore *ui.Restored) error {
	q := schedule.NewQueue()
	e := engine.New(a.cfg.Engine(), schedule.NewLoop(q.Post), a.log)
	e.Subscribe(printer(a.out))
	a.subscribe(e)
	// No terminal focus to report.
	a.notifier.SetFocused(false)

	if restore != nil {
		r := *restore
		q.Post(func() { e.Restore(r.Pet, r.Needs, r.Sleeping) })
	} else {
		entry, err := a.catalog.FetchRandom(ctx)
		if err != nil {
			a.log.Error("fetching pokemon", "err", err)
			fmt.Fprintln(a.out, catalog.FailureMessage)
			return fmt.Errorf("catching a pokemon: %w", err)
		}
		q.Post(func() { e.Start(pet.New(entry.ID, entry.Display())) })
	}

	err := q.Run(ctx)
	e.Stop()
	a.notifier.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// printer writes the player-facing lines of each event to w.
func printer(w io.Writer) engine.Observer {
	return engine.ObserverFunc(func(ev engine.Event) {
		switch ev.Kind {
		case engine.EventMessage, engine.EventCritical:
			fmt.Fprintln(w, ev.Message)
		}
	})
}
