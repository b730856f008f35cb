// Package store persists the active pet so a restart can resume it. Records
// are JSON, written under one well-known key, and expire after a staleness
// window.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pokepet/internal/pet"
)

const (
	DefaultKey        = "pokemonTamagotchi"
	DefaultStaleAfter = 24 * time.Hour
)

var (
	ErrInvalidRecord = errors.New("store: invalid record")
	// ErrTerminal is returned when saving a pet that has run away.
	ErrTerminal = errors.New("store: pet has run away")
)

// Record is the persisted layout.
type Record struct {
	CatalogID   int             `json:"catalogId"`
	DisplayData pet.DisplayData `json:"displayData"`
	Nickname    *string         `json:"nickname"` // null shows the catalog name
	Hunger      float64         `json:"hunger"`
	Happiness   float64         `json:"happiness"`
	Energy      float64         `json:"energy"`
	IsSleeping  bool            `json:"isSleeping"`
	Timestamp   int64           `json:"timestamp"` // Unix milliseconds
}

// NewRecord captures a live pet at time now.
func NewRecord(p pet.Pet, needs pet.Needs, mode pet.Mode, now time.Time) (Record, error) {
	if mode == pet.GameOver {
		return Record{}, ErrTerminal
	}
	var nickname *string
	if p.Nickname != "" {
		nickname = &p.Nickname
	}
	return Record{
		CatalogID:   p.CatalogID,
		DisplayData: p.Display,
		Nickname:    nickname,
		Hunger:      needs.Hunger,
		Happiness:   needs.Happiness,
		Energy:      needs.Energy,
		IsSleeping:  mode == pet.Asleep,
		Timestamp:   now.UnixMilli(),
	}, nil
}

func (r Record) Pet() pet.Pet {
	p := pet.New(r.CatalogID, r.DisplayData)
	if r.Nickname != nil {
		p = pet.Rename(p, *r.Nickname)
	}
	return p
}

func (r Record) Needs() pet.Needs {
	return pet.Needs{Hunger: r.Hunger, Happiness: r.Happiness, Energy: r.Energy}
}

func (r Record) SavedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Validate rejects records a live pet could never have produced. A gauge at
// zero means the pet had already run away.
func (r Record) Validate() error {
	switch {
	case r.CatalogID <= 0:
		return fmt.Errorf("%w: catalog id %d", ErrInvalidRecord, r.CatalogID)
	case r.DisplayData.Name == "":
		return fmt.Errorf("%w: missing name", ErrInvalidRecord)
	case r.Timestamp <= 0:
		return fmt.Errorf("%w: missing timestamp", ErrInvalidRecord)
	}
	for _, g := range pet.Gauges {
		v := r.Needs().Get(g)
		if v <= pet.MinStat || v > pet.MaxStat {
			return fmt.Errorf("%w: %s out of range: %v", ErrInvalidRecord, g, v)
		}
	}
	return nil
}

type Options struct {
	Key        string
	StaleAfter time.Duration
	Logger     *slog.Logger
}

// Store reads and writes the pet record through a KV backend.
type Store struct {
	kv         KV
	key        string
	staleAfter time.Duration
	log        *slog.Logger
}

// New wraps kv. Zero options fall back to the defaults.
func New(kv KV, opts Options) *Store {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = DefaultStaleAfter
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Store{kv: kv, key: opts.Key, staleAfter: opts.StaleAfter, log: opts.Logger}
}

// Save stamps and writes the current pet.
func (s *Store) Save(ctx context.Context, p pet.Pet, needs pet.Needs, mode pet.Mode) (Record, error) {
	rec, err := NewRecord(p, needs, mode, pet.TimeNow())
	if err != nil {
		return Record{}, err
	}
	return rec, s.Put(ctx, rec)
}

// Put writes rec as is.
func (s *Store) Put(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	if err := s.kv.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("saving record: %w", err)
	}
	s.log.Debug("saved state", "key", s.key, "catalog_id", rec.CatalogID)
	return nil
}

// Load returns the saved record if there is a usable one. Corrupt, invalid
// and expired records are removed and reported as absent.
func (s *Store) Load(ctx context.Context) (Record, bool) {
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return Record{}, false
	}
	if err != nil {
		s.log.Warn("error reading saved state", "err", err)
		return Record{}, false
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.log.Debug("discarding corrupt saved state", "err", err)
		s.discard(ctx)
		return Record{}, false
	}
	if err := rec.Validate(); err != nil {
		s.log.Debug("discarding invalid saved state", "err", err)
		s.discard(ctx)
		return Record{}, false
	}

	age := pet.TimeNow().Sub(rec.SavedAt())
	if age > s.staleAfter {
		s.log.Info("saved state expired", "age", age.Round(time.Second), "limit", s.staleAfter)
		s.discard(ctx)
		return Record{}, false
	}
	return rec, true
}

// Clear removes the saved record.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clearing record: %w", err)
	}
	s.log.Debug("cleared state", "key", s.key)
	return nil
}

func (s *Store) discard(ctx context.Context) {
	if err := s.Clear(ctx); err != nil {
		s.log.Warn("error clearing saved state", "err", err)
	}
}
