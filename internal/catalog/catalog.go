// Package catalog fetches creatures from a PokeAPI-shaped REST catalog.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"pokepet/internal/pet"
)

const (
	DefaultBaseURL   = "https://pokeapi.co/api/v2/pokemon"
	DefaultMinID     = 1
	DefaultMaxID     = 898
	DefaultTimeout   = 10 * time.Second
	DefaultCacheSize = 64

	// FailureMessage is what the player sees when a fetch fails.
	FailureMessage = "Failed to fetch Pokémon. Please try again."
)

var (
	ErrNetwork   = errors.New("catalog: network error")
	ErrNotFound  = errors.New("catalog: not found")
	ErrMalformed = errors.New("catalog: malformed response")
)

// Entry is one catalog creature.
type Entry struct {
	ID       int
	Name     string
	ImageURL string
}

// Display converts the entry to the data the pet carries around.
func (e Entry) Display() pet.DisplayData {
	return pet.DisplayData{Name: e.Name, ImageURL: e.ImageURL}
}

type Options struct {
	BaseURL    string
	MinID      int
	MaxID      int
	Timeout    time.Duration
	CacheSize  int
	HTTPClient *http.Client
	Rand       *rand.Rand
	Logger     *slog.Logger
}

// Client is safe for concurrent use.
type Client struct {
	base   string
	minID  int
	maxID  int
	http   *http.Client
	cache  *lru.Cache[int, Entry]
	log    *slog.Logger
	randMu sync.Mutex
	rand   *rand.Rand
}

// New builds a client. Zero options take the defaults.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.MinID == 0 && opts.MaxID == 0 {
		opts.MinID, opts.MaxID = DefaultMinID, DefaultMaxID
	}
	if opts.MinID < 1 || opts.MaxID < opts.MinID {
		return nil, fmt.Errorf("catalog: invalid id range [%d, %d]", opts.MinID, opts.MaxID)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cache, err := lru.New[int, Entry](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("catalog: creating cache: %w", err)
	}

	return &Client{
		base:  strings.TrimRight(opts.BaseURL, "/"),
		minID: opts.MinID,
		maxID: opts.MaxID,
		http:  opts.HTTPClient,
		cache: cache,
		log:   opts.Logger,
		rand:  opts.Rand,
	}, nil
}

// RandomID picks a uniform id in the configured range.
func (c *Client) RandomID() int {
	c.randMu.Lock()
	defer c.randMu.Unlock()
	return c.minID + c.rand.Intn(c.maxID-c.minID+1)
}

// FetchRandom fetches a uniformly chosen creature.
func (c *Client) FetchRandom(ctx context.Context) (Entry, error) {
	return c.Fetch(ctx, c.RandomID())
}

// Fetch returns the creature with the given id, from cache when possible.
func (c *Client) Fetch(ctx context.Context, id int) (Entry, error) {
	if e, ok := c.cache.Get(id); ok {
		c.log.Debug("catalog cache hit", "id", id)
		return e, nil
	}

	e, err := c.fetch(ctx, id)
	if err != nil {
		c.log.Warn("catalog fetch failed", "id", id, "err", err)
		return Entry{}, err
	}
	c.cache.Add(id, e)
	c.log.Info("fetched catalog entry", "id", id, "name", e.Name)
	return e, nil
}

type pokemonResponse struct {
	Name    string `json:"name"`
	Sprites struct {
		FrontDefault string `json:"front_default"`
		Other        map[string]struct {
			FrontDefault string `json:"front_default"`
		} `json:"other"`
	} `json:"sprites"`
}

func (c *Client) fetch(ctx context.Context, id int) (Entry, error) {
	url := fmt.Sprintf("%s/%d", c.base, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Entry{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	case resp.StatusCode != http.StatusOK:
		return Entry{}, fmt.Errorf("%w: GET %s: %s", ErrNetwork, url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Entry{}, fmt.Errorf("%w: reading body: %v", ErrNetwork, err)
	}
	return parse(id, body)
}

func parse(id int, body []byte) (Entry, error) {
	var r pokemonResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if r.Name == "" {
		return Entry{}, fmt.Errorf("%w: id %d has no name", ErrMalformed, id)
	}

	image := r.Sprites.Other["official-artwork"].FrontDefault
	if image == "" {
		image = r.Sprites.FrontDefault
	}
	if image == "" {
		return Entry{}, fmt.Errorf("%w: id %d has no image", ErrMalformed, id)
	}
	return Entry{ID: id, Name: r.Name, ImageURL: image}, nil
}
