// Package pokeapi is a read-only client for https://pokeapi.co.
//
// Decoded answers are kept in a bounded LRU cache: the data served by the
// api does not change between releases.
package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the number of decoded resources kept in memory
const DefaultCacheSize = 512

var (
	ErrNotFound = errors.New("pokeapi: not found")
	errStatus   = errors.New("pokeapi: unexpected status")
)

type Client struct {
	baseURL string
	http    *http.Client

	cache  *lru.Cache[string, any]
	flight singleflight.Group
}

func New(baseURL string, timeout time.Duration, cacheSize int) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	// only fails on a non positive size
	cache, _ := lru.New[string, any](cacheSize)
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		cache:   cache,
	}
}

// Slug turns a display name into the identifier used in api paths
func Slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, ".", "")
	return s
}

// IDFromURL extracts the trailing numeric id of a resource url
func IDFromURL(u string) (int, bool) {
	parts := strings.Split(strings.TrimRight(u, "/"), "/")
	id, err := strconv.Atoi(parts[len(parts)-1])
	return id, err == nil
}

func (c *Client) resolve(pathOrURL string) string {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL
	}
	return c.baseURL + strings.TrimPrefix(pathOrURL, "/")
}

// CacheLen is the number of resources currently cached
func (c *Client) CacheLen() int {
	return c.cache.Len()
}

func (c *Client) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", url, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%s: %d: %w", url, resp.StatusCode, errStatus)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// fetch serves the decoded resource from the cache, asking the api once
// for concurrent misses. Cached values are shared: callers must not
// modify their slices.
func fetch[T any](ctx context.Context, c *Client, pathOrURL string, shrink func(*T)) (T, error) {
	url := c.resolve(pathOrURL)
	if v, ok := c.cache.Get(url); ok {
		if out, ok := v.(T); ok {
			return out, nil
		}
	}

	v, err, _ := c.flight.Do(url, func() (interface{}, error) {
		var out T
		if err := c.get(ctx, url, &out); err != nil {
			return out, err
		}
		if shrink != nil {
			shrink(&out)
		}
		c.cache.Add(url, out)
		return out, nil
	})
	out, _ := v.(T)
	return out, err
}

func (c *Client) Pokemon(ctx context.Context, nameOrID string) (Pokemon, error) {
	return fetch(ctx, c, "pokemon/"+Slug(nameOrID), (*Pokemon).compact)
}

func (c *Client) Species(ctx context.Context, id int) (Species, error) {
	return fetch[Species](ctx, c, "pokemon-species/"+strconv.Itoa(id), nil)
}

func (c *Client) SpeciesByURL(ctx context.Context, url string) (Species, error) {
	return fetch[Species](ctx, c, url, nil)
}

func (c *Client) Encounters(ctx context.Context, id int) (Encounters, error) {
	return fetch[Encounters](ctx, c, "pokemon/"+strconv.Itoa(id)+"/encounters", nil)
}

func (c *Client) EvolutionChain(ctx context.Context, url string) (EvolutionChain, error) {
	return fetch[EvolutionChain](ctx, c, url, nil)
}

func (c *Client) Move(ctx context.Context, url string) (Move, error) {
	return fetch[Move](ctx, c, url, nil)
}

func (c *Client) Type(ctx context.Context, name string) (Type, error) {
	return fetch[Type](ctx, c, "type/"+Slug(name), nil)
}
