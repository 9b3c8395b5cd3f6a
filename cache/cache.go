// Package cache keeps the latest state of streamed records. Level one
// services only send the fields that changed since the previous update of a
// symbol, so the full quote has to be assembled on the client side.
package cache

import (
	"sort"
	"sync"

	"github.com/sallewarkiran/tda-sdk-go/client/websocket"
	"github.com/sallewarkiran/tda-sdk-go/common"
)

// Key identifies a cached record.
type Key struct {
	Service common.Service
	Symbol  string
}

// Cache is safe for concurrent use.
type Cache struct {
	records map[Key]websocket.Record
	mtx     sync.RWMutex
}

func New() *Cache {
	return &Cache{
		records: make(map[Key]websocket.Record),
	}
}

// Update merges every record of a data message into the cached record of
// its symbol, and returns the keys which were updated. Records without a
// "key" are skipped.
func (c *Cache) Update(msg websocket.Message) []Key {
	service := msg.Service()
	content := msg.Content()

	c.mtx.Lock()
	defer c.mtx.Unlock()

	keys := make([]Key, 0, len(content))
	for _, rec := range content {
		symbol, ok := rec["key"].(string)
		if !ok {
			continue
		}

		k := Key{Service: service, Symbol: symbol}
		c.mergeLocked(k, rec)
		keys = append(keys, k)
	}

	return keys
}

// Set merges a single record, e.g. a snapshot fetched over REST.
func (c *Cache) Set(service common.Service, symbol string, rec websocket.Record) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.mergeLocked(Key{Service: service, Symbol: symbol}, rec)
}

func (c *Cache) mergeLocked(k Key, rec websocket.Record) {
	cur, ok := c.records[k]
	if !ok {
		cur = make(websocket.Record, len(rec))
		c.records[k] = cur
	}

	for name, v := range rec {
		cur[name] = v
	}
}

// Get returns a copy of the cached record.
func (c *Cache) Get(service common.Service, symbol string) (websocket.Record, bool) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	rec, hit := c.records[Key{Service: service, Symbol: symbol}]
	if !hit {
		return nil, false
	}

	cp := make(websocket.Record, len(rec))
	for name, v := range rec {
		cp[name] = v
	}

	return cp, true
}

// Symbols returns the sorted symbols cached for the service.
func (c *Cache) Symbols(service common.Service) []string {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	symbols := make([]string, 0)
	for k := range c.records {
		if k.Service == service {
			symbols = append(symbols, k.Symbol)
		}
	}
	sort.Strings(symbols)

	return symbols
}

// Remove drops the cached record, e.g. after unsubscribing.
func (c *Cache) Remove(service common.Service, symbol string) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	delete(c.records, Key{Service: service, Symbol: symbol})
}

func (c *Cache) Len() int {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	return len(c.records)
}
