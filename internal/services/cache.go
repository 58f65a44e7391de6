package services

import (
	"container/list"
	"sync"
	"time"

	"bizdash/internal/dataset"
)

// cachedDataset is an ingested source kept for later strategy calls.
type cachedDataset struct {
	id          string
	name        string
	format      string
	fingerprint string
	data        *dataset.Dataset
	loadedAt    time.Time
}

// datasetCache is a fixed size LRU of ingested datasets, indexed by id and
// by content fingerprint.
type datasetCache struct {
	mu            sync.Mutex
	capacity      int
	order         *list.List
	byID          map[string]*list.Element
	byFingerprint map[string]*list.Element
}

func newDatasetCache(capacity int) *datasetCache {
	if capacity < 1 {
		capacity = 1
	}
	return &datasetCache{
		capacity:      capacity,
		order:         list.New(),
		byID:          make(map[string]*list.Element),
		byFingerprint: make(map[string]*list.Element),
	}
}

func (c *datasetCache) get(id string) (*cachedDataset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cachedDataset), true
}

func (c *datasetCache) getByFingerprint(fp string) (*cachedDataset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.byFingerprint[fp]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cachedDataset), true
}

// put stores entry and returns the id of an evicted entry, if any.
func (c *datasetCache) put(entry *cachedDataset) (evicted string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.byID[entry.id]; ok {
		c.order.Remove(el)
		delete(c.byFingerprint, el.Value.(*cachedDataset).fingerprint)
	}
	el := c.order.PushFront(entry)
	c.byID[entry.id] = el
	if entry.fingerprint != "" {
		c.byFingerprint[entry.fingerprint] = el
	}

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		old := oldest.Value.(*cachedDataset)
		c.order.Remove(oldest)
		delete(c.byID, old.id)
		if c.byFingerprint[old.fingerprint] == oldest {
			delete(c.byFingerprint, old.fingerprint)
		}
		evicted = old.id
	}
	return evicted
}

func (c *datasetCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
