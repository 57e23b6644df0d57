package querycache

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Tags carried by tenant-scoped entries. A workspace switch drops all of them.
const (
	TagDocuments   = "documents"
	TagOrgSettings = "orgSettings"
	TagMembers     = "members"
	TagTenant      = "tenant"
)

// TenantScopedTags is the invalidation set applied on workspace commit.
var TenantScopedTags = []string{TagDocuments, TagOrgSettings, TagMembers, TagTenant}

// Invalidator is the narrow capability handed to the tenant store: it only
// gets to drop tagged entries, never to read or write them.
type Invalidator interface {
	InvalidateTags(tags ...string)
}

// QueryCache is a remote-data cache with tag-based invalidation. Entries
// expire on their own after five minutes (the dashboard's staleness window);
// tags exist so a tenant switch can drop related entries at once.
type QueryCache struct {
	store *cache.Cache

	mu   sync.Mutex
	tags map[string]map[string]struct{} // tag -> set of keys
}

func New() *QueryCache {
	// Default expiration of 5 minutes, purge sweep every 10.
	return &QueryCache{
		store: cache.New(5*time.Minute, 10*time.Minute),
		tags:  make(map[string]map[string]struct{}),
	}
}

func (q *QueryCache) Set(key string, value interface{}, tags ...string) {
	q.store.Set(key, value, cache.DefaultExpiration)

	q.mu.Lock()
	defer q.mu.Unlock()
	for _, tag := range tags {
		if q.tags[tag] == nil {
			q.tags[tag] = make(map[string]struct{})
		}
		q.tags[tag][key] = struct{}{}
	}
}

func (q *QueryCache) Get(key string) (interface{}, bool) {
	return q.store.Get(key)
}

func (q *QueryCache) InvalidateTags(tags ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, tag := range tags {
		for key := range q.tags[tag] {
			q.store.Delete(key)
		}
		delete(q.tags, tag)
	}
}

func (q *QueryCache) Flush() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.store.Flush()
	q.tags = make(map[string]map[string]struct{})
}
