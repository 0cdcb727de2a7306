package portal

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"clubhire.org/internal/api"
	"clubhire.org/internal/client"
	"clubhire.org/internal/guard"
	"clubhire.org/internal/session"
)

// StoreFactory hands out the durable token store for one browser session.
type StoreFactory interface {
	Store(sid string) session.TokenStore
}

// StoreFunc adapts a function to StoreFactory.
type StoreFunc func(sid string) session.TokenStore

func (f StoreFunc) Store(sid string) session.TokenStore { return f(sid) }

// releaser is implemented by factories that hold per-sid state in process.
type releaser interface {
	Release(sid string)
}

// RedisStores keeps each browser's token under clubhire:token:<sid>.
func RedisStores(rdb redis.Cmdable, ttl time.Duration) StoreFactory {
	return StoreFunc(func(sid string) session.TokenStore {
		return session.NewRedisStore(rdb, "clubhire:token:"+sid, ttl)
	})
}

// PGStores keeps each browser's token in client_tokens keyed by sid.
func PGStores(db *sql.DB) StoreFactory {
	return StoreFunc(func(sid string) session.TokenStore {
		return session.NewPGStore(db, sid)
	})
}

// MemoryStores keeps tokens in process memory.
type MemoryStores struct {
	mu     sync.Mutex
	stores map[string]*session.MemoryStore
}

func NewMemoryStores() *MemoryStores {
	return &MemoryStores{stores: map[string]*session.MemoryStore{}}
}

func (m *MemoryStores) Store(sid string) session.TokenStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stores[sid]
	if !ok {
		st = session.NewMemoryStore()
		m.stores[sid] = st
	}
	return st
}

// Release drops the entry for sid when it holds no token. Logged-in entries
// stay so the browser can be rebuilt after eviction.
func (m *MemoryStores) Release(sid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stores[sid]
	if !ok {
		return
	}
	if tok, _ := st.Load(context.Background()); tok == "" {
		delete(m.stores, sid)
	}
}

// size reports how many sids currently hold a store.
func (m *MemoryStores) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}

// browser bundles everything one browser session needs.
type browser struct {
	sess   *session.Session
	client *client.Client
	guard  *guard.Guard

	mu   sync.Mutex
	seen time.Time
}

func (b *browser) touch(now time.Time) {
	b.mu.Lock()
	b.seen = now
	b.mu.Unlock()
}

func (b *browser) idle(now time.Time, ttl time.Duration) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return now.Sub(b.seen) > ttl
}

// registry caches browser sessions in memory. Evicted entries are rebuilt
// from the durable token store on the next request.
type registry struct {
	mu       sync.Mutex
	browsers map[string]*browser

	stores   StoreFactory
	backend  client.Config
	guardOpt []guard.Option
	ttl      time.Duration
}

func newRegistry(stores StoreFactory, backend client.Config, guardOpt []guard.Option) *registry {
	if stores == nil {
		stores = NewMemoryStores()
	}
	return &registry{
		browsers: map[string]*browser{},
		stores:   stores,
		backend:  backend,
		guardOpt: guardOpt,
		ttl:      30 * time.Minute,
	}
}

func (r *registry) get(ctx context.Context, sid string) (*browser, error) {
	r.mu.Lock()
	b, ok := r.browsers[sid]
	r.mu.Unlock()
	if ok {
		b.touch(time.Now())
		return b, nil
	}

	sess := session.New(r.stores.Store(sid))
	if err := sess.Restore(ctx); err != nil {
		return nil, err
	}
	c, err := client.New(r.backend, sess)
	if err != nil {
		return nil, fmt.Errorf("portal: build client: %w", err)
	}
	b = &browser{
		sess:   sess,
		client: c,
		guard:  guard.New(sess, api.Authenticator{Client: c}, r.guardOpt...),
		seen:   time.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.browsers[sid]; ok {
		return existing, nil
	}
	r.browsers[sid] = b
	return b, nil
}

func (r *registry) evict(sid string) {
	r.mu.Lock()
	delete(r.browsers, sid)
	r.mu.Unlock()
}

func (r *registry) sweep(now time.Time) int {
	r.mu.Lock()
	var swept []string
	for sid, b := range r.browsers {
		if b.idle(now, r.ttl) {
			delete(r.browsers, sid)
			swept = append(swept, sid)
		}
	}
	r.mu.Unlock()

	if rel, ok := r.stores.(releaser); ok {
		for _, sid := range swept {
			rel.Release(sid)
		}
	}
	return len(swept)
}
