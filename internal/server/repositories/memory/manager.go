// Package memory is an in-process document store with entity-group
// optimistic concurrency. Every entity belongs to a models.Group; a
// transaction records the version of each group it reads or writes and its
// commit fails with common.ErrConflict when any of them moved in the
// meantime. Writes outside a transaction apply immediately.
//
// It backs the engine's tests and the "memory" database driver.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories"
)

const (
	tableUsers        = "users"
	tableProjects     = "projects"
	tableUserProjects = "user_projects"
	tableFiles        = "files"
	tableUserFiles    = "user_files"
	tableNonces       = "nonces"
	tableResetTokens  = "password_reset_tokens"
	tableRecords      = "records"
	tableCorruption   = "corruption_records"
)

type row struct {
	group models.Group
	// value is nil for a buffered delete.
	value any
}

// Manager owns the data. It is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	tables   map[string]map[string]row
	versions map[models.Group]uint64

	nextProjectID  int64
	nextCorruption int64
	failCommits    int
	commits        int
}

func NewManager() *Manager {
	return &Manager{
		tables:   make(map[string]map[string]row),
		versions: make(map[models.Group]uint64),
	}
}

// RunMigrations is a no-op; the memory store has no schema.
func (m *Manager) RunMigrations(ctx context.Context) error {
	return nil
}

// Run executes fn with writes applied immediately.
func (m *Manager) Run(ctx context.Context, fn func(ctx context.Context, repos repositories.Set) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, &unit{m: m})
}

// RunInTx executes fn against a buffered transaction and commits it if fn
// succeeds.
func (m *Manager) RunInTx(ctx context.Context, fn func(ctx context.Context, repos repositories.Set) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u := &unit{
		m:      m,
		inTx:   true,
		seen:   make(map[models.Group]uint64),
		writes: make(map[string]map[string]row),
		bumps:  make(map[models.Group]struct{}),
	}
	if err := fn(ctx, u); err != nil {
		return err
	}
	return u.commit()
}

func (m *Manager) Close() error {
	return nil
}

// FailCommits makes the next n transaction commits fail with a conflict.
func (m *Manager) FailCommits(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCommits = n
}

// BumpGroup simulates a concurrent writer on g: any open transaction that
// has touched g will fail to commit.
func (m *Manager) BumpGroup(g models.Group) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[g]++
}

// Commits returns the number of successful transaction commits.
func (m *Manager) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

func (m *Manager) table(name string) map[string]row {
	t, ok := m.tables[name]
	if !ok {
		t = make(map[string]row)
		m.tables[name] = t
	}
	return t
}

// unit is one Run or RunInTx invocation.
type unit struct {
	m      *Manager
	inTx   bool
	seen   map[models.Group]uint64
	writes map[string]map[string]row
	// bumps are groups written without a row of their own, such as
	// lookup indexes.
	bumps map[models.Group]struct{}
}

// observe pins the version of g for the commit check. m.mu must be held.
func (u *unit) observe(g models.Group) {
	if !u.inTx {
		return
	}
	if _, ok := u.seen[g]; !ok {
		u.seen[g] = u.m.versions[g]
	}
}

func (u *unit) watch(g models.Group) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	u.observe(g)
}

// bump marks g as written. Outside a transaction its version moves at once.
func (u *unit) bump(g models.Group) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if !u.inTx {
		u.m.versions[g]++
		return
	}
	u.observe(g)
	u.bumps[g] = struct{}{}
}

func (u *unit) get(table, key string, g models.Group) (any, bool) {
	if u.inTx {
		if w, ok := u.writes[table][key]; ok {
			return w.value, w.value != nil
		}
	}

	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	u.observe(g)
	r, ok := u.m.tables[table][key]
	if !ok {
		return nil, false
	}
	return r.value, true
}

func (u *unit) put(table, key string, g models.Group, value any) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()

	if !u.inTx {
		if value == nil {
			delete(u.m.table(table), key)
		} else {
			u.m.table(table)[key] = row{group: g, value: value}
		}
		u.m.versions[g]++
		return
	}

	u.observe(g)
	w, ok := u.writes[table]
	if !ok {
		w = make(map[string]row)
		u.writes[table] = w
	}
	w[key] = row{group: g, value: value}
}

func (u *unit) del(table, key string, g models.Group) {
	u.put(table, key, g, nil)
}

// scan returns the live values of table, own writes included, ordered by
// key. The groups of the returned values are observed; callers that need an
// empty result to stay empty watch an index group as well.
func (u *unit) scan(table string, match func(v any) bool) []any {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()

	merged := make(map[string]row)
	for k, r := range u.m.tables[table] {
		merged[k] = r
	}
	if u.inTx {
		for k, r := range u.writes[table] {
			merged[k] = r
		}
	}

	keys := make([]string, 0, len(merged))
	for k, r := range merged {
		if r.value != nil && match(r.value) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := make([]any, 0, len(keys))
	for _, k := range keys {
		r := merged[k]
		u.observe(r.group)
		out = append(out, r.value)
	}
	return out
}

func (u *unit) commit() error {
	m := u.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failCommits > 0 {
		m.failCommits--
		return fmt.Errorf("%w: injected commit failure", common.ErrConflict)
	}
	for g, v := range u.seen {
		if m.versions[g] != v {
			return fmt.Errorf("%w: entity group %s changed", common.ErrConflict, g)
		}
	}

	touched := make(map[models.Group]struct{})
	for table, rows := range u.writes {
		t := m.table(table)
		for k, r := range rows {
			if r.value == nil {
				delete(t, k)
			} else {
				t[k] = r
			}
			touched[r.group] = struct{}{}
		}
	}
	for g := range u.bumps {
		touched[g] = struct{}{}
	}
	for g := range touched {
		m.versions[g]++
	}
	m.commits++
	return nil
}

func (u *unit) allocateProjectID() int64 {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	u.m.nextProjectID++
	return u.m.nextProjectID
}

func (u *unit) allocateCorruptionID() int64 {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	u.m.nextCorruption++
	return u.m.nextCorruption
}
