// Package memory provides an in-memory timeoff.TxStore for tests and dev.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/timeoff"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory guards a state with one mutex. Every method locks; WithTx holds
// the lock for the whole callback and hands out the unlocked state.
type Memory struct {
	mu sync.Mutex
	st *state
}

// Compile-time check
var _ timeoff.TxStore = (*Memory)(nil)

func New() *Memory {
	return &Memory{st: newState()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(ctx context.Context, fn func(timeoff.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.st.clone()
	if err := fn(m.st); err != nil {
		m.st = snapshot
		return err
	}
	return nil
}

// Reset drops all data.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st = newState()
}

func (m *Memory) lock() func() {
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *Memory) Buckets(ctx context.Context, e generic.EntityID, r generic.ResourceID) ([]generic.Bucket, error) {
	defer m.lock()()
	return m.st.Buckets(ctx, e, r)
}

func (m *Memory) Bucket(ctx context.Context, k generic.BucketKey) (*generic.Bucket, error) {
	defer m.lock()()
	return m.st.Bucket(ctx, k)
}

func (m *Memory) SaveBucket(ctx context.Context, b generic.Bucket) error {
	defer m.lock()()
	return m.st.SaveBucket(ctx, b)
}

func (m *Memory) EntityBuckets(ctx context.Context, e generic.EntityID) ([]generic.Bucket, error) {
	defer m.lock()()
	return m.st.EntityBuckets(ctx, e)
}

func (m *Memory) AppendAudit(ctx context.Context, e generic.AuditEntry) error {
	defer m.lock()()
	return m.st.AppendAudit(ctx, e)
}

func (m *Memory) QueryAudit(ctx context.Context, f generic.AuditFilter) ([]generic.AuditEntry, error) {
	defer m.lock()()
	return m.st.QueryAudit(ctx, f)
}

func (m *Memory) SaveEmployee(ctx context.Context, e timeoff.Employee) error {
	defer m.lock()()
	return m.st.SaveEmployee(ctx, e)
}

func (m *Memory) GetEmployee(ctx context.Context, id generic.EntityID) (*timeoff.Employee, error) {
	defer m.lock()()
	return m.st.GetEmployee(ctx, id)
}

func (m *Memory) ListEmployees(ctx context.Context) ([]timeoff.Employee, error) {
	defer m.lock()()
	return m.st.ListEmployees(ctx)
}

func (m *Memory) SaveLeaveType(ctx context.Context, lt timeoff.LeaveType) error {
	defer m.lock()()
	return m.st.SaveLeaveType(ctx, lt)
}

func (m *Memory) GetLeaveType(ctx context.Context, id generic.ResourceID) (*timeoff.LeaveType, error) {
	defer m.lock()()
	return m.st.GetLeaveType(ctx, id)
}

func (m *Memory) ListLeaveTypes(ctx context.Context) ([]timeoff.LeaveType, error) {
	defer m.lock()()
	return m.st.ListLeaveTypes(ctx)
}

func (m *Memory) DeleteLeaveType(ctx context.Context, id generic.ResourceID) error {
	defer m.lock()()
	return m.st.DeleteLeaveType(ctx, id)
}

func (m *Memory) CreateRequest(ctx context.Context, r timeoff.Request) error {
	defer m.lock()()
	return m.st.CreateRequest(ctx, r)
}

func (m *Memory) GetRequest(ctx context.Context, id string) (*timeoff.Request, error) {
	defer m.lock()()
	return m.st.GetRequest(ctx, id)
}

func (m *Memory) UpdateRequest(ctx context.Context, r timeoff.Request, expected timeoff.Status) error {
	defer m.lock()()
	return m.st.UpdateRequest(ctx, r, expected)
}

func (m *Memory) ListRequests(ctx context.Context, f timeoff.RequestFilter) ([]timeoff.Request, error) {
	defer m.lock()()
	return m.st.ListRequests(ctx, f)
}

func (m *Memory) ListHolidays(ctx context.Context) ([]generic.Holiday, error) {
	defer m.lock()()
	return m.st.ListHolidays(ctx)
}

func (m *Memory) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	defer m.lock()()
	return m.st.SaveHoliday(ctx, h)
}

func (m *Memory) DeleteHoliday(ctx context.Context, id string) error {
	defer m.lock()()
	return m.st.DeleteHoliday(ctx, id)
}

func (m *Memory) ListSaturdays(ctx context.Context) ([]timeoff.SaturdayConfig, error) {
	defer m.lock()()
	return m.st.ListSaturdays(ctx)
}

func (m *Memory) SaveSaturday(ctx context.Context, s timeoff.SaturdayConfig) error {
	defer m.lock()()
	return m.st.SaveSaturday(ctx, s)
}

func (m *Memory) ClearSaturdays(ctx context.Context) error {
	defer m.lock()()
	return m.st.ClearSaturdays(ctx)
}

// =============================================================================
// STATE - the unlocked view handed to WithTx callbacks
// =============================================================================

type state struct {
	buckets    map[generic.BucketKey]generic.Bucket
	audit      []generic.AuditEntry
	employees  map[generic.EntityID]timeoff.Employee
	leaveTypes map[generic.ResourceID]timeoff.LeaveType
	requests   map[string]timeoff.Request
	holidays   map[string]generic.Holiday
	saturdays  map[string]timeoff.SaturdayConfig
}

var _ timeoff.Store = (*state)(nil)

func newState() *state {
	return &state{
		buckets:    make(map[generic.BucketKey]generic.Bucket),
		employees:  make(map[generic.EntityID]timeoff.Employee),
		leaveTypes: make(map[generic.ResourceID]timeoff.LeaveType),
		requests:   make(map[string]timeoff.Request),
		holidays:   make(map[string]generic.Holiday),
		saturdays:  make(map[string]timeoff.SaturdayConfig),
	}
}

// clone copies every table. Rows are values, so a shallow map copy is a
// full snapshot.
func (s *state) clone() *state {
	c := newState()
	for k, v := range s.buckets {
		c.buckets[k] = v
	}
	c.audit = append([]generic.AuditEntry(nil), s.audit...)
	for k, v := range s.employees {
		c.employees[k] = v
	}
	for k, v := range s.leaveTypes {
		c.leaveTypes[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = v
	}
	for k, v := range s.holidays {
		c.holidays[k] = v
	}
	for k, v := range s.saturdays {
		c.saturdays[k] = v
	}
	return c
}

// --- buckets ---

func (s *state) Buckets(_ context.Context, e generic.EntityID, r generic.ResourceID) ([]generic.Bucket, error) {
	var out []generic.Bucket
	for k, b := range s.buckets {
		if k.EntityID == e && k.ResourceID == r {
			out = append(out, b)
		}
	}
	return generic.SortByYear(out, true), nil
}

func (s *state) Bucket(_ context.Context, k generic.BucketKey) (*generic.Bucket, error) {
	b, ok := s.buckets[k]
	if !ok {
		return nil, &generic.NotFoundError{Kind: "bucket", ID: fmt.Sprintf("%s/%s/%d", k.EntityID, k.ResourceID, k.Year)}
	}
	return &b, nil
}

func (s *state) SaveBucket(_ context.Context, b generic.Bucket) error {
	s.buckets[b.Key()] = b
	return nil
}

func (s *state) EntityBuckets(_ context.Context, e generic.EntityID) ([]generic.Bucket, error) {
	var out []generic.Bucket
	for k, b := range s.buckets {
		if k.EntityID == e {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ResourceID != out[j].ResourceID {
			return out[i].ResourceID < out[j].ResourceID
		}
		return out[i].Year < out[j].Year
	})
	return out, nil
}

// --- audit ---

func (s *state) AppendAudit(_ context.Context, e generic.AuditEntry) error {
	s.audit = append(s.audit, e)
	return nil
}

func (s *state) QueryAudit(_ context.Context, f generic.AuditFilter) ([]generic.AuditEntry, error) {
	var out []generic.AuditEntry
	for _, e := range s.audit {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- employees ---

func (s *state) SaveEmployee(_ context.Context, e timeoff.Employee) error {
	s.employees[e.ID] = e
	return nil
}

func (s *state) GetEmployee(_ context.Context, id generic.EntityID) (*timeoff.Employee, error) {
	e, ok := s.employees[id]
	if !ok {
		return nil, &generic.NotFoundError{Kind: "employee", ID: string(id)}
	}
	return &e, nil
}

func (s *state) ListEmployees(_ context.Context) ([]timeoff.Employee, error) {
	out := make([]timeoff.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

// --- leave types ---

func (s *state) SaveLeaveType(_ context.Context, lt timeoff.LeaveType) error {
	for id, other := range s.leaveTypes {
		if id != lt.ID && strings.EqualFold(other.Name, lt.Name) {
			return &generic.ConflictError{Reason: fmt.Sprintf("leave type %q already exists", lt.Name)}
		}
	}
	s.leaveTypes[lt.ID] = lt
	return nil
}

func (s *state) GetLeaveType(_ context.Context, id generic.ResourceID) (*timeoff.LeaveType, error) {
	lt, ok := s.leaveTypes[id]
	if !ok {
		return nil, &generic.NotFoundError{Kind: "leave type", ID: string(id)}
	}
	return &lt, nil
}

func (s *state) ListLeaveTypes(_ context.Context) ([]timeoff.LeaveType, error) {
	out := make([]timeoff.LeaveType, 0, len(s.leaveTypes))
	for _, lt := range s.leaveTypes {
		out = append(out, lt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *state) DeleteLeaveType(_ context.Context, id generic.ResourceID) error {
	if _, ok := s.leaveTypes[id]; !ok {
		return &generic.NotFoundError{Kind: "leave type", ID: string(id)}
	}
	delete(s.leaveTypes, id)
	return nil
}

// --- requests ---

func (s *state) CreateRequest(_ context.Context, r timeoff.Request) error {
	if _, ok := s.requests[r.ID]; ok {
		return &generic.ConflictError{Reason: fmt.Sprintf("request %s already exists", r.ID)}
	}
	s.requests[r.ID] = r
	return nil
}

func (s *state) GetRequest(_ context.Context, id string) (*timeoff.Request, error) {
	r, ok := s.requests[id]
	if !ok {
		return nil, &generic.NotFoundError{Kind: "request", ID: id}
	}
	return &r, nil
}

func (s *state) UpdateRequest(_ context.Context, r timeoff.Request, expected timeoff.Status) error {
	cur, ok := s.requests[r.ID]
	if !ok {
		return &generic.NotFoundError{Kind: "request", ID: r.ID}
	}
	if cur.Status != expected {
		return generic.ErrConcurrentModification
	}
	s.requests[r.ID] = r
	return nil
}

func (s *state) ListRequests(_ context.Context, f timeoff.RequestFilter) ([]timeoff.Request, error) {
	var out []timeoff.Request
	for _, r := range s.requests {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// --- calendar ---

func (s *state) ListHolidays(_ context.Context) ([]generic.Holiday, error) {
	out := make([]generic.Holiday, 0, len(s.holidays))
	for _, h := range s.holidays {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *state) SaveHoliday(_ context.Context, h generic.Holiday) error {
	for id, other := range s.holidays {
		if id != h.ID && other.Date.Equal(h.Date) {
			return &generic.ConflictError{Reason: fmt.Sprintf("a holiday already exists on %s", h.Date)}
		}
	}
	s.holidays[h.ID] = h
	return nil
}

func (s *state) DeleteHoliday(_ context.Context, id string) error {
	if _, ok := s.holidays[id]; !ok {
		return &generic.NotFoundError{Kind: "holiday", ID: id}
	}
	delete(s.holidays, id)
	return nil
}

func (s *state) ListSaturdays(_ context.Context) ([]timeoff.SaturdayConfig, error) {
	out := make([]timeoff.SaturdayConfig, 0, len(s.saturdays))
	for _, c := range s.saturdays {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *state) SaveSaturday(_ context.Context, c timeoff.SaturdayConfig) error {
	s.saturdays[c.Date.String()] = c
	return nil
}

func (s *state) ClearSaturdays(_ context.Context) error {
	s.saturdays = make(map[string]timeoff.SaturdayConfig)
	return nil
}
