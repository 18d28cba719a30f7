package services

import (
	"context"
	"sync"
	"time"

	"github.com/kcontext/kcontext/models"
)

// In-memory store fakes. They honor the same atomicity contracts as the gorm
// implementations so the engine tests exercise the real branch logic.

type fakeLedgerStore struct {
	mu       sync.Mutex
	balances map[uint]int64
	entries  []models.LedgerEntry
	failWith error
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{balances: map[uint]int64{}}
}

func (s *fakeLedgerStore) Apply(_ context.Context, entry *models.LedgerEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return 0, s.failWith
	}
	next := s.balances[entry.UserID] + entry.Amount
	if next < 0 {
		return 0, ErrInsufficientFunds
	}
	s.balances[entry.UserID] = next
	entry.ID = uint(len(s.entries) + 1)
	s.entries = append(s.entries, *entry)
	return next, nil
}

func (s *fakeLedgerStore) Balance(_ context.Context, userID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[userID], nil
}

func (s *fakeLedgerStore) Entries(_ context.Context, userID uint, limit int) ([]models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.LedgerEntry
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if s.entries[i].UserID == userID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

type fakeApprovalStore struct {
	mu      sync.Mutex
	nextID  uint
	records map[uint]*models.ApprovalRecord
}

func newFakeApprovalStore() *fakeApprovalStore {
	return &fakeApprovalStore{records: map[uint]*models.ApprovalRecord{}}
}

func (s *fakeApprovalStore) Create(_ context.Context, rec *models.ApprovalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.UserID]; ok {
		return ErrDuplicate
	}
	s.nextID++
	rec.ID = s.nextID
	clone := *rec
	s.records[rec.UserID] = &clone
	return nil
}

func (s *fakeApprovalStore) ByUser(_ context.Context, userID uint) (*models.ApprovalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (s *fakeApprovalStore) ConsumeToken(_ context.Context, token string, status models.ApprovalStatus, decidedAt time.Time) (*models.ApprovalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.Token == token && rec.Status == models.ApprovalPending {
			rec.Status = status
			rec.DecidedAt = &decidedAt
			clone := *rec
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

type fakeCheckInStore struct {
	mu   sync.Mutex
	rows []models.CheckIn
}

func (s *fakeCheckInStore) Last(_ context.Context, userID uint) (*models.CheckIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.rows) - 1; i >= 0; i-- {
		if s.rows[i].UserID == userID {
			clone := s.rows[i]
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeCheckInStore) Record(_ context.Context, rec *models.CheckIn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.UserID == rec.UserID && row.CheckinDate.Equal(rec.CheckinDate) {
			return ErrDuplicate
		}
	}
	rec.ID = uint(len(s.rows) + 1)
	s.rows = append(s.rows, *rec)
	return nil
}

type fakeMissionStore struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*models.Mission
}

func newFakeMissionStore() *fakeMissionStore {
	return &fakeMissionStore{rows: map[uint]*models.Mission{}}
}

func (s *fakeMissionStore) ForDay(_ context.Context, userID uint, day string) ([]models.Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Mission
	for id := uint(1); id <= s.nextID; id++ {
		if m, ok := s.rows[id]; ok && m.UserID == userID && m.Day == day {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *fakeMissionStore) CreateBatch(_ context.Context, missions []models.Mission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range missions {
		for _, row := range s.rows {
			if row.UserID == m.UserID && row.Day == m.Day && row.Type == m.Type {
				return ErrDuplicate
			}
		}
	}
	for i := range missions {
		s.nextID++
		missions[i].ID = s.nextID
		clone := missions[i]
		s.rows[clone.ID] = &clone
	}
	return nil
}

func (s *fakeMissionStore) ByID(_ context.Context, id uint) (*models.Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *m
	return &clone, nil
}

func (s *fakeMissionStore) Advance(_ context.Context, id uint, progress int) (*models.Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	m.CurrentCount += progress
	clone := *m
	return &clone, nil
}

func (s *fakeMissionStore) MarkCompleted(_ context.Context, id uint, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok {
		return false, ErrNotFound
	}
	if m.Completed {
		return false, nil
	}
	m.Completed = true
	m.CompletedAt = &at
	return true, nil
}

type fakePrecomputed struct {
	docs map[string]map[string]*models.AnalysisDocument
}

func (p *fakePrecomputed) Lookup(key, level string) (*models.AnalysisDocument, bool) {
	levels, ok := p.docs[key]
	if !ok {
		return nil, false
	}
	doc, ok := levels[level]
	return doc, ok
}

type cacheKey struct{ title, level string }

type fakeAnalysisCache struct {
	mu   sync.Mutex
	docs map[cacheKey]*models.AnalysisDocument
	puts int
}

func newFakeAnalysisCache() *fakeAnalysisCache {
	return &fakeAnalysisCache{docs: map[cacheKey]*models.AnalysisDocument{}}
}

func (c *fakeAnalysisCache) Get(_ context.Context, title, level string) (*models.AnalysisDocument, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[cacheKey{title, level}]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (c *fakeAnalysisCache) Put(_ context.Context, title, level string, doc *models.AnalysisDocument) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[cacheKey{title, level}] = doc
	c.puts++
	return nil
}

type fakeAnalyzer struct {
	mu    sync.Mutex
	calls int
	doc   *models.AnalysisDocument
	err   error
}

func (a *fakeAnalyzer) Analyze(_ context.Context, content, level string) (*models.AnalysisDocument, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.doc, nil
}

type sentMail struct {
	to, subject, body string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *fakeNotifier) Notify(to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{to, subject, body})
	return nil
}
