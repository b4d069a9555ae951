package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/jury/internal/domain/model"
	"github.com/okian/jury/pkg/metrics"
)

// MemStore is the in-memory Store. One RWMutex guards every collection, so a
// cascade delete is never observed half applied.
type MemStore struct {
	mu          sync.RWMutex
	candidates  *table[model.Candidate]
	judges      *table[model.Judge]
	stages      *table[model.Stage]
	categories  *table[model.Category]
	criteria    *table[model.Criterion]
	assignments *table[model.Assignment]
	byKey       map[model.AssignmentKey]string
	audit       []model.AuditLog

	newID                 func() string
	now                   func() time.Time
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

var _ Store = (*MemStore)(nil)

// NewMemStore constructs an empty store with configuration options and starts
// the background metrics updater, which stops on ctx cancellation or Close.
func NewMemStore(ctx context.Context, opts ...Option) *MemStore {
	s := &MemStore{
		candidates:            newTable[model.Candidate](),
		judges:                newTable[model.Judge](),
		stages:                newTable[model.Stage](),
		categories:            newTable[model.Category](),
		criteria:              newTable[model.Criterion](),
		assignments:           newTable[model.Assignment](),
		byKey:                 make(map[model.AssignmentKey]string),
		newID:                 uuid.NewString,
		now:                   time.Now,
		metricsUpdateInterval: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background goroutines.
func (s *MemStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *MemStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *MemStore) updateMetrics() {
	s.mu.RLock()
	counts := map[string]int{
		"candidates":  s.candidates.len(),
		"judges":      s.judges.len(),
		"stages":      s.stages.len(),
		"categories":  s.categories.len(),
		"criteria":    s.criteria.len(),
		"assignments": s.assignments.len(),
		"audit_logs":  len(s.audit),
	}
	s.mu.RUnlock()

	for kind, n := range counts {
		metrics.UpdateEntityCount(kind, n)
	}
}

func (s *MemStore) idOr(id string) string {
	if id != "" {
		return id
	}
	return s.newID()
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

func duplicate(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrDuplicate)
}

// Snapshot implements Store.Snapshot.
func (s *MemStore) Snapshot(_ context.Context) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Candidates:  s.candidates.list(model.Candidate.Clone),
		Judges:      s.judges.list(nil),
		Stages:      s.stages.list(nil),
		Categories:  s.categories.list(nil),
		Criteria:    s.criteria.list(nil),
		Assignments: s.assignments.list(model.Assignment.Clone),
	}
}

// CreateCandidate implements Candidates.CreateCandidate. Every category id
// must exist.
func (s *MemStore) CreateCandidate(_ context.Context, c model.Candidate) (model.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, catID := range c.CategoryIDs {
		if !s.categories.has(catID) {
			return model.Candidate{}, notFound("category", catID)
		}
	}
	c = c.Clone()
	c.ID = s.idOr(c.ID)
	if !s.candidates.insert(c.ID, c) {
		return model.Candidate{}, duplicate("candidate", c.ID)
	}
	return c.Clone(), nil
}

// GetCandidate implements Candidates.GetCandidate.
func (s *MemStore) GetCandidate(_ context.Context, id string) (model.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.candidates.get(id)
	if !ok {
		return model.Candidate{}, notFound("candidate", id)
	}
	return c.Clone(), nil
}

// ListCandidates implements Candidates.ListCandidates.
func (s *MemStore) ListCandidates(_ context.Context) []model.Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.candidates.list(model.Candidate.Clone)
}

// UpdateCandidate implements Candidates.UpdateCandidate.
func (s *MemStore) UpdateCandidate(ctx context.Context, c model.Candidate) error {
	return s.UpdateCandidates(ctx, []model.Candidate{c})
}

// UpdateCandidates implements Candidates.UpdateCandidates.
func (s *MemStore) UpdateCandidates(_ context.Context, cs []model.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range cs {
		if !s.candidates.has(cs[i].ID) {
			return notFound("candidate", cs[i].ID)
		}
		for _, catID := range cs[i].CategoryIDs {
			if !s.categories.has(catID) {
				return notFound("category", catID)
			}
		}
	}
	for i := range cs {
		s.candidates.set(cs[i].ID, cs[i].Clone())
	}
	return nil
}

// DeleteCandidate implements Candidates.DeleteCandidate.
func (s *MemStore) DeleteCandidate(_ context.Context, id string) (CascadeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.candidates.remove(id) {
		return CascadeResult{}, notFound("candidate", id)
	}
	n := s.removeAssignmentsLocked(func(a model.Assignment) bool { return a.CandidateID == id })
	return CascadeResult{Assignments: n}, nil
}

// CreateJudge implements Judges.CreateJudge.
func (s *MemStore) CreateJudge(_ context.Context, j model.Judge) (model.Judge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j.ID = s.idOr(j.ID)
	if j.Role == "" {
		j.Role = model.RoleJudge
	}
	if !s.judges.insert(j.ID, j) {
		return model.Judge{}, duplicate("judge", j.ID)
	}
	return j, nil
}

// GetJudge implements Judges.GetJudge.
func (s *MemStore) GetJudge(_ context.Context, id string) (model.Judge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.judges.get(id)
	if !ok {
		return model.Judge{}, notFound("judge", id)
	}
	return j, nil
}

// ListJudges implements Judges.ListJudges.
func (s *MemStore) ListJudges(_ context.Context) []model.Judge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.judges.list(nil)
}

// DeleteJudge implements Judges.DeleteJudge.
func (s *MemStore) DeleteJudge(_ context.Context, id string) (CascadeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.judges.remove(id) {
		return CascadeResult{}, notFound("judge", id)
	}
	n := s.removeAssignmentsLocked(func(a model.Assignment) bool { return a.JudgeID == id })
	return CascadeResult{Assignments: n}, nil
}

// CreateStage implements Stages.CreateStage. New stages go last in sequence.
func (s *MemStore) CreateStage(_ context.Context, st model.Stage) (model.Stage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.ID = s.idOr(st.ID)
	if !s.stages.insert(st.ID, st) {
		return model.Stage{}, duplicate("stage", st.ID)
	}
	return st, nil
}

// GetStage implements Stages.GetStage.
func (s *MemStore) GetStage(_ context.Context, id string) (model.Stage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stages.get(id)
	if !ok {
		return model.Stage{}, notFound("stage", id)
	}
	return st, nil
}

// ListStages implements Stages.ListStages.
func (s *MemStore) ListStages(_ context.Context) []model.Stage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stages.list(nil)
}

// UpdateStage implements Stages.UpdateStage.
func (s *MemStore) UpdateStage(_ context.Context, st model.Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stages.set(st.ID, st) {
		return notFound("stage", st.ID)
	}
	return nil
}

// DeleteStage implements Stages.DeleteStage.
func (s *MemStore) DeleteStage(_ context.Context, id string) (CascadeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stages.remove(id) {
		return CascadeResult{}, notFound("stage", id)
	}
	crit := s.criteria.removeWhere(func(c model.Criterion) bool { return c.StageID == id })
	n := s.removeAssignmentsLocked(func(a model.Assignment) bool { return a.StageID == id })

	var touched []model.Candidate
	s.candidates.each(func(_ string, c model.Candidate) bool {
		if _, ok := c.Promotions[id]; ok {
			touched = append(touched, c)
		}
		return true
	})
	for _, c := range touched {
		c = c.Clone()
		delete(c.Promotions, id)
		s.candidates.set(c.ID, c)
	}
	return CascadeResult{Criteria: len(crit), Assignments: n, Candidates: len(touched)}, nil
}

// CreateCategory implements Categories.CreateCategory.
func (s *MemStore) CreateCategory(_ context.Context, c model.Category) (model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.idOr(c.ID)
	if !s.categories.insert(c.ID, c) {
		return model.Category{}, duplicate("category", c.ID)
	}
	return c, nil
}

// GetCategory implements Categories.GetCategory.
func (s *MemStore) GetCategory(_ context.Context, id string) (model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories.get(id)
	if !ok {
		return model.Category{}, notFound("category", id)
	}
	return c, nil
}

// ListCategories implements Categories.ListCategories.
func (s *MemStore) ListCategories(_ context.Context) []model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categories.list(nil)
}

// DeleteCategory implements Categories.DeleteCategory.
func (s *MemStore) DeleteCategory(_ context.Context, id string) (CascadeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.categories.remove(id) {
		return CascadeResult{}, notFound("category", id)
	}
	crit := s.criteria.removeWhere(func(c model.Criterion) bool { return c.CategoryID == id })
	n := s.removeAssignmentsLocked(func(a model.Assignment) bool { return a.CategoryID == id })

	var touched []model.Candidate
	s.candidates.each(func(_ string, c model.Candidate) bool {
		if c.InCategory(id) {
			touched = append(touched, c)
		}
		return true
	})
	for _, c := range touched {
		c = c.Clone()
		kept := c.CategoryIDs[:0]
		for _, catID := range c.CategoryIDs {
			if catID != id {
				kept = append(kept, catID)
			}
		}
		c.CategoryIDs = kept
		// A winner without its category is revoked.
		if c.WinningCategoryID == id {
			c.WinningCategoryID = ""
			c.IsWinner = false
		}
		s.candidates.set(c.ID, c)
	}
	return CascadeResult{Criteria: len(crit), Assignments: n, Candidates: len(touched)}, nil
}

// CreateCriterion implements Criteria.CreateCriterion. The stage and the
// category must exist.
func (s *MemStore) CreateCriterion(_ context.Context, c model.Criterion) (model.Criterion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCriterionRefsLocked(c); err != nil {
		return model.Criterion{}, err
	}
	c.ID = s.idOr(c.ID)
	if !s.criteria.insert(c.ID, c) {
		return model.Criterion{}, duplicate("criterion", c.ID)
	}
	return c, nil
}

func (s *MemStore) checkCriterionRefsLocked(c model.Criterion) error {
	if !s.stages.has(c.StageID) {
		return notFound("stage", c.StageID)
	}
	if !s.categories.has(c.CategoryID) {
		return notFound("category", c.CategoryID)
	}
	return nil
}

// GetCriterion implements Criteria.GetCriterion.
func (s *MemStore) GetCriterion(_ context.Context, id string) (model.Criterion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.criteria.get(id)
	if !ok {
		return model.Criterion{}, notFound("criterion", id)
	}
	return c, nil
}

// ListCriteria implements Criteria.ListCriteria.
func (s *MemStore) ListCriteria(_ context.Context) []model.Criterion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.criteria.list(nil)
}

// CriteriaFor implements Criteria.CriteriaFor.
func (s *MemStore) CriteriaFor(_ context.Context, stageID, categoryID string) []model.Criterion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Criterion
	s.criteria.each(func(_ string, c model.Criterion) bool {
		if c.StageID == stageID && c.CategoryID == categoryID {
			out = append(out, c)
		}
		return true
	})
	return out
}

// UpdateCriterion implements Criteria.UpdateCriterion.
func (s *MemStore) UpdateCriterion(_ context.Context, c model.Criterion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.criteria.has(c.ID) {
		return notFound("criterion", c.ID)
	}
	if err := s.checkCriterionRefsLocked(c); err != nil {
		return err
	}
	s.criteria.set(c.ID, c)
	return nil
}

// DeleteCriterion implements Criteria.DeleteCriterion. Raw scores already
// entered against it stay on their assignments and no longer count.
func (s *MemStore) DeleteCriterion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.criteria.remove(id) {
		return notFound("criterion", id)
	}
	return nil
}

// CreateAssignment implements Assignments.CreateAssignment. Every referenced
// entity must exist and the tuple must be new.
func (s *MemStore) CreateAssignment(_ context.Context, a model.Assignment) (model.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case !s.candidates.has(a.CandidateID):
		return model.Assignment{}, notFound("candidate", a.CandidateID)
	case !s.judges.has(a.JudgeID):
		return model.Assignment{}, notFound("judge", a.JudgeID)
	case !s.stages.has(a.StageID):
		return model.Assignment{}, notFound("stage", a.StageID)
	case !s.categories.has(a.CategoryID):
		return model.Assignment{}, notFound("category", a.CategoryID)
	}
	key := a.Key()
	if id, ok := s.byKey[key]; ok {
		return model.Assignment{}, duplicate("assignment", id)
	}
	a = a.Clone()
	a.ID = s.idOr(a.ID)
	if a.Status == "" {
		a.Status = model.StatusNotStarted
	}
	if !s.assignments.insert(a.ID, a) {
		return model.Assignment{}, duplicate("assignment", a.ID)
	}
	s.byKey[key] = a.ID
	return a.Clone(), nil
}

// GetAssignment implements Assignments.GetAssignment.
func (s *MemStore) GetAssignment(_ context.Context, id string) (model.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assignments.get(id)
	if !ok {
		return model.Assignment{}, notFound("assignment", id)
	}
	return a.Clone(), nil
}

// FindAssignment implements Assignments.FindAssignment.
func (s *MemStore) FindAssignment(_ context.Context, key model.AssignmentKey) (model.Assignment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byKey[key]
	if !ok {
		return model.Assignment{}, false
	}
	a, _ := s.assignments.get(id)
	return a.Clone(), true
}

// ListAssignments implements Assignments.ListAssignments.
func (s *MemStore) ListAssignments(_ context.Context) []model.Assignment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assignments.list(model.Assignment.Clone)
}

// UpdateAssignment implements Assignments.UpdateAssignment. The tuple of an
// assignment cannot change; the stored one is kept.
func (s *MemStore) UpdateAssignment(_ context.Context, a model.Assignment, expectedVersion int64) (model.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.assignments.get(a.ID)
	if !ok {
		return model.Assignment{}, notFound("assignment", a.ID)
	}
	if cur.Version != expectedVersion {
		return model.Assignment{}, fmt.Errorf("assignment %q at version %d, expected %d: %w",
			a.ID, cur.Version, expectedVersion, ErrConflict)
	}
	a = a.Clone()
	a.CandidateID, a.JudgeID, a.StageID, a.CategoryID = cur.CandidateID, cur.JudgeID, cur.StageID, cur.CategoryID
	if a.Version <= expectedVersion {
		a.Version = expectedVersion + 1
	}
	s.assignments.set(a.ID, a)
	return a.Clone(), nil
}

// DeleteAssignment implements Assignments.DeleteAssignment.
func (s *MemStore) DeleteAssignment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments.get(id)
	if !ok {
		return notFound("assignment", id)
	}
	s.assignments.remove(id)
	delete(s.byKey, a.Key())
	return nil
}

func (s *MemStore) removeAssignmentsLocked(pred func(model.Assignment) bool) int {
	removed := s.assignments.removeWhere(pred)
	for i := range removed {
		delete(s.byKey, removed[i].Key())
	}
	return len(removed)
}

// AppendAudit implements AuditLogs.AppendAudit. Missing ids and timestamps
// are filled in.
func (s *MemStore) AppendAudit(_ context.Context, entry model.AuditLog) (model.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.idOr(entry.ID)
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	s.audit = append(s.audit, entry)
	return entry, nil
}

// ListAudit implements AuditLogs.ListAudit.
func (s *MemStore) ListAudit(_ context.Context, f AuditFilter) ([]model.AuditLog, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []model.AuditLog
	for i := len(s.audit) - 1; i >= 0; i-- {
		e := s.audit[i]
		if f.ActorID != "" && e.ActorID != f.ActorID {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if f.CandidateID != "" && e.Details.CandidateID != f.CandidateID {
			continue
		}
		matched = append(matched, e)
	}
	total := len(matched)
	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return []model.AuditLog{}, total
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, total
}
