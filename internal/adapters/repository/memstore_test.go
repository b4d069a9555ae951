package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/jury/internal/domain/model"
)

func newTestStore(t *testing.T) *MemStore {
	t.Helper()
	n := 0
	s := NewMemStore(context.Background(), WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// seedBasic creates stages s1..s3, categories cat1/cat2, candidates c1/c2,
// judges j1/j2 and criteria for (s3, cat1) and (s2, cat2).
func seedBasic(t *testing.T, s *MemStore) {
	t.Helper()
	ctx := context.Background()
	for _, id := range []string{"s1", "s2", "s3"} {
		if _, err := s.CreateStage(ctx, model.Stage{ID: id, Name: id, Active: true}); err != nil {
			t.Fatalf("create stage: %v", err)
		}
	}
	for _, id := range []string{"cat1", "cat2"} {
		if _, err := s.CreateCategory(ctx, model.Category{ID: id, Name: id}); err != nil {
			t.Fatalf("create category: %v", err)
		}
	}
	if _, err := s.CreateCandidate(ctx, model.Candidate{ID: "c1", Name: "Ana", CategoryIDs: []string{"cat1", "cat2"}}); err != nil {
		t.Fatalf("create candidate: %v", err)
	}
	if _, err := s.CreateCandidate(ctx, model.Candidate{ID: "c2", Name: "Dan", CategoryIDs: []string{"cat2"}}); err != nil {
		t.Fatalf("create candidate: %v", err)
	}
	for _, id := range []string{"j1", "j2"} {
		if _, err := s.CreateJudge(ctx, model.Judge{ID: id, Name: id}); err != nil {
			t.Fatalf("create judge: %v", err)
		}
	}
	for _, c := range []model.Criterion{
		{ID: "k1", StageID: "s3", CategoryID: "cat1", Weight: 0.5, ScoreMax: 100},
		{ID: "k2", StageID: "s3", CategoryID: "cat1", Weight: 0.5, ScoreMax: 100},
		{ID: "k3", StageID: "s2", CategoryID: "cat2", Weight: 1, ScoreMax: 100},
	} {
		if _, err := s.CreateCriterion(ctx, c); err != nil {
			t.Fatalf("create criterion: %v", err)
		}
	}
}

func assign(t *testing.T, s *MemStore, candidate, judge, stage, category string) model.Assignment {
	t.Helper()
	a := model.NewAssignment(model.AssignmentKey{
		CandidateID: candidate, JudgeID: judge, StageID: stage, CategoryID: category,
	}, time.Now())
	out, err := s.CreateAssignment(context.Background(), a)
	if err != nil {
		t.Fatalf("create assignment: %v", err)
	}
	return out
}

func TestMemStore_GeneratesIDsAndKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := s.CreateJudge(ctx, model.Judge{Name: name}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	judges := s.ListJudges(ctx)
	if len(judges) != 3 {
		t.Fatalf("expected 3 judges, got %d", len(judges))
	}
	want := []string{"zeta", "alpha", "mid"}
	for i, j := range judges {
		if j.Name != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], j.Name)
		}
		if j.ID == "" {
			t.Errorf("expected generated id for %s", j.Name)
		}
		if j.Role != model.RoleJudge {
			t.Errorf("expected default role judge, got %s", j.Role)
		}
	}
}

func TestMemStore_UUIDByDefault(t *testing.T) {
	s := NewMemStore(context.Background())
	defer s.Close()

	c, err := s.CreateCategory(context.Background(), model.Category{Name: "Excelenta"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.ID) != 36 {
		t.Errorf("expected uuid id, got %q", c.ID)
	}
}

func TestMemStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.GetCandidate(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.DeleteStage(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.CreateCandidate(ctx, model.Candidate{Name: "x", CategoryIDs: []string{"ghost"}}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown category, got %v", err)
	}
	if _, err := s.CreateCriterion(ctx, model.Criterion{StageID: "s1", CategoryID: "cat1"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown stage, got %v", err)
	}
}

func TestMemStore_DuplicateAssignmentRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedBasic(t, s)

	first := assign(t, s, "c1", "j1", "s3", "cat1")
	before := s.ListAssignments(ctx)

	dup := model.NewAssignment(first.Key(), time.Now())
	_, err := s.CreateAssignment(ctx, dup)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	after := s.ListAssignments(ctx)
	if len(after) != len(before) {
		t.Errorf("expected %d assignments after rejection, got %d", len(before), len(after))
	}
	if _, total := s.ListAudit(ctx, AuditFilter{}); total != 0 {
		t.Errorf("expected no audit entries, got %d", total)
	}
}

func TestMemStore_AssignmentReferencesChecked(t *testing.T) {
	s := newTestStore(t)
	seedBasic(t, s)

	a := model.NewAssignment(model.AssignmentKey{CandidateID: "c1", JudgeID: "ghost", StageID: "s1", CategoryID: "cat1"}, time.Now())
	if _, err := s.CreateAssignment(context.Background(), a); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown judge, got %v", err)
	}
}

func TestMemStore_DeleteStageCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedBasic(t, s)

	assign(t, s, "c1", "j1", "s3", "cat1")
	assign(t, s, "c1", "j2", "s3", "cat1")
	kept := assign(t, s, "c2", "j1", "s2", "cat2")

	res, err := s.DeleteStage(ctx, "s3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Criteria != 2 || res.Assignments != 2 {
		t.Errorf("expected 2 criteria and 2 assignments removed, got %+v", res)
	}

	for _, c := range s.ListCriteria(ctx) {
		if c.StageID == "s3" {
			t.Errorf("orphaned criterion %s", c.ID)
		}
	}
	left := s.ListAssignments(ctx)
	if len(left) != 1 || left[0].ID != kept.ID {
		t.Errorf("expected only %s to survive, got %+v", kept.ID, left)
	}

	// The tuple index is cleared too, so the pair can be assigned again once
	// the stage exists.
	if _, err := s.CreateStage(ctx, model.Stage{ID: "s3"}); err != nil {
		t.Fatalf("recreate stage: %v", err)
	}
	assign(t, s, "c1", "j1", "s3", "cat1")
}

func TestMemStore_DeleteCandidateAndJudgeCascade(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedBasic(t, s)

	assign(t, s, "c1", "j1", "s1", "cat1")
	assign(t, s, "c2", "j1", "s1", "cat2")
	assign(t, s, "c2", "j2", "s1", "cat2")

	res, err := s.DeleteCandidate(ctx, "c1")
	if err != nil || res.Assignments != 1 {
		t.Fatalf("expected 1 assignment removed, got %+v, %v", res, err)
	}
	res, err = s.DeleteJudge(ctx, "j1")
	if err != nil || res.Assignments != 1 {
		t.Fatalf("expected 1 assignment removed, got %+v, %v", res, err)
	}
	left := s.ListAssignments(ctx)
	if len(left) != 1 || left[0].JudgeID != "j2" {
		t.Errorf("unexpected survivors: %+v", left)
	}
}

func TestMemStore_DeleteCategoryCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedBasic(t, s)

	assign(t, s, "c1", "j1", "s2", "cat2")
	assign(t, s, "c1", "j1", "s3", "cat1")

	res, err := s.DeleteCategory(ctx, "cat2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Criteria != 1 || res.Assignments != 1 || res.Candidates != 2 {
		t.Errorf("unexpected cascade result %+v", res)
	}
	c1, _ := s.GetCandidate(ctx, "c1")
	if len(c1.CategoryIDs) != 1 || c1.CategoryIDs[0] != "cat1" {
		t.Errorf("expected c1 to keep only cat1, got %v", c1.CategoryIDs)
	}
	c2, _ := s.GetCandidate(ctx, "c2")
	if len(c2.CategoryIDs) != 0 {
		t.Errorf("expected c2 without categories, got %v", c2.CategoryIDs)
	}
}

func TestMemStore_UpdateAssignmentVersioning(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedBasic(t, s)
	a := assign(t, s, "c1", "j1", "s3", "cat1")

	edit := a.Clone()
	edit.SetScore("k1", 80, time.Now())
	edit.SetScore("k2", 90, time.Now())
	saved, err := s.UpdateAssignment(ctx, edit, a.Version)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.Version <= a.Version {
		t.Errorf("expected version to grow past %d, got %d", a.Version, saved.Version)
	}
	if saved.Status != model.StatusInProgress {
		t.Errorf("expected in_progress, got %s", saved.Status)
	}

	stale := a.Clone()
	stale.SetScore("k1", 10, time.Now())
	if _, err := s.UpdateAssignment(ctx, stale, a.Version); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	moved := saved.Clone()
	moved.CandidateID = "c2"
	out, err := s.UpdateAssignment(ctx, moved, saved.Version)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.CandidateID != "c1" {
		t.Errorf("expected tuple to be immutable, got candidate %s", out.CandidateID)
	}
}

func TestMemStore_UpdateCandidatesAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedBasic(t, s)

	c1, _ := s.GetCandidate(ctx, "c1")
	c1.IsWinner = true
	ghost := model.Candidate{ID: "ghost"}
	if err := s.UpdateCandidates(ctx, []model.Candidate{c1, ghost}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	got, _ := s.GetCandidate(ctx, "c1")
	if got.IsWinner {
		t.Error("expected no partial write")
	}
}

func TestMemStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedBasic(t, s)

	c, _ := s.GetCandidate(ctx, "c1")
	c.CategoryIDs[0] = "mutated"
	again, _ := s.GetCandidate(ctx, "c1")
	if again.CategoryIDs[0] != "cat1" {
		t.Errorf("store aliased caller slice: %v", again.CategoryIDs)
	}
}

func TestMemStore_AuditAppendAndFilter(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemStore(ctx, WithClock(func() time.Time { return fixed }))
	defer s.Close()

	for i := 0; i < 5; i++ {
		actor := "admin"
		if i%2 == 1 {
			actor = "j1"
		}
		_, err := s.AppendAudit(ctx, model.AuditLog{
			ActorID: actor,
			Action:  model.ActionPromote,
			Details: model.AuditDetails{CandidateID: fmt.Sprintf("c%d", i)},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all, total := s.ListAudit(ctx, AuditFilter{})
	if total != 5 || len(all) != 5 {
		t.Fatalf("expected 5 entries, got %d/%d", len(all), total)
	}
	if all[0].Details.CandidateID != "c4" {
		t.Errorf("expected newest first, got %s", all[0].Details.CandidateID)
	}
	if !all[0].Timestamp.Equal(fixed) || all[0].ID == "" {
		t.Errorf("expected id and timestamp to be filled, got %+v", all[0])
	}

	admin, total := s.ListAudit(ctx, AuditFilter{ActorID: "admin", Limit: 2})
	if total != 3 || len(admin) != 2 {
		t.Errorf("expected 2 of 3 admin entries, got %d of %d", len(admin), total)
	}
	page, _ := s.ListAudit(ctx, AuditFilter{Offset: 4})
	if len(page) != 1 || page[0].Details.CandidateID != "c0" {
		t.Errorf("unexpected last page %+v", page)
	}
	empty, _ := s.ListAudit(ctx, AuditFilter{Offset: 10})
	if len(empty) != 0 {
		t.Errorf("expected empty page, got %d", len(empty))
	}
}

func TestMemStore_ConcurrentReadersAndWriters(t *testing.T) {
	ctx := context.Background()
	s := newTestStoreConcurrent(t)
	seedBasic(t, s)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _ = s.AppendAudit(ctx, model.AuditLog{ActorID: fmt.Sprintf("a%d", i)})
		}(i)
		go func() {
			defer wg.Done()
			_ = s.Snapshot(ctx)
		}()
	}
	wg.Wait()

	if _, total := s.ListAudit(ctx, AuditFilter{}); total != 10 {
		t.Errorf("expected 10 audit entries, got %d", total)
	}
}

// newTestStoreConcurrent uses the default uuid generator, which is safe for
// concurrent callers.
func newTestStoreConcurrent(t *testing.T) *MemStore {
	t.Helper()
	s := NewMemStore(context.Background(), WithMetricsUpdateInterval(10*time.Millisecond))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMemStore_CloseIsIdempotent(t *testing.T) {
	s := NewMemStore(context.Background())
	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error on second close: %v", err)
	}
}

func TestMemStore_DeleteStageStripsPromotions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedBasic(t, s)

	c1, _ := s.GetCandidate(ctx, "c1")
	c1.Promotions = map[string]bool{"s2": true, "s3": true}
	if err := s.UpdateCandidate(ctx, c1); err != nil {
		t.Fatalf("update candidate: %v", err)
	}

	res, err := s.DeleteStage(ctx, "s3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Candidates != 1 {
		t.Errorf("expected 1 candidate touched, got %+v", res)
	}
	c1, _ = s.GetCandidate(ctx, "c1")
	if _, ok := c1.Promotions["s3"]; ok {
		t.Errorf("promotion from deleted stage survived: %v", c1.Promotions)
	}
	if !c1.Promotions["s2"] {
		t.Errorf("expected s2 promotion to stay, got %v", c1.Promotions)
	}
}

func TestMemStore_DeleteWinningCategoryRevokesWinner(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedBasic(t, s)

	c1, _ := s.GetCandidate(ctx, "c1")
	c1.IsWinner = true
	c1.WinningCategoryID = "cat2"
	if err := s.UpdateCandidate(ctx, c1); err != nil {
		t.Fatalf("update candidate: %v", err)
	}

	if _, err := s.DeleteCategory(ctx, "cat2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c1, _ = s.GetCandidate(ctx, "c1")
	if c1.IsWinner || c1.WinningCategoryID != "" {
		t.Errorf("expected the winner to be revoked, got winner=%v category=%q", c1.IsWinner, c1.WinningCategoryID)
	}
}
