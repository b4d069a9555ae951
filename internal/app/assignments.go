package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/jury/internal/adapters/repository"
	"github.com/okian/jury/internal/domain/model"
	"github.com/okian/jury/internal/domain/scoring"
	"github.com/okian/jury/pkg/logger"
	"github.com/okian/jury/pkg/metrics"
)

// AssignmentInput names the tuple of a new assignment.
type AssignmentInput struct {
	CandidateID string `json:"candidate_id" validate:"notblank"`
	JudgeID     string `json:"judge_id" validate:"notblank"`
	StageID     string `json:"stage_id" validate:"notblank"`
	CategoryID  string `json:"category_id" validate:"notblank"`
}

// AssignmentFilter narrows ListAssignments. Zero fields match everything.
type AssignmentFilter struct {
	CandidateID string
	JudgeID     string
	StageID     string
	CategoryID  string
	Status      model.Status
}

func (f AssignmentFilter) match(a *model.Assignment) bool { //nolint:gocritic // hugeParam: filters travel by value
	return (f.CandidateID == "" || a.CandidateID == f.CandidateID) &&
		(f.JudgeID == "" || a.JudgeID == f.JudgeID) &&
		(f.StageID == "" || a.StageID == f.StageID) &&
		(f.CategoryID == "" || a.CategoryID == f.CategoryID) &&
		(f.Status == "" || a.Status == f.Status)
}

// ListAssignments returns matching assignments in creation order.
func (s *Service) ListAssignments(ctx context.Context, f AssignmentFilter) ([]model.Assignment, error) { //nolint:gocritic // hugeParam: filters travel by value
	st, err := s.running()
	if err != nil {
		return nil, err
	}
	all := st.ListAssignments(ctx)
	out := make([]model.Assignment, 0, len(all))
	for i := range all {
		if f.match(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// GetAssignment returns one assignment.
func (s *Service) GetAssignment(ctx context.Context, id string) (model.Assignment, error) {
	st, err := s.running()
	if err != nil {
		return model.Assignment{}, err
	}
	return st.GetAssignment(ctx, id)
}

// CreateAssignment creates one NotStarted assignment. An existing tuple is
// rejected with ErrDuplicate before anything is written or audited.
func (s *Service) CreateAssignment(ctx context.Context, actorID string, in AssignmentInput) (model.Assignment, error) {
	if err := check(in); err != nil {
		return model.Assignment{}, err
	}
	st, unlock, err := s.lockWrite()
	if err != nil {
		return model.Assignment{}, err
	}
	defer unlock()

	cand, err := st.GetCandidate(ctx, in.CandidateID)
	if err != nil {
		return model.Assignment{}, err
	}
	judge, err := st.GetJudge(ctx, in.JudgeID)
	if err != nil {
		return model.Assignment{}, err
	}
	if !cand.InCategory(in.CategoryID) {
		return model.Assignment{}, fmt.Errorf("%w: %s in %s", ErrNotEnrolled, in.CandidateID, in.CategoryID)
	}
	key := model.AssignmentKey{
		CandidateID: in.CandidateID,
		JudgeID:     in.JudgeID,
		StageID:     in.StageID,
		CategoryID:  in.CategoryID,
	}
	if existing, ok := st.FindAssignment(ctx, key); ok {
		return model.Assignment{}, fmt.Errorf("assignment %q: %w", existing.ID, ErrDuplicate)
	}
	a, err := st.CreateAssignment(ctx, model.NewAssignment(key, s.now()))
	if err != nil {
		return model.Assignment{}, err
	}
	s.record(ctx, actorID, model.ActionCreateAssignment, model.AuditDetails{
		CandidateID:   cand.ID,
		CandidateName: cand.Name,
		JudgeID:       judge.ID,
		JudgeName:     judge.Name,
		StageID:       a.StageID,
		CategoryID:    a.CategoryID,
		NewStatus:     a.Status,
		Reason:        fmt.Sprintf("judge %q assigned to %q", judge.Name, cand.Name),
	})
	return a, nil
}

// Unassign deletes an assignment together with any scores it holds.
func (s *Service) Unassign(ctx context.Context, actorID, assignmentID string) error {
	st, unlock, err := s.lockWrite()
	if err != nil {
		return err
	}
	defer unlock()

	a, err := st.GetAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	if err := st.DeleteAssignment(ctx, assignmentID); err != nil {
		return err
	}
	details := model.AuditDetails{
		CandidateID: a.CandidateID,
		JudgeID:     a.JudgeID,
		StageID:     a.StageID,
		CategoryID:  a.CategoryID,
		OldStatus:   a.Status,
		OldScore:    a.FinalScore,
		Reason:      fmt.Sprintf("assignment removed with status %s", a.Status),
	}
	if c, err := st.GetCandidate(ctx, a.CandidateID); err == nil {
		details.CandidateName = c.Name
	}
	if j, err := st.GetJudge(ctx, a.JudgeID); err == nil {
		details.JudgeName = j.Name
	}
	s.record(ctx, actorID, model.ActionDeleteAssignment, details)
	return nil
}

// ImportPair is one (candidate, judge) row of a bulk import.
type ImportPair struct {
	CandidateID string `json:"candidate_id"`
	JudgeID     string `json:"judge_id"`
}

// ImportRowError reports a rejected row. Rows are numbered from 2 so the
// header line of a sheet is row 1.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (e ImportRowError) Error() string { return fmt.Sprintf("row %d: %s", e.Row, e.Message) }

// ImportSummary reports the outcome of ImportAssignments.
type ImportSummary struct {
	StageID string           `json:"stage_id"`
	Created int              `json:"created"`
	Skipped int              `json:"skipped"`
	Errors  []ImportRowError `json:"errors"`
}

// ImportAssignments fans every pair out to one assignment per category the
// candidate is enrolled in. Existing tuples are skipped and counted. Bad rows
// are reported and do not stop the import.
func (s *Service) ImportAssignments(ctx context.Context, actorID, stageID string, pairs []ImportPair) (ImportSummary, error) {
	st, unlock, err := s.lockWrite()
	if err != nil {
		return ImportSummary{}, err
	}
	defer unlock()

	stage, err := st.GetStage(ctx, stageID)
	if err != nil {
		return ImportSummary{}, err
	}

	candidates := make(map[string]model.Candidate)
	for _, c := range st.ListCandidates(ctx) {
		candidates[c.ID] = c
	}
	judges := make(map[string]model.Judge)
	for _, j := range st.ListJudges(ctx) {
		judges[j.ID] = j
	}

	sum := ImportSummary{StageID: stage.ID, Errors: []ImportRowError{}}
	for i, p := range pairs {
		row := i + 2
		candID, judgeID := strings.TrimSpace(p.CandidateID), strings.TrimSpace(p.JudgeID)
		if candID == "" || judgeID == "" {
			sum.Errors = append(sum.Errors, ImportRowError{Row: row, Message: "missing candidate or judge id"})
			continue
		}
		cand, ok := candidates[candID]
		if !ok {
			sum.Errors = append(sum.Errors, ImportRowError{Row: row, Message: fmt.Sprintf("invalid candidate id %q", candID)})
			continue
		}
		judge, ok := judges[judgeID]
		if !ok {
			sum.Errors = append(sum.Errors, ImportRowError{Row: row, Message: fmt.Sprintf("invalid judge id %q", judgeID)})
			continue
		}
		for _, catID := range cand.CategoryIDs {
			key := model.AssignmentKey{CandidateID: candID, JudgeID: judgeID, StageID: stage.ID, CategoryID: catID}
			if _, exists := st.FindAssignment(ctx, key); exists {
				sum.Skipped++
				continue
			}
			a, err := st.CreateAssignment(ctx, model.NewAssignment(key, s.now()))
			if err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					sum.Skipped++
					continue
				}
				sum.Errors = append(sum.Errors, ImportRowError{Row: row, Message: err.Error()})
				continue
			}
			sum.Created++
			s.record(ctx, actorID, model.ActionImportAssignment, model.AuditDetails{
				CandidateID:   cand.ID,
				CandidateName: cand.Name,
				JudgeID:       judge.ID,
				JudgeName:     judge.Name,
				StageID:       stage.ID,
				CategoryID:    a.CategoryID,
				NewStatus:     a.Status,
				Reason:        fmt.Sprintf("assignment imported for stage %q", stage.Name),
			})
		}
	}
	return sum, nil
}

// ScoreEntry is one judge edit of one criterion. Nil fields are left alone.
// Version, when set, must match the stored assignment.
type ScoreEntry struct {
	CriterionID string   `json:"criterion_id" validate:"notblank"`
	Score       *float64 `json:"score,omitempty"`
	Observation *string  `json:"observation,omitempty"`
	Version     *int64   `json:"version,omitempty"`
}

// EnterScore records a judge's score or observation for one criterion. The
// first score moves a NotStarted assignment to InProgress. Finalized
// assignments are closed to judges.
func (s *Service) EnterScore(ctx context.Context, assignmentID string, e ScoreEntry) (model.Assignment, error) {
	if err := check(e); err != nil {
		return model.Assignment{}, err
	}
	st, unlock, err := s.lockWrite()
	if err != nil {
		return model.Assignment{}, err
	}
	defer unlock()

	a, err := st.GetAssignment(ctx, assignmentID)
	if err != nil {
		return model.Assignment{}, err
	}
	if a.Status == model.StatusFinalized {
		return model.Assignment{}, ErrFinalized
	}
	crit, err := criterionOf(ctx, st, &a, e.CriterionID)
	if err != nil {
		return model.Assignment{}, err
	}
	expected := a.Version
	if e.Version != nil {
		expected = *e.Version
	}
	now := s.now()
	if e.Score != nil {
		if !scoring.InBounds(crit, *e.Score) {
			return model.Assignment{}, fmt.Errorf("%w: %g not in [%g, %g] for %s",
				ErrOutOfBounds, *e.Score, crit.ScoreMin, crit.ScoreMax, crit.ID)
		}
		a.SetScore(crit.ID, *e.Score, now)
	}
	if e.Observation != nil {
		a.SetObservation(crit.ID, *e.Observation, now)
	}
	out, err := st.UpdateAssignment(ctx, a, expected)
	if err != nil {
		return model.Assignment{}, err
	}
	if e.Score != nil {
		metrics.RecordScoreEntry()
	}
	return out, nil
}

// criterionOf returns the criterion if it belongs to the assignment's pair.
func criterionOf(ctx context.Context, st repository.Store, a *model.Assignment, criterionID string) (model.Criterion, error) {
	crit, err := st.GetCriterion(ctx, criterionID)
	if err != nil {
		return model.Criterion{}, err
	}
	if crit.StageID != a.StageID || crit.CategoryID != a.CategoryID {
		return model.Criterion{}, fmt.Errorf("%w: criterion %s does not apply to stage %s category %s",
			ErrValidation, crit.ID, a.StageID, a.CategoryID)
	}
	return crit, nil
}

// SubmitAssignment finalizes an assignment with the score computed over the
// criteria of its (stage, category). Partially scored assignments may be
// submitted; unscored criteria do not count.
func (s *Service) SubmitAssignment(ctx context.Context, actorID, assignmentID string, version *int64) (model.Assignment, error) {
	st, unlock, err := s.lockWrite()
	if err != nil {
		return model.Assignment{}, err
	}
	defer unlock()

	a, err := st.GetAssignment(ctx, assignmentID)
	if err != nil {
		return model.Assignment{}, err
	}
	expected := a.Version
	if version != nil {
		expected = *version
	}
	old := a.Status
	score := s.scorer.Score(a.Scores, st.CriteriaFor(ctx, a.StageID, a.CategoryID))
	if err := a.Finalize(score, s.now()); err != nil {
		if errors.Is(err, model.ErrAlreadyFinalized) {
			return model.Assignment{}, ErrFinalized
		}
		return model.Assignment{}, err
	}
	out, err := st.UpdateAssignment(ctx, a, expected)
	if err != nil {
		return model.Assignment{}, err
	}
	metrics.RecordScoreComputed()
	metrics.RecordAssignmentFinalized()
	s.record(ctx, actorID, model.ActionSubmitAssignment, model.AuditDetails{
		CandidateID: out.CandidateID,
		JudgeID:     out.JudgeID,
		StageID:     out.StageID,
		CategoryID:  out.CategoryID,
		OldStatus:   old,
		NewStatus:   out.Status,
		NewScore:    out.FinalScore,
		ChangeCount: len(out.Scores),
		Reason:      "evaluation submitted",
	})
	return out, nil
}

// AdminEdit is a patch of raw scores applied by an administrator.
type AdminEdit struct {
	Scores  map[string]float64 `json:"scores" validate:"required,min=1"`
	Reason  string             `json:"reason"`
	Version *int64             `json:"version,omitempty"`
}

// AdminEditScores overwrites raw scores on any assignment. Changing a score
// that was already entered needs a reason. Each changed criterion is audited
// on its own. A finalized assignment stays finalized and its final score is
// recomputed.
func (s *Service) AdminEditScores(ctx context.Context, actorID, assignmentID string, edit AdminEdit) (model.Assignment, error) {
	if err := check(edit); err != nil {
		return model.Assignment{}, err
	}
	st, unlock, err := s.lockWrite()
	if err != nil {
		return model.Assignment{}, err
	}
	defer unlock()

	a, err := st.GetAssignment(ctx, assignmentID)
	if err != nil {
		return model.Assignment{}, err
	}
	criteria := st.CriteriaFor(ctx, a.StageID, a.CategoryID)
	known := make(map[string]struct{}, len(criteria))
	for _, crit := range criteria {
		known[crit.ID] = struct{}{}
	}
	for id := range edit.Scores {
		if _, ok := known[id]; ok {
			continue
		}
		if _, err := criterionOf(ctx, st, &a, id); err != nil {
			return model.Assignment{}, err
		}
	}

	type change struct {
		criterionID string
		old, new    *float64
	}
	var (
		changes       []change
		touchesScored bool
	)
	// Criteria order keeps the audit trail deterministic.
	for _, crit := range criteria {
		v, ok := edit.Scores[crit.ID]
		if !ok {
			continue
		}
		if !scoring.InBounds(crit, v) {
			return model.Assignment{}, fmt.Errorf("%w: %g not in [%g, %g] for %s",
				ErrOutOfBounds, v, crit.ScoreMin, crit.ScoreMax, crit.ID)
		}
		prev, had := a.Scores[crit.ID]
		if had && prev == v {
			continue
		}
		ch := change{criterionID: crit.ID, new: model.Float(v)}
		if had {
			ch.old = model.Float(prev)
			touchesScored = true
		}
		changes = append(changes, ch)
	}
	if len(changes) == 0 {
		return a, nil
	}
	reason := strings.TrimSpace(edit.Reason)
	if touchesScored && reason == "" {
		return model.Assignment{}, ErrReasonRequired
	}

	expected := a.Version
	if edit.Version != nil {
		expected = *edit.Version
	}
	now := s.now()
	oldFinal := a.FinalScore
	for _, ch := range changes {
		a.SetScore(ch.criterionID, *ch.new, now)
	}
	if a.IsFinalized() {
		a.Rescore(s.scorer.Score(a.Scores, criteria), now)
		metrics.RecordScoreComputed()
	}
	out, err := st.UpdateAssignment(ctx, a, expected)
	if err != nil {
		return model.Assignment{}, err
	}
	metrics.RecordAdminScoreEdit(len(changes))

	details := model.AuditDetails{
		CandidateID: out.CandidateID,
		JudgeID:     out.JudgeID,
		StageID:     out.StageID,
		CategoryID:  out.CategoryID,
		OldStatus:   out.Status,
		NewStatus:   out.Status,
		Reason:      reason,
	}
	if c, err := st.GetCandidate(ctx, out.CandidateID); err == nil {
		details.CandidateName = c.Name
	}
	if j, err := st.GetJudge(ctx, out.JudgeID); err == nil {
		details.JudgeName = j.Name
	}
	for _, ch := range changes {
		d := details
		d.CriterionID = ch.criterionID
		d.OldScore, d.NewScore = ch.old, ch.new
		s.record(ctx, actorID, model.ActionAdminScoreEdit, d)
	}
	if oldFinal != nil && out.FinalScore != nil && *oldFinal != *out.FinalScore {
		s.logger.Debug(ctx, "final score recomputed after admin edit",
			logger.String("assignment", out.ID),
			logger.Float64("old", *oldFinal),
			logger.Float64("new", *out.FinalScore),
		)
	}
	return out, nil
}
