package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/jury/internal/adapters/repository"
	"github.com/okian/jury/internal/domain/model"
	"github.com/okian/jury/pkg/metrics"
)

// CandidateInput carries the editable fields of a candidate. ID is optional
// on create.
type CandidateInput struct {
	ID            string   `json:"id,omitempty"`
	Name          string   `json:"name" validate:"notblank"`
	Title         string   `json:"title,omitempty"`
	School        string   `json:"school,omitempty"`
	Region        string   `json:"region,omitempty"`
	CategoryIDs   []string `json:"category_ids" validate:"dive,notblank"`
	PhotoURL      string   `json:"photo_url,omitempty"`
	SubmissionURL string   `json:"submission_url,omitempty"`
}

// JudgeInput carries the fields of a new judge.
type JudgeInput struct {
	ID   string     `json:"id,omitempty"`
	Name string     `json:"name" validate:"notblank"`
	Role model.Role `json:"role,omitempty" validate:"omitempty,oneof=judge admin viewer"`
}

// StageInput carries the fields of a new stage.
type StageInput struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name" validate:"notblank"`
	Active bool   `json:"active"`
}

// CategoryInput carries the fields of a new category.
type CategoryInput struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name" validate:"notblank"`
}

// CriterionInput carries the fields of a criterion.
type CriterionInput struct {
	ID          string  `json:"id,omitempty"`
	StageID     string  `json:"stage_id" validate:"notblank"`
	CategoryID  string  `json:"category_id" validate:"notblank"`
	Name        string  `json:"name" validate:"notblank"`
	Description string  `json:"description,omitempty"`
	Weight      float64 `json:"weight" validate:"gte=0"`
	ScoreMin    float64 `json:"score_min"`
	ScoreMax    float64 `json:"score_max" validate:"gtefield=ScoreMin"`
}

// lockWrite serializes a mutation against every other mutation.
func (s *Service) lockWrite() (repository.Store, func(), error) {
	st, err := s.running()
	if err != nil {
		return nil, nil, err
	}
	s.writeMu.Lock()
	return st, s.writeMu.Unlock, nil
}

// ListCandidates returns every candidate in creation order.
func (s *Service) ListCandidates(ctx context.Context) ([]model.Candidate, error) {
	st, err := s.running()
	if err != nil {
		return nil, err
	}
	return st.ListCandidates(ctx), nil
}

// GetCandidate returns one candidate.
func (s *Service) GetCandidate(ctx context.Context, id string) (model.Candidate, error) {
	st, err := s.running()
	if err != nil {
		return model.Candidate{}, err
	}
	return st.GetCandidate(ctx, id)
}

// CreateCandidate adds a candidate enrolled in the given categories.
func (s *Service) CreateCandidate(ctx context.Context, actorID string, in CandidateInput) (model.Candidate, error) { //nolint:gocritic // hugeParam: inputs travel by value
	if err := check(in); err != nil {
		return model.Candidate{}, err
	}
	st, unlock, err := s.lockWrite()
	if err != nil {
		return model.Candidate{}, err
	}
	defer unlock()

	c, err := st.CreateCandidate(ctx, model.Candidate{
		ID:            in.ID,
		Name:          strings.TrimSpace(in.Name),
		Title:         in.Title,
		School:        in.School,
		Region:        in.Region,
		CategoryIDs:   dedupeIDs(in.CategoryIDs),
		PhotoURL:      in.PhotoURL,
		SubmissionURL: in.SubmissionURL,
	})
	if err != nil {
		return model.Candidate{}, err
	}
	s.record(ctx, actorID, model.ActionCreateCandidate, model.AuditDetails{
		CandidateID:   c.ID,
		CandidateName: c.Name,
		Reason:        fmt.Sprintf("candidate %q created", c.Name),
	})
	return c, nil
}

// UpdateCandidate replaces the editable fields of a candidate. Promotions and
// the winner flag are untouched. Each changed field gets its own audit entry.
func (s *Service) UpdateCandidate(ctx context.Context, actorID, id string, in CandidateInput) (model.Candidate, error) { //nolint:gocritic // hugeParam: inputs travel by value
	if err := check(in); err != nil {
		return model.Candidate{}, err
	}
	st, unlock, err := s.lockWrite()
	if err != nil {
		return model.Candidate{}, err
	}
	defer unlock()

	cur, err := st.GetCandidate(ctx, id)
	if err != nil {
		return model.Candidate{}, err
	}
	next := cur.Clone()
	next.Name = strings.TrimSpace(in.Name)
	next.Title = in.Title
	next.School = in.School
	next.Region = in.Region
	next.CategoryIDs = dedupeIDs(in.CategoryIDs)
	next.PhotoURL = in.PhotoURL
	next.SubmissionURL = in.SubmissionURL

	changes := candidateChanges(&cur, &next)
	if len(changes) == 0 {
		return cur, nil
	}
	if err := st.UpdateCandidate(ctx, next); err != nil {
		return model.Candidate{}, err
	}
	for _, ch := range changes {
		s.record(ctx, actorID, model.ActionUpdateCandidate, model.AuditDetails{
			CandidateID:   next.ID,
			CandidateName: next.Name,
			Field:         ch.field,
			OldValue:      ch.old,
			NewValue:      ch.new,
			Reason:        fmt.Sprintf("field %s changed", ch.field),
		})
	}
	return next, nil
}

type fieldChange struct {
	field, old, new string
}

func candidateChanges(a, b *model.Candidate) []fieldChange {
	var out []fieldChange
	add := func(field, oldV, newV string) {
		if oldV != newV {
			out = append(out, fieldChange{field: field, old: oldV, new: newV})
		}
	}
	add("name", a.Name, b.Name)
	add("title", a.Title, b.Title)
	add("school", a.School, b.School)
	add("region", a.Region, b.Region)
	add("category_ids", strings.Join(a.CategoryIDs, ","), strings.Join(b.CategoryIDs, ","))
	add("photo_url", a.PhotoURL, b.PhotoURL)
	add("submission_url", a.SubmissionURL, b.SubmissionURL)
	return out
}

// dedupeIDs drops blanks and repeats while keeping order.
func dedupeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// DeleteCandidate removes a candidate and its assignments.
func (s *Service) DeleteCandidate(ctx context.Context, actorID, id string) (repository.CascadeResult, error) {
	st, unlock, err := s.lockWrite()
	if err != nil {
		return repository.CascadeResult{}, err
	}
	defer unlock()

	c, err := st.GetCandidate(ctx, id)
	if err != nil {
		return repository.CascadeResult{}, err
	}
	res, err := st.DeleteCandidate(ctx, id)
	if err != nil {
		return repository.CascadeResult{}, err
	}
	metrics.RecordCascadeDelete("assignment", res.Assignments)
	s.record(ctx, actorID, model.ActionDeleteCandidate, model.AuditDetails{
		CandidateID:   c.ID,
		CandidateName: c.Name,
		ChangeCount:   res.Assignments,
		Reason:        fmt.Sprintf("candidate %q deleted", c.Name),
	})
	return res, nil
}

// ListJudges returns every judge in creation order.
func (s *Service) ListJudges(ctx context.Context) ([]model.Judge, error) {
	st, err := s.running()
	if err != nil {
		return nil, err
	}
	return st.ListJudges(ctx), nil
}

// CreateJudge adds a judge. The role defaults to judge.
func (s *Service) CreateJudge(ctx context.Context, actorID string, in JudgeInput) (model.Judge, error) {
	if err := check(in); err != nil {
		return model.Judge{}, err
	}
	st, unlock, err := s.lockWrite()
	if err != nil {
		return model.Judge{}, err
	}
	defer unlock()

	role := in.Role
	if role == "" {
		role = model.RoleJudge
	}
	j, err := st.CreateJudge(ctx, model.Judge{ID: in.ID, Name: strings.TrimSpace(in.Name), Role: role})
	if err != nil {
		return model.Judge{}, err
	}
	s.record(ctx, actorID, model.ActionCreateJudge, model.AuditDetails{
		JudgeID:   j.ID,
		JudgeName: j.Name,
		Reason:    fmt.Sprintf("judge %q created", j.Name),
	})
	return j, nil
}

// DeleteJudge removes a judge and its assignments.
func (s *Service) DeleteJudge(ctx context.Context, actorID, id string) (repository.CascadeResult, error) {
	st, unlock, err := s.lockWrite()
	if err != nil {
		return repository.CascadeResult{}, err
	}
	defer unlock()

	j, err := st.GetJudge(ctx, id)
	if err != nil {
		return repository.CascadeResult{}, err
	}
	res, err := st.DeleteJudge(ctx, id)
	if err != nil {
		return repository.CascadeResult{}, err
	}
	metrics.RecordCascadeDelete("assignment", res.Assignments)
	s.record(ctx, actorID, model.ActionDeleteJudge, model.AuditDetails{
		JudgeID:     j.ID,
		JudgeName:   j.Name,
		ChangeCount: res.Assignments,
		Reason:      fmt.Sprintf("judge %q deleted", j.Name),
	})
	return res, nil
}

// ListStages returns the stages in sequence order.
func (s *Service) ListStages(ctx context.Context) ([]model.Stage, error) {
	st, err := s.running()
	if err != nil {
		return nil, err
	}
	return st.ListStages(ctx), nil
}

// CreateStage appends a stage to the sequence.
func (s *Service) CreateStage(ctx context.Context, actorID string, in StageInput) (model.Stage, error) {
	if err := check(in); err != nil {
		return model.Stage{}, err
	}
	st, unlock, err := s.lockWrite()
	if err != nil {
		return model.Stage{}, err
	}
	defer unlock()

	stage, err := st.CreateStage(ctx, model.Stage{ID: in.ID, Name: strings.TrimSpace(in.Name), Active: in.Active})
	if err != nil {
		return model.Stage{}, err
	}
	s.record(ctx, actorID, model.ActionCreateStage, model.AuditDetails{
		StageID: stage.ID,
		Reason:  fmt.Sprintf("stage %q created", stage.Name),
	})
	return stage, nil
}

// ToggleStage flips the active flag of a stage.
func (s *Service) ToggleStage(ctx context.Context, actorID, id string) (model.Stage, error) {
	st, unlock, err := s.lockWrite()
	if err != nil {
		return model.Stage{}, err
	}
	defer unlock()

	stage, err := st.GetStage(ctx, id)
	if err != nil {
		return model.Stage{}, err
	}
	stage.Active = !stage.Active
	if err := st.UpdateStage(ctx, stage); err != nil {
		return model.Stage{}, err
	}
	s.record(ctx, actorID, model.ActionToggleStage, model.AuditDetails{
		StageID:  stage.ID,
		Field:    "active",
		OldValue: fmt.Sprint(!stage.Active),
		NewValue: fmt.Sprint(stage.Active),
		Reason:   fmt.Sprintf("stage %q toggled", stage.Name),
	})
	return stage, nil
}

// DeleteStage removes a stage with its criteria and assignments.
func (s *Service) DeleteStage(ctx context.Context, actorID, id string) (repository.CascadeResult, error) {
	st, unlock, err := s.lockWrite()
	if err != nil {
		return repository.CascadeResult{}, err
	}
	defer unlock()

	stage, err := st.GetStage(ctx, id)
	if err != nil {
		return repository.CascadeResult{}, err
	}
	res, err := st.DeleteStage(ctx, id)
	if err != nil {
		return repository.CascadeResult{}, err
	}
	metrics.RecordCascadeDelete("criterion", res.Criteria)
	metrics.RecordCascadeDelete("assignment", res.Assignments)
	s.record(ctx, actorID, model.ActionDeleteStage, model.AuditDetails{
		StageID:     stage.ID,
		ChangeCount: res.Criteria + res.Assignments + res.Candidates,
		Reason:      fmt.Sprintf("stage %q deleted", stage.Name),
	})
	return res, nil
}

// ListCategories returns every category in creation order.
func (s *Service) ListCategories(ctx context.Context) ([]model.Category, error) {
	st, err := s.running()
	if err != nil {
		return nil, err
	}
	return st.ListCategories(ctx), nil
}

// CreateCategory adds an award track.
func (s *Service) CreateCategory(ctx context.Context, actorID string, in CategoryInput) (model.Category, error) {
	if err := check(in); err != nil {
		return model.Category{}, err
	}
	st, unlock, err := s.lockWrite()
	if err != nil {
		return model.Category{}, err
	}
	defer unlock()

	c, err := st.CreateCategory(ctx, model.Category{ID: in.ID, Name: strings.TrimSpace(in.Name)})
	if err != nil {
		return model.Category{}, err
	}
	s.record(ctx, actorID, model.ActionCreateCategory, model.AuditDetails{
		CategoryID: c.ID,
		Reason:     fmt.Sprintf("category %q created", c.Name),
	})
	return c, nil
}

// DeleteCategory removes a category, its criteria and assignments, and drops
// it from every candidate.
func (s *Service) DeleteCategory(ctx context.Context, actorID, id string) (repository.CascadeResult, error) {
	st, unlock, err := s.lockWrite()
	if err != nil {
		return repository.CascadeResult{}, err
	}
	defer unlock()

	c, err := st.GetCategory(ctx, id)
	if err != nil {
		return repository.CascadeResult{}, err
	}
	res, err := st.DeleteCategory(ctx, id)
	if err != nil {
		return repository.CascadeResult{}, err
	}
	metrics.RecordCascadeDelete("criterion", res.Criteria)
	metrics.RecordCascadeDelete("assignment", res.Assignments)
	s.record(ctx, actorID, model.ActionDeleteCategory, model.AuditDetails{
		CategoryID:  c.ID,
		ChangeCount: res.Criteria + res.Assignments + res.Candidates,
		Reason:      fmt.Sprintf("category %q deleted", c.Name),
	})
	return res, nil
}

// ListCriteria returns every criterion in creation order.
func (s *Service) ListCriteria(ctx context.Context) ([]model.Criterion, error) {
	st, err := s.running()
	if err != nil {
		return nil, err
	}
	return st.ListCriteria(ctx), nil
}

// CreateCriterion adds a weighted criterion to a (stage, category) pair.
// Weights are not required to sum to 1; see WeightWarnings.
func (s *Service) CreateCriterion(ctx context.Context, actorID string, in CriterionInput) (model.Criterion, error) { //nolint:gocritic // hugeParam: inputs travel by value
	if err := check(in); err != nil {
		return model.Criterion{}, err
	}
	st, unlock, err := s.lockWrite()
	if err != nil {
		return model.Criterion{}, err
	}
	defer unlock()

	c, err := st.CreateCriterion(ctx, criterionFromInput(in))
	if err != nil {
		return model.Criterion{}, err
	}
	s.record(ctx, actorID, model.ActionCreateCriterion, model.AuditDetails{
		StageID:     c.StageID,
		CategoryID:  c.CategoryID,
		CriterionID: c.ID,
		Reason:      fmt.Sprintf("criterion %q created with weight %g", c.Name, c.Weight),
	})
	return c, nil
}

// UpdateCriterion replaces a criterion. Stored scores are not rescaled.
func (s *Service) UpdateCriterion(ctx context.Context, actorID, id string, in CriterionInput) (model.Criterion, error) { //nolint:gocritic // hugeParam: inputs travel by value
	if err := check(in); err != nil {
		return model.Criterion{}, err
	}
	st, unlock, err := s.lockWrite()
	if err != nil {
		return model.Criterion{}, err
	}
	defer unlock()

	cur, err := st.GetCriterion(ctx, id)
	if err != nil {
		return model.Criterion{}, err
	}
	next := criterionFromInput(in)
	next.ID = cur.ID
	if next == cur {
		return cur, nil
	}
	if err := st.UpdateCriterion(ctx, next); err != nil {
		return model.Criterion{}, err
	}
	s.record(ctx, actorID, model.ActionUpdateCriterion, model.AuditDetails{
		StageID:     next.StageID,
		CategoryID:  next.CategoryID,
		CriterionID: next.ID,
		Field:       "weight",
		OldValue:    fmt.Sprintf("%g", cur.Weight),
		NewValue:    fmt.Sprintf("%g", next.Weight),
		Reason:      fmt.Sprintf("criterion %q updated", next.Name),
	})
	return next, nil
}

// DeleteCriterion removes a criterion. Raw scores already entered against it
// stay on the assignments but no longer count.
func (s *Service) DeleteCriterion(ctx context.Context, actorID, id string) error {
	st, unlock, err := s.lockWrite()
	if err != nil {
		return err
	}
	defer unlock()

	c, err := st.GetCriterion(ctx, id)
	if err != nil {
		return err
	}
	if err := st.DeleteCriterion(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, model.ActionDeleteCriterion, model.AuditDetails{
		StageID:     c.StageID,
		CategoryID:  c.CategoryID,
		CriterionID: c.ID,
		Reason:      fmt.Sprintf("criterion %q deleted", c.Name),
	})
	return nil
}

func criterionFromInput(in CriterionInput) model.Criterion { //nolint:gocritic // hugeParam: inputs travel by value
	return model.Criterion{
		ID:          in.ID,
		StageID:     in.StageID,
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Weight:      in.Weight,
		ScoreMin:    in.ScoreMin,
		ScoreMax:    in.ScoreMax,
	}
}
