// Package repository defines the entity store interfaces and errors.
package repository

import (
	"context"

	"github.com/okian/jury/internal/domain/model"
)

// CascadeResult counts the dependents removed with an entity.
type CascadeResult struct {
	Criteria    int `json:"criteria"`
	Assignments int `json:"assignments"`
	// Candidates counts candidates whose category list was trimmed.
	Candidates int `json:"candidates"`
}

// Candidates stores competitors. Deleting one removes its assignments.
type Candidates interface {
	CreateCandidate(ctx context.Context, c model.Candidate) (model.Candidate, error)
	GetCandidate(ctx context.Context, id string) (model.Candidate, error)
	ListCandidates(ctx context.Context) []model.Candidate
	UpdateCandidate(ctx context.Context, c model.Candidate) error
	// UpdateCandidates replaces several candidates at once. Either all are
	// written or none.
	UpdateCandidates(ctx context.Context, cs []model.Candidate) error
	DeleteCandidate(ctx context.Context, id string) (CascadeResult, error)
}

// Judges stores evaluators. Deleting one removes its assignments.
type Judges interface {
	CreateJudge(ctx context.Context, j model.Judge) (model.Judge, error)
	GetJudge(ctx context.Context, id string) (model.Judge, error)
	ListJudges(ctx context.Context) []model.Judge
	DeleteJudge(ctx context.Context, id string) (CascadeResult, error)
}

// Stages stores the ordered competition phases. Deleting one removes its
// criteria and assignments.
type Stages interface {
	CreateStage(ctx context.Context, s model.Stage) (model.Stage, error)
	GetStage(ctx context.Context, id string) (model.Stage, error)
	ListStages(ctx context.Context) []model.Stage
	UpdateStage(ctx context.Context, s model.Stage) error
	DeleteStage(ctx context.Context, id string) (CascadeResult, error)
}

// Categories stores award tracks. Deleting one removes its criteria and
// assignments and drops it from every candidate.
type Categories interface {
	CreateCategory(ctx context.Context, c model.Category) (model.Category, error)
	GetCategory(ctx context.Context, id string) (model.Category, error)
	ListCategories(ctx context.Context) []model.Category
	DeleteCategory(ctx context.Context, id string) (CascadeResult, error)
}

// Criteria stores weighted scoring dimensions.
type Criteria interface {
	CreateCriterion(ctx context.Context, c model.Criterion) (model.Criterion, error)
	GetCriterion(ctx context.Context, id string) (model.Criterion, error)
	ListCriteria(ctx context.Context) []model.Criterion
	// CriteriaFor returns the criteria of one (stage, category) pair.
	CriteriaFor(ctx context.Context, stageID, categoryID string) []model.Criterion
	UpdateCriterion(ctx context.Context, c model.Criterion) error
	DeleteCriterion(ctx context.Context, id string) error
}

// Assignments stores judging tasks. The (candidate, judge, stage, category)
// tuple is unique.
type Assignments interface {
	// CreateAssignment returns ErrDuplicate when the tuple already exists.
	CreateAssignment(ctx context.Context, a model.Assignment) (model.Assignment, error)
	GetAssignment(ctx context.Context, id string) (model.Assignment, error)
	FindAssignment(ctx context.Context, key model.AssignmentKey) (model.Assignment, bool)
	ListAssignments(ctx context.Context) []model.Assignment
	// UpdateAssignment writes a when the stored version equals
	// expectedVersion, otherwise it returns ErrConflict.
	UpdateAssignment(ctx context.Context, a model.Assignment, expectedVersion int64) (model.Assignment, error)
	DeleteAssignment(ctx context.Context, id string) error
}

// AuditFilter narrows an audit listing. Zero fields match everything.
type AuditFilter struct {
	ActorID     string
	Action      model.Action
	CandidateID string
	Offset      int
	Limit       int
}

// AuditLogs is append-only.
type AuditLogs interface {
	AppendAudit(ctx context.Context, entry model.AuditLog) (model.AuditLog, error)
	// ListAudit returns matching entries, newest first, and the match total.
	ListAudit(ctx context.Context, f AuditFilter) ([]model.AuditLog, int)
}

// Snapshot is a consistent copy of every collection.
type Snapshot struct {
	Candidates  []model.Candidate
	Judges      []model.Judge
	Stages      []model.Stage
	Categories  []model.Category
	Criteria    []model.Criterion
	Assignments []model.Assignment
}

// Store combines every collection.
type Store interface {
	Candidates
	Judges
	Stages
	Categories
	Criteria
	Assignments
	AuditLogs

	// Snapshot copies all collections under one read lock.
	Snapshot(ctx context.Context) Snapshot
	Close() error
}
