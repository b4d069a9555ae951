package service

import (
	"context"
	"time"

	"github.com/okian/jury/internal/adapters/repository"
	"github.com/okian/jury/internal/domain/aggregation"
	"github.com/okian/jury/internal/domain/model"
	"github.com/okian/jury/internal/domain/ranking"
	"github.com/okian/jury/internal/domain/scoring"
	"github.com/okian/jury/pkg/metrics"
)

// CategoryBoard is the ranked standing of one category.
type CategoryBoard struct {
	Category model.Category  `json:"category"`
	Entries  []ranking.Entry `json:"entries"`
}

// Leaderboard is the ranked view of one stage.
type Leaderboard struct {
	Stage      model.Stage         `json:"stage"`
	Final      bool                `json:"final"`
	Categories []CategoryBoard     `json:"categories"`
	Summary    aggregation.Summary `json:"summary"`
}

// Leaderboard ranks the candidates in play at stageID per category. The
// Final and results stages rank finalists by their best pre-final category.
func (s *Service) Leaderboard(ctx context.Context, stageID string) (Leaderboard, error) {
	st, err := s.running()
	if err != nil {
		return Leaderboard{}, err
	}
	stage, err := st.GetStage(ctx, stageID)
	if err != nil {
		return Leaderboard{}, err
	}
	start := time.Now()
	defer func() {
		metrics.RecordRankingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	snap := st.Snapshot(ctx)
	seq := s.sequence(snap.Stages)
	board := Leaderboard{Stage: stage, Categories: make([]CategoryBoard, 0, len(snap.Categories))}

	var stageAssignments []model.Assignment
	for i := range snap.Assignments {
		if snap.Assignments[i].StageID == stageID {
			stageAssignments = append(stageAssignments, snap.Assignments[i])
		}
	}
	board.Summary = aggregation.Overall(stageAssignments)

	if seq.IsFinal(stageID) || stageID == s.resultsStage {
		board.Final = true
		view := ranking.NewFinalistView(s.preFinalStage, snap.Candidates, snap.Assignments)
		for _, cat := range snap.Categories {
			var entries []ranking.Entry
			for _, f := range view.Finalists() {
				if f.CategoryID != cat.ID {
					continue
				}
				e := ranking.Entry{
					CandidateID:    f.Candidate.ID,
					CandidateName:  f.Candidate.Name,
					CategoryID:     cat.ID,
					StageID:        stageID,
					Promoted:       f.Candidate.PromotedFrom(stageID),
					Winner:         f.Candidate.IsWinner,
					FinalizedCount: f.FinalizedCount,
					TotalCount:     f.TotalCount,
				}
				if f.Scored {
					e.Score = model.Float(f.Score)
				}
				entries = append(entries, e)
			}
			board.Categories = append(board.Categories, CategoryBoard{
				Category: cat,
				Entries:  ranking.RankCategory(cat.ID, stageID, entries),
			})
		}
		return board, nil
	}

	visible, err := seq.Visible(stageID, snap.Candidates)
	if err != nil {
		return Leaderboard{}, mapDomainError(err)
	}
	for _, cat := range snap.Categories {
		criteria := criteriaOf(snap.Criteria, stageID, cat.ID)
		var entries []ranking.Entry
		for i := range visible {
			c := &visible[i]
			if !c.InCategory(cat.ID) {
				continue
			}
			agg := aggregation.AggregateForCandidate(c.ID, stageID, cat.ID, stageAssignments, criteria)
			e := ranking.FromAggregate(agg)
			e.CandidateName = c.Name
			e.Promoted = c.PromotedFrom(stageID)
			entries = append(entries, e)
		}
		board.Categories = append(board.Categories, CategoryBoard{
			Category: cat,
			Entries:  ranking.RankCategory(cat.ID, stageID, entries),
		})
	}
	return board, nil
}

func criteriaOf(all []model.Criterion, stageID, categoryID string) []model.Criterion {
	var out []model.Criterion
	for _, c := range all {
		if c.StageID == stageID && c.CategoryID == categoryID {
			out = append(out, c)
		}
	}
	return out
}

// Finalists returns the Final stage standings derived from the pre-final
// stage, best score first.
func (s *Service) Finalists(ctx context.Context) ([]ranking.Finalist, error) {
	st, err := s.running()
	if err != nil {
		return nil, err
	}
	snap := st.Snapshot(ctx)
	return ranking.NewFinalistView(s.preFinalStage, snap.Candidates, snap.Assignments).Finalists(), nil
}

// CategoryWinner is a finalist other than the overall winner.
type CategoryWinner struct {
	Candidate  model.Candidate `json:"candidate"`
	CategoryID string          `json:"category_id,omitempty"`
	Score      *float64        `json:"score,omitempty"`
}

// Results is the closing view of the competition.
type Results struct {
	StageID           string           `json:"stage_id"`
	Winner            *model.Candidate `json:"winner,omitempty"`
	WinningCategoryID string           `json:"winning_category_id,omitempty"`
	CategoryWinners   []CategoryWinner `json:"category_winners"`
}

// Results lists the overall winner and the category winners.
func (s *Service) Results(ctx context.Context) (Results, error) {
	st, err := s.running()
	if err != nil {
		return Results{}, err
	}
	snap := st.Snapshot(ctx)
	out := Results{StageID: s.resultsStage, CategoryWinners: []CategoryWinner{}}
	if idx := ranking.CurrentWinner(snap.Candidates); idx >= 0 {
		w := snap.Candidates[idx].Clone()
		out.Winner = &w
		out.WinningCategoryID = w.WinningCategoryID
	}

	view := ranking.NewFinalistView(s.preFinalStage, snap.Candidates, snap.Assignments)
	scores := make(map[string]ranking.Finalist)
	for _, f := range view.Finalists() {
		scores[f.Candidate.ID] = f
	}
	for _, c := range ranking.CategoryWinners(s.preFinalStage, snap.Candidates) {
		cw := CategoryWinner{Candidate: c}
		if f, ok := scores[c.ID]; ok {
			cw.CategoryID = f.CategoryID
			if f.Scored {
				cw.Score = model.Float(f.Score)
			}
		}
		out.CategoryWinners = append(out.CategoryWinners, cw)
	}
	return out, nil
}

// WeightWarnings lists every (stage, category) whose criteria weights do not
// sum to 1. The check is advisory; scoring runs with whatever weights exist.
func (s *Service) WeightWarnings(ctx context.Context) ([]scoring.WeightWarning, error) {
	st, err := s.running()
	if err != nil {
		return nil, err
	}
	warnings := scoring.CheckWeights(st.ListCriteria(ctx), s.weightTolerance)
	metrics.UpdateWeightWarnings(len(warnings))
	if warnings == nil {
		warnings = []scoring.WeightWarning{}
	}
	return warnings, nil
}

// AuditPage is one page of the audit log, newest first.
type AuditPage struct {
	Entries []model.AuditLog `json:"entries"`
	Total   int              `json:"total"`
	Offset  int              `json:"offset"`
	Limit   int              `json:"limit"`
}

// AuditLogs pages through the audit log. The limit is capped by the
// configured maximum page size.
func (s *Service) AuditLogs(ctx context.Context, f repository.AuditFilter) (AuditPage, error) { //nolint:gocritic // hugeParam: filters travel by value
	st, err := s.running()
	if err != nil {
		return AuditPage{}, err
	}
	if f.Limit <= 0 || f.Limit > s.maxAuditPage {
		f.Limit = s.maxAuditPage
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	entries, total := st.ListAudit(ctx, f)
	if entries == nil {
		entries = []model.AuditLog{}
	}
	return AuditPage{Entries: entries, Total: total, Offset: f.Offset, Limit: f.Limit}, nil
}
