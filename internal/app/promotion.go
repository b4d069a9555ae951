package service

import (
	"context"
	"fmt"

	"github.com/okian/jury/internal/domain/model"
	"github.com/okian/jury/internal/domain/ranking"
	"github.com/okian/jury/pkg/logger"
	"github.com/okian/jury/pkg/metrics"
)

// Promote advances a candidate out of stageID. Promoting twice changes
// nothing and is audited once. The bool reports whether the flag changed.
func (s *Service) Promote(ctx context.Context, actorID, candidateID, stageID string) (model.Candidate, bool, error) {
	st, unlock, err := s.lockWrite()
	if err != nil {
		return model.Candidate{}, false, err
	}
	defer unlock()

	if _, err := st.GetStage(ctx, stageID); err != nil {
		return model.Candidate{}, false, err
	}
	c, err := st.GetCandidate(ctx, candidateID)
	if err != nil {
		return model.Candidate{}, false, err
	}
	if !ranking.Promote(&c, stageID) {
		return c, false, nil
	}
	if err := st.UpdateCandidate(ctx, c); err != nil {
		return model.Candidate{}, false, err
	}
	metrics.RecordPromotion(stageID)
	s.record(ctx, actorID, model.ActionPromote, model.AuditDetails{
		CandidateID:   c.ID,
		CandidateName: c.Name,
		StageID:       stageID,
		Reason:        fmt.Sprintf("promoted out of stage %s", stageID),
	})
	return c, true, nil
}

// DesignateOverallWinner sets the single overall winner and promotes the
// best other participant of the category at the pre-final stage. Both
// candidates are written together. A second call fails with ErrWinnerExists
// until RevokeWinner.
func (s *Service) DesignateOverallWinner(ctx context.Context, actorID, candidateID, categoryID string) (ranking.WinnerOutcome, error) {
	st, unlock, err := s.lockWrite()
	if err != nil {
		return ranking.WinnerOutcome{}, err
	}
	defer unlock()

	if _, err := st.GetCategory(ctx, categoryID); err != nil {
		return ranking.WinnerOutcome{}, err
	}
	snap := st.Snapshot(ctx)
	out, err := ranking.DesignateOverallWinner(candidateID, categoryID, ranking.WinnerContext{
		Candidates:      snap.Candidates,
		Assignments:     snap.Assignments,
		PreFinalStageID: s.preFinalStage,
		RunnerUpStageID: s.runnerUpStageID(),
	})
	if err != nil {
		return ranking.WinnerOutcome{}, mapDomainError(err)
	}

	changed := []model.Candidate{out.Winner}
	if out.RunnerUp != nil && out.RunnerUpPromoted {
		changed = append(changed, *out.RunnerUp)
	}
	if err := st.UpdateCandidates(ctx, changed); err != nil {
		return ranking.WinnerOutcome{}, err
	}

	metrics.RecordWinnerDesignated()
	s.record(ctx, actorID, model.ActionDesignateWinner, model.AuditDetails{
		CandidateID:   out.Winner.ID,
		CandidateName: out.Winner.Name,
		CategoryID:    categoryID,
		StageID:       s.finalStage,
		Reason:        fmt.Sprintf("overall winner in category %s", categoryID),
	})
	if out.RunnerUp != nil && out.RunnerUpPromoted {
		metrics.RecordRunnerUpPromotion()
		metrics.RecordPromotion(out.RunnerUpStageID)
		s.record(ctx, actorID, model.ActionRunnerUpPromotion, model.AuditDetails{
			CandidateID:   out.RunnerUp.ID,
			CandidateName: out.RunnerUp.Name,
			CategoryID:    categoryID,
			StageID:       out.RunnerUpStageID,
			NewScore:      out.RunnerUpScore,
			Reason:        fmt.Sprintf("runner-up promoted after %q won the overall prize", out.Winner.Name),
		})
	}
	s.logger.Info(ctx, "overall winner designated",
		logger.String("candidate", out.Winner.ID),
		logger.String("category", categoryID),
		logger.Bool("runnerUpPromoted", out.RunnerUpPromoted),
	)
	return out, nil
}

// RevokeWinner clears the overall winner. The runner-up keeps the promotion
// it received. It returns the former winner.
func (s *Service) RevokeWinner(ctx context.Context, actorID string) (model.Candidate, error) {
	st, unlock, err := s.lockWrite()
	if err != nil {
		return model.Candidate{}, err
	}
	defer unlock()

	cands := st.ListCandidates(ctx)
	prev, err := ranking.RevokeWinner(cands)
	if err != nil {
		return model.Candidate{}, mapDomainError(err)
	}
	cleared := prev.Clone()
	cleared.IsWinner = false
	cleared.WinningCategoryID = ""
	if err := st.UpdateCandidate(ctx, cleared); err != nil {
		return model.Candidate{}, err
	}
	metrics.RecordWinnerRevoked()
	s.record(ctx, actorID, model.ActionRevokeWinner, model.AuditDetails{
		CandidateID:   prev.ID,
		CandidateName: prev.Name,
		CategoryID:    prev.WinningCategoryID,
		Field:         "is_winner",
		OldValue:      "true",
		NewValue:      "false",
		Reason:        "overall winner revoked",
	})
	return prev, nil
}
