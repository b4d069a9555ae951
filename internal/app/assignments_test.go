package service_test

import (
	"context"
	"errors"
	"testing"

	service "github.com/okian/jury/internal/app"
	"github.com/okian/jury/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestService_Assignments(t *testing.T) {
	Convey("Given a seeded competition", t, func() {
		svc, rec := newService(t)
		seedCompetition(t, svc)
		ctx := context.Background()

		in := service.AssignmentInput{CandidateID: "A", JudgeID: "j1", StageID: "etapa4", CategoryID: "cat1"}
		a, err := svc.CreateAssignment(ctx, admin, in)
		So(err, ShouldBeNil)
		So(a.Status, ShouldEqual, model.StatusNotStarted)

		Convey("A duplicate tuple is rejected without a write or an audit entry", func() {
			before := rec.len()
			_, err := svc.CreateAssignment(ctx, admin, in)
			So(errors.Is(err, service.ErrDuplicate), ShouldBeTrue)
			So(rec.len(), ShouldEqual, before)
			all, _ := svc.ListAssignments(ctx, service.AssignmentFilter{})
			So(len(all), ShouldEqual, 1)
		})

		Convey("A candidate outside the category cannot be assigned", func() {
			_, err := svc.CreateAssignment(ctx, admin, service.AssignmentInput{
				CandidateID: "A", JudgeID: "j1", StageID: "etapa4", CategoryID: "cat2",
			})
			So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
		})

		Convey("The first score moves the assignment to in progress", func() {
			out, err := svc.EnterScore(ctx, a.ID, service.ScoreEntry{CriterionID: "k1", Score: model.Float(80)})
			So(err, ShouldBeNil)
			So(out.Status, ShouldEqual, model.StatusInProgress)
			So(out.Scores["k1"], ShouldEqual, 80)
			So(out.FinalScore, ShouldBeNil)
			So(out.Version, ShouldBeGreaterThan, a.Version)
		})

		Convey("A score outside the criterion range is rejected", func() {
			_, err := svc.EnterScore(ctx, a.ID, service.ScoreEntry{CriterionID: "k1", Score: model.Float(101)})
			So(errors.Is(err, service.ErrOutOfBounds), ShouldBeTrue)
			got, _ := svc.GetAssignment(ctx, a.ID)
			So(got.Status, ShouldEqual, model.StatusNotStarted)
		})

		Convey("A criterion of another stage does not apply", func() {
			_, err := svc.EnterScore(ctx, a.ID, service.ScoreEntry{CriterionID: "k3", Score: model.Float(5)})
			So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
		})

		Convey("An observation alone keeps the status", func() {
			note := "strong opening"
			out, err := svc.EnterScore(ctx, a.ID, service.ScoreEntry{CriterionID: "k2", Observation: &note})
			So(err, ShouldBeNil)
			So(out.Observations["k2"], ShouldEqual, note)
			So(out.Status, ShouldEqual, model.StatusNotStarted)
		})

		Convey("A stale version is a conflict", func() {
			_, err := svc.EnterScore(ctx, a.ID, service.ScoreEntry{CriterionID: "k1", Score: model.Float(50)})
			So(err, ShouldBeNil)
			stale := a.Version
			_, err = svc.EnterScore(ctx, a.ID, service.ScoreEntry{CriterionID: "k1", Score: model.Float(60), Version: &stale})
			So(errors.Is(err, service.ErrConflict), ShouldBeTrue)
		})

		Convey("Submitting a partial evaluation ignores unscored criteria", func() {
			_, err := svc.EnterScore(ctx, a.ID, service.ScoreEntry{CriterionID: "k1", Score: model.Float(80)})
			So(err, ShouldBeNil)
			out, err := svc.SubmitAssignment(ctx, "j1", a.ID, nil)
			So(err, ShouldBeNil)
			So(out.Status, ShouldEqual, model.StatusFinalized)
			So(*out.FinalScore, ShouldAlmostEqual, 32)
		})

		Convey("When fully scored and submitted", func() {
			_, err := svc.EnterScore(ctx, a.ID, service.ScoreEntry{CriterionID: "k1", Score: model.Float(80)})
			So(err, ShouldBeNil)
			_, err = svc.EnterScore(ctx, a.ID, service.ScoreEntry{CriterionID: "k2", Score: model.Float(90)})
			So(err, ShouldBeNil)
			out, err := svc.SubmitAssignment(ctx, "j1", a.ID, nil)
			So(err, ShouldBeNil)

			Convey("The final score is the weighted sum", func() {
				So(out.Status, ShouldEqual, model.StatusFinalized)
				So(*out.FinalScore, ShouldAlmostEqual, 86)
				So(len(rec.byAction(model.ActionSubmitAssignment)), ShouldEqual, 1)
			})

			Convey("Judges can no longer edit or resubmit it", func() {
				_, err := svc.EnterScore(ctx, a.ID, service.ScoreEntry{CriterionID: "k1", Score: model.Float(10)})
				So(errors.Is(err, service.ErrFinalized), ShouldBeTrue)
				_, err = svc.SubmitAssignment(ctx, "j1", a.ID, nil)
				So(errors.Is(err, service.ErrFinalized), ShouldBeTrue)
			})

			Convey("An admin edit of a scored criterion needs a reason", func() {
				_, err := svc.AdminEditScores(ctx, admin, a.ID, service.AdminEdit{Scores: map[string]float64{"k1": 70}})
				So(errors.Is(err, service.ErrReasonRequired), ShouldBeTrue)
				So(rec.byAction(model.ActionAdminScoreEdit), ShouldBeEmpty)
			})

			Convey("An admin edit keeps the status and recomputes the final score", func() {
				out, err := svc.AdminEditScores(ctx, admin, a.ID, service.AdminEdit{
					Scores: map[string]float64{"k1": 70, "k2": 100},
					Reason: "transcription error",
				})
				So(err, ShouldBeNil)
				So(out.Status, ShouldEqual, model.StatusFinalized)
				So(*out.FinalScore, ShouldAlmostEqual, 88)

				edits := rec.byAction(model.ActionAdminScoreEdit)
				So(len(edits), ShouldEqual, 2)
				So(edits[0].Details.CriterionID, ShouldEqual, "k1")
				So(*edits[0].Details.OldScore, ShouldEqual, 80)
				So(*edits[0].Details.NewScore, ShouldEqual, 70)
				So(edits[1].Details.Reason, ShouldEqual, "transcription error")
			})

			Convey("An admin edit with unchanged values writes nothing", func() {
				before := rec.len()
				out, err := svc.AdminEditScores(ctx, admin, a.ID, service.AdminEdit{Scores: map[string]float64{"k1": 80}})
				So(err, ShouldBeNil)
				So(out.Version, ShouldEqual, 3)
				So(rec.len(), ShouldEqual, before)
			})
		})

		Convey("An admin may add a first score without a reason", func() {
			out, err := svc.AdminEditScores(ctx, admin, a.ID, service.AdminEdit{Scores: map[string]float64{"k2": 40}})
			So(err, ShouldBeNil)
			So(out.Status, ShouldEqual, model.StatusInProgress)
			So(*rec.byAction(model.ActionAdminScoreEdit)[0].Details.NewScore, ShouldEqual, 40)
		})

		Convey("An admin edit naming a foreign criterion is rejected", func() {
			_, err := svc.AdminEditScores(ctx, admin, a.ID, service.AdminEdit{Scores: map[string]float64{"k3": 5}, Reason: "x"})
			So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
		})

		Convey("Unassigning removes the assignment and audits its status", func() {
			So(svc.Unassign(ctx, admin, a.ID), ShouldBeNil)
			_, err := svc.GetAssignment(ctx, a.ID)
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
			del := rec.byAction(model.ActionDeleteAssignment)
			So(len(del), ShouldEqual, 1)
			So(del[0].Details.OldStatus, ShouldEqual, model.StatusNotStarted)
			So(del[0].Details.CandidateName, ShouldEqual, "Ana")
		})
	})
}

func TestService_ImportAssignments(t *testing.T) {
	Convey("Given a seeded competition with one existing assignment", t, func() {
		svc, rec := newService(t)
		seedCompetition(t, svc)
		ctx := context.Background()

		_, err := svc.CreateAssignment(ctx, admin, service.AssignmentInput{
			CandidateID: "C", JudgeID: "j1", StageID: "etapa2", CategoryID: "cat1",
		})
		So(err, ShouldBeNil)

		Convey("When importing pairs with good and bad rows", func() {
			sum, err := svc.ImportAssignments(ctx, admin, "etapa2", []service.ImportPair{
				{CandidateID: "A", JudgeID: "j1"},
				{CandidateID: "", JudgeID: "j1"},
				{CandidateID: "C", JudgeID: "j1"},
				{CandidateID: "Z", JudgeID: "j1"},
				{CandidateID: "B", JudgeID: "j9"},
			})
			So(err, ShouldBeNil)

			Convey("Each enrolled category gets one assignment and existing tuples are skipped", func() {
				So(sum.Created, ShouldEqual, 2)
				So(sum.Skipped, ShouldEqual, 1)
				So(len(rec.byAction(model.ActionImportAssignment)), ShouldEqual, 2)

				got, _ := svc.ListAssignments(ctx, service.AssignmentFilter{StageID: "etapa2", CandidateID: "C"})
				So(len(got), ShouldEqual, 2)
			})

			Convey("Bad rows are reported with sheet row numbers", func() {
				So(len(sum.Errors), ShouldEqual, 3)
				So(sum.Errors[0].Row, ShouldEqual, 3)
				So(sum.Errors[0].Message, ShouldContainSubstring, "missing")
				So(sum.Errors[1].Row, ShouldEqual, 5)
				So(sum.Errors[1].Message, ShouldContainSubstring, "invalid candidate")
				So(sum.Errors[2].Row, ShouldEqual, 6)
				So(sum.Errors[2].Message, ShouldContainSubstring, "invalid judge")
			})
		})

		Convey("Importing into an unknown stage is not found", func() {
			_, err := svc.ImportAssignments(ctx, admin, "nowhere", []service.ImportPair{{CandidateID: "A", JudgeID: "j1"}})
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})
	})
}
