package model_test

import (
	"testing"
	"time"

	"github.com/okian/jury/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAssignmentStatusMachine(t *testing.T) {
	now := time.Date(2025, 10, 15, 10, 0, 0, 0, time.UTC)
	key := model.AssignmentKey{CandidateID: "c1", JudgeID: "j1", StageID: "etapa3", CategoryID: "cat1"}

	Convey("Given a new assignment", t, func() {
		a := model.NewAssignment(key, now)

		Convey("Then it starts NotStarted without a final score", func() {
			So(a.Status, ShouldEqual, model.StatusNotStarted)
			So(a.FinalScore, ShouldBeNil)
			So(a.Key(), ShouldResemble, key)
		})

		Convey("When the first score is entered", func() {
			a.SetScore("crit1_reg", 85, now.Add(time.Minute))

			Convey("Then it moves to InProgress and bumps its version", func() {
				So(a.Status, ShouldEqual, model.StatusInProgress)
				So(a.Scores["crit1_reg"], ShouldEqual, 85)
				So(a.Version, ShouldEqual, 1)
				So(a.LastModified, ShouldEqual, now.Add(time.Minute))
				So(a.IsFinalized(), ShouldBeFalse)
			})

			Convey("And it is finalized", func() {
				So(a.Finalize(85, now), ShouldBeNil)

				Convey("Then the final score is set", func() {
					So(a.Status, ShouldEqual, model.StatusFinalized)
					So(*a.FinalScore, ShouldEqual, 85)
					So(a.IsFinalized(), ShouldBeTrue)
				})

				Convey("Then a second submit is rejected", func() {
					So(a.Finalize(90, now), ShouldEqual, model.ErrAlreadyFinalized)
					So(*a.FinalScore, ShouldEqual, 85)
				})

				Convey("Then later corrections keep it finalized", func() {
					a.SetScore("crit1_reg", 70, now)
					a.Rescore(70, now)
					So(a.Status, ShouldEqual, model.StatusFinalized)
					So(*a.FinalScore, ShouldEqual, 70)
				})
			})
		})

		Convey("When rescoring an unfinished assignment", func() {
			a.Rescore(50, now)

			Convey("Then the final score stays undefined", func() {
				So(a.FinalScore, ShouldBeNil)
			})
		})

		Convey("When observations are set and cleared", func() {
			a.SetObservation("crit1_reg", "Very good", now)
			So(a.Observations["crit1_reg"], ShouldEqual, "Very good")
			a.SetObservation("crit1_reg", "", now)

			Convey("Then the empty text removes the entry", func() {
				_, ok := a.Observations["crit1_reg"]
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When cloned", func() {
			a.SetScore("crit1_reg", 85, now)
			c := a.Clone()
			c.Scores["crit1_reg"] = 1

			Convey("Then the copy does not alias the original", func() {
				So(a.Scores["crit1_reg"], ShouldEqual, 85)
			})
		})
	})
}

func TestCandidateHelpers(t *testing.T) {
	Convey("Given a candidate in two categories", t, func() {
		c := model.Candidate{ID: "c1", CategoryIDs: []string{"cat1", "cat3"}, Promotions: map[string]bool{"etapa3": true}}

		So(c.InCategory("cat3"), ShouldBeTrue)
		So(c.InCategory("cat2"), ShouldBeFalse)
		So(c.PromotedFrom("etapa3"), ShouldBeTrue)
		So(c.PromotedFrom("etapa4"), ShouldBeFalse)

		Convey("When cloned and mutated", func() {
			cp := c.Clone()
			cp.Promotions["etapa4"] = true
			cp.CategoryIDs[0] = "x"

			Convey("Then the original is untouched", func() {
				So(c.PromotedFrom("etapa4"), ShouldBeFalse)
				So(c.CategoryIDs[0], ShouldEqual, "cat1")
			})
		})
	})
}
