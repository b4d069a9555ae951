package scoring_test

import (
	"math"
	"testing"

	"github.com/okian/jury/internal/domain/model"
	scoring "github.com/okian/jury/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func criteria() []model.Criterion {
	return []model.Criterion{
		{ID: "A", StageID: "etapa1", CategoryID: "cat1", Weight: 0.4, ScoreMin: 0, ScoreMax: 100},
		{ID: "B", StageID: "etapa1", CategoryID: "cat1", Weight: 0.6, ScoreMin: 0, ScoreMax: 100},
		{ID: "C", StageID: "etapa1", CategoryID: "cat1", Weight: 0.5, ScoreMin: 0, ScoreMax: 100},
	}
}

func TestComputeFinalScore(t *testing.T) {
	Convey("Given criteria A(.4) and B(.6)", t, func() {
		crit := criteria()[:2]

		Convey("When every criterion is scored", func() {
			scores := map[string]float64{"A": 80, "B": 90}

			Convey("Then the result is the weighted sum", func() {
				So(scoring.ComputeFinalScore(scores, crit), ShouldAlmostEqual, 86, 1e-9)
			})

			Convey("Then it lies between the smallest and largest raw score", func() {
				got := scoring.ComputeFinalScore(scores, crit)
				So(got, ShouldBeGreaterThanOrEqualTo, 80)
				So(got, ShouldBeLessThanOrEqualTo, 90)
			})
		})

		Convey("When the scores map is empty", func() {
			Convey("Then the result is zero", func() {
				So(scoring.ComputeFinalScore(map[string]float64{}, crit), ShouldEqual, 0)
				So(scoring.ComputeFinalScore(nil, crit), ShouldEqual, 0)
			})
		})

		Convey("When a scored criterion has zero weight", func() {
			zero := []model.Criterion{{ID: "Z", Weight: 0}}

			Convey("Then the result is zero", func() {
				So(scoring.ComputeFinalScore(map[string]float64{"Z": 77}, zero), ShouldEqual, 0)
			})
		})

		Convey("When a score is out of range", func() {
			Convey("Then no clamping happens", func() {
				So(scoring.ComputeFinalScore(map[string]float64{"A": 200, "B": 100}, crit), ShouldAlmostEqual, 140, 1e-9)
			})
		})

		Convey("When scores reference unknown criteria", func() {
			Convey("Then they are ignored", func() {
				So(scoring.ComputeFinalScore(map[string]float64{"A": 50, "X": 100}, crit), ShouldAlmostEqual, 20, 1e-9)
			})
		})
	})
}

func TestPartialScoring(t *testing.T) {
	Convey("Given A(.4) and B(.6) scored and C unscored", t, func() {
		crit := criteria()
		scores := map[string]float64{"A": 80, "B": 90}

		Convey("Then the unscored criterion does not change the result", func() {
			So(scoring.ComputeFinalScore(scores, crit), ShouldAlmostEqual, 86, 1e-9)
			So(scoring.ComputeNormalized(scores, crit), ShouldAlmostEqual, 86, 1e-9)
		})

		Convey("When only A is scored", func() {
			only := map[string]float64{"A": 80}

			Convey("Then normalized mode rescales by the scored weight", func() {
				So(scoring.ComputeNormalized(only, crit), ShouldAlmostEqual, 80, 1e-9)
				So(scoring.ComputeFinalScore(only, crit), ShouldAlmostEqual, 32, 1e-9)
			})
		})
	})
}

func TestScorer(t *testing.T) {
	Convey("Given a scorer", t, func() {
		crit := criteria()[:2]
		only := map[string]float64{"B": 50}

		Convey("When created without options", func() {
			s := scoring.NewScorer()

			Convey("Then it uses the weighted sum", func() {
				So(s.Mode(), ShouldEqual, scoring.ModeWeightedSum)
				So(s.Score(only, crit), ShouldAlmostEqual, 30, 1e-9)
			})
		})

		Convey("When created in normalized mode", func() {
			s := scoring.NewScorer(scoring.WithMode(scoring.ModeNormalized))

			Convey("Then partial scores are rescaled", func() {
				So(s.Score(only, crit), ShouldAlmostEqual, 50, 1e-9)
			})
		})

		Convey("When given an unknown mode", func() {
			s := scoring.NewScorer(scoring.WithMode("median"))

			Convey("Then the default is kept", func() {
				So(s.Mode(), ShouldEqual, scoring.ModeWeightedSum)
			})
		})
	})

	Convey("Given mode strings from config", t, func() {
		m, err := scoring.ParseMode("normalized")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, scoring.ModeNormalized)

		m, err = scoring.ParseMode("")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, scoring.ModeWeightedSum)

		_, err = scoring.ParseMode("median")
		So(err, ShouldEqual, scoring.ErrUnknownMode)
	})
}

func TestBounds(t *testing.T) {
	Convey("Given a criterion bounded to [1, 10]", t, func() {
		c := model.Criterion{ID: "A", ScoreMin: 1, ScoreMax: 10}

		So(scoring.InBounds(c, 1), ShouldBeTrue)
		So(scoring.InBounds(c, 10), ShouldBeTrue)
		So(scoring.InBounds(c, 0.5), ShouldBeFalse)
		So(scoring.InBounds(c, 11), ShouldBeFalse)
		So(scoring.InBounds(c, math.NaN()), ShouldBeFalse)

		So(scoring.Clamp(c, -3), ShouldEqual, 1)
		So(scoring.Clamp(c, 30), ShouldEqual, 10)
		So(scoring.Clamp(c, 7), ShouldEqual, 7)
	})
}

func TestCheckWeights(t *testing.T) {
	Convey("Given criteria across two groups", t, func() {
		crit := []model.Criterion{
			{ID: "a", StageID: "etapa1", CategoryID: "cat1", Weight: 0.3},
			{ID: "b", StageID: "etapa1", CategoryID: "cat2", Weight: 0.5},
			{ID: "c", StageID: "etapa1", CategoryID: "cat1", Weight: 0.7},
			{ID: "d", StageID: "etapa1", CategoryID: "cat2", Weight: 0.2},
		}

		Convey("When checking weights", func() {
			warnings := scoring.CheckWeights(crit, 0)

			Convey("Then only the group that does not sum to one is reported", func() {
				So(warnings, ShouldHaveLength, 1)
				So(warnings[0].CategoryID, ShouldEqual, "cat2")
				So(warnings[0].Sum, ShouldAlmostEqual, 0.7, 1e-9)
				So(warnings[0].Criteria, ShouldEqual, 2)
			})
		})

		Convey("Then WeightSum totals a single group", func() {
			So(scoring.WeightSum(crit, "etapa1", "cat1"), ShouldAlmostEqual, 1, 1e-9)
			So(scoring.WeightSum(crit, "etapa9", "cat1"), ShouldEqual, 0)
		})

		Convey("When the tolerance is wide", func() {
			Convey("Then nothing is reported", func() {
				So(scoring.CheckWeights(crit, 0.5), ShouldBeEmpty)
			})
		})
	})
}
