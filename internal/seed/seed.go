// Package seed loads a demo competition through the service API.
package seed

import (
	"context"
	"fmt"

	service "github.com/okian/jury/internal/app"
	"github.com/okian/jury/internal/domain/model"
	"github.com/okian/jury/pkg/logger"
)

// AdminID is the actor recorded on every seeded mutation.
const AdminID = "a1"

// Target is the subset of the service the seed writes through.
type Target interface {
	CreateStage(ctx context.Context, actorID string, in service.StageInput) (model.Stage, error)
	CreateCategory(ctx context.Context, actorID string, in service.CategoryInput) (model.Category, error)
	CreateCriterion(ctx context.Context, actorID string, in service.CriterionInput) (model.Criterion, error)
	CreateCandidate(ctx context.Context, actorID string, in service.CandidateInput) (model.Candidate, error)
	CreateJudge(ctx context.Context, actorID string, in service.JudgeInput) (model.Judge, error)
	CreateAssignment(ctx context.Context, actorID string, in service.AssignmentInput) (model.Assignment, error)
	EnterScore(ctx context.Context, assignmentID string, e service.ScoreEntry) (model.Assignment, error)
	SubmitAssignment(ctx context.Context, actorID, assignmentID string, version *int64) (model.Assignment, error)
	Promote(ctx context.Context, actorID, candidateID, stageID string) (model.Candidate, bool, error)
}

var _ Target = (*service.Service)(nil)

type candidate struct {
	in         service.CandidateInput
	promotions []string
}

type evaluation struct {
	candidateID  string
	judgeID      string
	stageID      string
	categoryID   string
	scores       map[string]float64
	observations map[string]string
	// submit finalizes the assignment after scoring.
	submit bool
}

var stages = []service.StageInput{
	{ID: "etapa1", Name: "Etapa 1 - Validarea înscrierilor", Active: true},
	{ID: "etapa2", Name: "Etapa 2 - Etapa Preliminară", Active: true},
	{ID: "etapa3", Name: "Etapa 3 - Jurizarea Regională", Active: true},
	{ID: "etapa4", Name: "Etapa 4 - Jurizarea Națională", Active: true},
	{ID: "etapa5", Name: "Etapa 5 - Finala", Active: true},
	{ID: "etapa_finala", Name: "Clasament Final", Active: true},
}

var categories = []service.CategoryInput{
	{ID: "cat1", Name: "Directorul Anului pentru Inovare"},
	{ID: "cat2", Name: "Directorul Anului pentru Egalitate de Sanse"},
	{ID: "cat3", Name: "Directorul Anului pentru Antreprenoriat"},
}

var criteria = []service.CriterionInput{
	{ID: "crit1_reg", StageID: "etapa3", CategoryID: "cat1", Name: "Viziune Strategică Regională", Weight: 0.4, ScoreMin: 1, ScoreMax: 100},
	{ID: "crit2_reg", StageID: "etapa3", CategoryID: "cat1", Name: "Impact Comunitar Local", Weight: 0.6, ScoreMin: 1, ScoreMax: 100},
	{ID: "crit3_reg", StageID: "etapa3", CategoryID: "cat2", Name: "Performanță Academică Locală", Weight: 0.5, ScoreMin: 1, ScoreMax: 100},
	{ID: "crit4_reg", StageID: "etapa3", CategoryID: "cat2", Name: "Dezvoltare Profesională Cadre", Weight: 0.5, ScoreMin: 1, ScoreMax: 100},
	{ID: "crit5_reg", StageID: "etapa3", CategoryID: "cat3", Name: "Inițiative Antreprenoriale Locale", Weight: 0.7, ScoreMin: 1, ScoreMax: 100},
	{ID: "crit6_reg", StageID: "etapa3", CategoryID: "cat3", Name: "Parteneriate cu Mediul de Afaceri", Weight: 0.3, ScoreMin: 1, ScoreMax: 100},

	{ID: "crit1_nat", StageID: "etapa4", CategoryID: "cat1", Name: "Inovație la Nivel Național", Weight: 0.5, ScoreMin: 1, ScoreMax: 100},
	{ID: "crit2_nat", StageID: "etapa4", CategoryID: "cat1", Name: "Sustenabilitate Proiect", Weight: 0.5, ScoreMin: 1, ScoreMax: 100},
	{ID: "crit3_nat", StageID: "etapa4", CategoryID: "cat2", Name: "Leadership Educațional Național", Weight: 0.6, ScoreMin: 1, ScoreMax: 100},
	{ID: "crit4_nat", StageID: "etapa4", CategoryID: "cat2", Name: "Contribuție la Politici Educaționale", Weight: 0.4, ScoreMin: 1, ScoreMax: 100},
	{ID: "crit5_nat", StageID: "etapa4", CategoryID: "cat3", Name: "Scalabilitate Model Antreprenorial", Weight: 0.6, ScoreMin: 1, ScoreMax: 100},
	{ID: "crit6_nat", StageID: "etapa4", CategoryID: "cat3", Name: "Impact Economic Național", Weight: 0.4, ScoreMin: 1, ScoreMax: 100},

	{ID: "crit1_fin_cat1", StageID: "etapa5", CategoryID: "cat1", Name: "Prezentare Finală", Weight: 0.5, ScoreMin: 1, ScoreMax: 100},
	{ID: "crit2_fin_cat1", StageID: "etapa5", CategoryID: "cat1", Name: "Viziune și Impact Strategic", Weight: 0.5, ScoreMin: 1, ScoreMax: 100},
	{ID: "crit1_fin_cat2", StageID: "etapa5", CategoryID: "cat2", Name: "Prezentare Finală", Weight: 0.5, ScoreMin: 1, ScoreMax: 100},
	{ID: "crit2_fin_cat2", StageID: "etapa5", CategoryID: "cat2", Name: "Viziune și Impact Strategic", Weight: 0.5, ScoreMin: 1, ScoreMax: 100},
	{ID: "crit1_fin_cat3", StageID: "etapa5", CategoryID: "cat3", Name: "Prezentare Finală", Weight: 0.5, ScoreMin: 1, ScoreMax: 100},
	{ID: "crit2_fin_cat3", StageID: "etapa5", CategoryID: "cat3", Name: "Viziune și Impact Strategic", Weight: 0.5, ScoreMin: 1, ScoreMax: 100},
}

var judges = []service.JudgeInput{
	{ID: "j1", Name: "Elena Popescu", Role: model.RoleJudge},
	{ID: "j2", Name: "Mihai Ionescu", Role: model.RoleJudge},
	{ID: "j3", Name: "Andreea Vasilescu", Role: model.RoleJudge},
	{ID: "j4", Name: "Cristian Stan", Role: model.RoleJudge},
	{ID: AdminID, Name: "Admin Principal", Role: model.RoleAdmin},
}

var through4 = []string{"etapa1", "etapa2", "etapa3", "etapa4"}

var candidates = []candidate{
	{in: service.CandidateInput{
		ID: "c1", Name: "Ana Georgescu", Title: "Directorul Anului pentru Inovare",
		School: `Liceul Teoretic "Ion Creangă"`, Region: "Bucuresti-Ilfov",
		CategoryIDs: []string{"cat1", "cat3"}, PhotoURL: "https://i.pravatar.cc/150?u=c1",
	}, promotions: through4},
	{in: service.CandidateInput{
		ID: "c3", Name: "Eva Matei", Title: "Directorul Anului pentru Inovare",
		School: `Colegiul Economic "Octav Onicescu"`, Region: "Nord-Est",
		CategoryIDs: []string{"cat1"}, PhotoURL: "https://i.pravatar.cc/150?u=c3",
	}, promotions: []string{"etapa1", "etapa2"}},
	{in: service.CandidateInput{
		ID: "c5", Name: "Carmen Stanciu", Title: "Directorul Anului pentru Inovare",
		School: `Școala Gimnazială "Avram Iancu"`, Region: "Nord-Vest",
		CategoryIDs: []string{"cat1"}, PhotoURL: "https://i.pravatar.cc/150?u=c5",
	}},
	{in: service.CandidateInput{
		ID: "c2", Name: "Bogdan Dumitrescu", Title: "Directorul Anului pentru Egalitate de Sanse",
		School: `Colegiul Național "Andrei Șaguna"`, Region: "Centru",
		CategoryIDs: []string{"cat2"}, PhotoURL: "https://i.pravatar.cc/150?u=c2",
	}, promotions: through4},
	{in: service.CandidateInput{
		ID: "c4", Name: "David Antonescu", Title: "Directorul Anului pentru Egalitate de Sanse",
		School: `Liceul Tehnologic "Constantin Brâncuși"`, Region: "Sud-Vest Oltenia",
		CategoryIDs: []string{"cat2"}, PhotoURL: "https://i.pravatar.cc/150?u=c4",
	}, promotions: []string{"etapa1", "etapa2", "etapa3"}},
	{in: service.CandidateInput{
		ID: "c6", Name: "Mihai Popa", Title: "Directorul Anului pentru Antreprenoriat",
		School: `Liceul de Arte "Hariclea Darclée"`, Region: "Sud-Est",
		CategoryIDs: []string{"cat3"}, PhotoURL: "https://i.pravatar.cc/150?u=c6",
	}, promotions: through4},
}

func done(candidateID, judgeID, stageID, categoryID string, scores map[string]float64) evaluation {
	return evaluation{
		candidateID: candidateID, judgeID: judgeID, stageID: stageID, categoryID: categoryID,
		scores: scores, submit: true,
	}
}

func pending(candidateID, judgeID, stageID, categoryID string) evaluation {
	return evaluation{candidateID: candidateID, judgeID: judgeID, stageID: stageID, categoryID: categoryID}
}

var evaluations = []evaluation{
	{
		candidateID: "c1", judgeID: "j1", stageID: "etapa3", categoryID: "cat1",
		scores:       map[string]float64{"crit1_reg": 85, "crit2_reg": 90},
		observations: map[string]string{"crit1_reg": "Foarte bine!"},
		submit:       true,
	},
	done("c1", "j2", "etapa3", "cat1", map[string]float64{"crit1_reg": 80, "crit2_reg": 82}),
	done("c2", "j1", "etapa3", "cat2", map[string]float64{"crit3_reg": 95, "crit4_reg": 92}),
	done("c2", "j3", "etapa3", "cat2", map[string]float64{"crit3_reg": 92, "crit4_reg": 88}),
	pending("c3", "j2", "etapa3", "cat1"),
	pending("c3", "j4", "etapa3", "cat1"),
	done("c4", "j3", "etapa3", "cat2", map[string]float64{"crit3_reg": 88, "crit4_reg": 90}),
	done("c6", "j4", "etapa3", "cat3", map[string]float64{"crit5_reg": 95, "crit6_reg": 88}),

	done("c1", "j1", "etapa4", "cat1", map[string]float64{"crit1_nat": 92, "crit2_nat": 94}),
	done("c1", "j2", "etapa4", "cat1", map[string]float64{"crit1_nat": 90, "crit2_nat": 95}),
	done("c2", "j3", "etapa4", "cat2", map[string]float64{"crit3_nat": 98, "crit4_nat": 95}),
	done("c2", "j4", "etapa4", "cat2", map[string]float64{"crit3_nat": 96, "crit4_nat": 94}),
	done("c4", "j1", "etapa4", "cat2", map[string]float64{"crit3_nat": 94, "crit4_nat": 92}),
	done("c4", "j2", "etapa4", "cat2", map[string]float64{"crit3_nat": 92, "crit4_nat": 90}),
	done("c6", "j3", "etapa4", "cat3", map[string]float64{"crit5_nat": 95, "crit6_nat": 91}),
	done("c6", "j4", "etapa4", "cat3", map[string]float64{"crit5_nat": 94, "crit6_nat": 90}),

	pending("c1", "j1", "etapa5", "cat1"),
	pending("c1", "j2", "etapa5", "cat1"),
	pending("c2", "j3", "etapa5", "cat2"),
	pending("c2", "j4", "etapa5", "cat2"),
	pending("c6", "j1", "etapa5", "cat3"),
	pending("c6", "j4", "etapa5", "cat3"),
}

// Load writes the demo competition into t. It fails on the first error, so
// it expects an empty store.
func Load(ctx context.Context, t Target) error {
	log := logger.Get().Named("seed")

	for _, in := range stages {
		if _, err := t.CreateStage(ctx, AdminID, in); err != nil {
			return fmt.Errorf("seed stage %s: %w", in.ID, err)
		}
	}
	for _, in := range categories {
		if _, err := t.CreateCategory(ctx, AdminID, in); err != nil {
			return fmt.Errorf("seed category %s: %w", in.ID, err)
		}
	}
	for _, in := range criteria {
		if _, err := t.CreateCriterion(ctx, AdminID, in); err != nil {
			return fmt.Errorf("seed criterion %s: %w", in.ID, err)
		}
	}
	for _, in := range judges {
		if _, err := t.CreateJudge(ctx, AdminID, in); err != nil {
			return fmt.Errorf("seed judge %s: %w", in.ID, err)
		}
	}
	for _, c := range candidates {
		if _, err := t.CreateCandidate(ctx, AdminID, c.in); err != nil {
			return fmt.Errorf("seed candidate %s: %w", c.in.ID, err)
		}
		for _, stageID := range c.promotions {
			if _, _, err := t.Promote(ctx, AdminID, c.in.ID, stageID); err != nil {
				return fmt.Errorf("seed promotion %s/%s: %w", c.in.ID, stageID, err)
			}
		}
	}
	for i := range evaluations {
		if err := evaluate(ctx, t, &evaluations[i]); err != nil {
			return err
		}
	}

	log.Info(ctx, "demo competition loaded",
		logger.Int("stages", len(stages)),
		logger.Int("categories", len(categories)),
		logger.Int("criteria", len(criteria)),
		logger.Int("candidates", len(candidates)),
		logger.Int("judges", len(judges)),
		logger.Int("assignments", len(evaluations)),
	)
	return nil
}

func evaluate(ctx context.Context, t Target, ev *evaluation) error {
	a, err := t.CreateAssignment(ctx, AdminID, service.AssignmentInput{
		CandidateID: ev.candidateID,
		JudgeID:     ev.judgeID,
		StageID:     ev.stageID,
		CategoryID:  ev.categoryID,
	})
	if err != nil {
		return fmt.Errorf("seed assignment %s/%s/%s: %w", ev.candidateID, ev.judgeID, ev.stageID, err)
	}
	// Criteria are walked in declaration order so seeded versions are stable.
	for _, crit := range criteria {
		score, ok := ev.scores[crit.ID]
		if !ok {
			continue
		}
		entry := service.ScoreEntry{CriterionID: crit.ID, Score: model.Float(score)}
		if note, ok := ev.observations[crit.ID]; ok {
			entry.Observation = &note
		}
		if _, err := t.EnterScore(ctx, a.ID, entry); err != nil {
			return fmt.Errorf("seed score %s on %s: %w", crit.ID, a.ID, err)
		}
	}
	if !ev.submit {
		return nil
	}
	if _, err := t.SubmitAssignment(ctx, ev.judgeID, a.ID, nil); err != nil {
		return fmt.Errorf("seed submit %s: %w", a.ID, err)
	}
	return nil
}
