package evaluate

import (
	"context"
	"fmt"

	"github.com/imadezze/ClassificationAlloBrain/internal/category"
	"github.com/imadezze/ClassificationAlloBrain/internal/classify"
	"github.com/imadezze/ClassificationAlloBrain/internal/llm"
	"github.com/imadezze/ClassificationAlloBrain/internal/prompts"
)

// Agreement is a judge's stated position on a classification.
type Agreement string

const (
	AgreementAgree    Agreement = "AGREE"
	AgreementDisagree Agreement = "DISAGREE"
	AgreementPartial  Agreement = "PARTIALLY_AGREE"
)

// Consensus summarizes multiple judges' agreements.
type Consensus string

const (
	ConsensusUnanimous Consensus = "unanimous_agreement"
	ConsensusMajority  Consensus = "majority_agreement"
	ConsensusNone      Consensus = "no_agreement"
	ConsensusMixed     Consensus = "mixed"
)

// Verdicts a judge report collapses to.
const (
	VerdictConfirmed     = "confirmed"
	VerdictLikelyCorrect = "likely correct"
	VerdictQuestionable  = "questionable - needs review"
)

// JudgeOpinion is one judge's assessment.
type JudgeOpinion struct {
	Model               string
	IndependentCategory string
	Agreement           Agreement
	Quality             string
	Reasoning           string
}

// JudgeReport aggregates all responding judges for one classification.
type JudgeReport struct {
	Value             string
	PredictedCategory string
	Opinions          []JudgeOpinion

	// JudgesAsked and JudgesResponded differ when some judges failed;
	// failed judges are excluded from the consensus rather than retried.
	JudgesAsked     int
	JudgesResponded int

	Consensus Consensus
	Verdict   string
}

// JudgeEvaluator asks independent, typically stronger models to re-judge a
// classification without seeing each other's answers.
type JudgeEvaluator struct {
	judges  []llm.Provider
	prompts *prompts.Store
}

// NewJudgeEvaluator creates a JudgeEvaluator over the given judge
// providers.
func NewJudgeEvaluator(judges []llm.Provider, store *prompts.Store) *JudgeEvaluator {
	return &JudgeEvaluator{judges: judges, prompts: store}
}

// Evaluate asks every judge to independently assess the prediction for
// value. A failing judge is dropped from the aggregate; all judges failing
// is an error.
func (e *JudgeEvaluator) Evaluate(ctx context.Context, columnName string, categories category.Set, value string, predicted *classify.Result) (*JudgeReport, error) {
	if len(e.judges) == 0 {
		return nil, fmt.Errorf("judge evaluation: no judges configured")
	}

	prompt, err := e.prompts.Format(prompts.JudgeEvaluation, map[string]any{
		"value":              value,
		"column_name":        columnName,
		"categories_text":    categoriesText(categories),
		"predicted_category": predicted.Category,
		"confidence":         predicted.Confidence,
	})
	if err != nil {
		return nil, err
	}

	req := llm.Request{
		System:      prompt.System,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt.User}},
		Schema:      judgeSchema(),
		MaxTokens:   prompt.Params.MaxTokens,
		Temperature: prompt.Params.Temperature,
	}
	ctx = llm.WithPurpose(ctx, "judge")

	report := &JudgeReport{
		Value:             value,
		PredictedCategory: predicted.Category,
		JudgesAsked:       len(e.judges),
	}

	for _, judge := range e.judges {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := judge.Generate(ctx, req)
		if err != nil {
			continue
		}

		var out struct {
			IndependentCategory string `json:"independent_category"`
			Agreement           string `json:"agreement"`
			Quality             string `json:"quality"`
			Reasoning           string `json:"reasoning"`
		}
		if err := llm.DecodeJSON(resp.Content, &out); err != nil {
			continue
		}

		report.Opinions = append(report.Opinions, JudgeOpinion{
			Model:               judge.ModelID(),
			IndependentCategory: out.IndependentCategory,
			Agreement:           Agreement(out.Agreement),
			Quality:             out.Quality,
			Reasoning:           out.Reasoning,
		})
	}

	report.JudgesResponded = len(report.Opinions)
	if report.JudgesResponded == 0 {
		return nil, fmt.Errorf("judge evaluation: all %d judges failed", report.JudgesAsked)
	}

	report.Consensus = consensusOf(report.Opinions)
	report.Verdict = verdictOf(report.Consensus)
	return report, nil
}

// consensusOf scores only the judges that responded.
func consensusOf(opinions []JudgeOpinion) Consensus {
	agree := 0
	for _, op := range opinions {
		if op.Agreement == AgreementAgree {
			agree++
		}
	}
	switch {
	case agree == len(opinions):
		return ConsensusUnanimous
	case agree*2 > len(opinions):
		return ConsensusMajority
	case agree == 0:
		return ConsensusNone
	default:
		return ConsensusMixed
	}
}

func verdictOf(c Consensus) string {
	switch c {
	case ConsensusUnanimous:
		return VerdictConfirmed
	case ConsensusMajority:
		return VerdictLikelyCorrect
	default:
		return VerdictQuestionable
	}
}

func categoriesText(set category.Set) string {
	out := ""
	for _, c := range set {
		out += "- " + c.Name
		if c.Description != "" {
			out += ": " + c.Description
		}
		out += "\n"
	}
	return out
}
