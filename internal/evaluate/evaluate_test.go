package evaluate

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/imadezze/ClassificationAlloBrain/internal/category"
	"github.com/imadezze/ClassificationAlloBrain/internal/classify"
	"github.com/imadezze/ClassificationAlloBrain/internal/llm"
	"github.com/imadezze/ClassificationAlloBrain/internal/prompts"
)

func testTask() classify.Task {
	return classify.Task{
		SessionID:  "s1",
		ColumnName: "ticket",
		Categories: category.Set{
			{Name: "Billing", Description: "payment issues", Boundary: "charges"},
			{Name: "Tech Support", Description: "malfunctions", Boundary: "crashes"},
		},
	}
}

func classifierAnswer(cat string) llm.MockResponse {
	content, _ := json.Marshal(map[string]string{
		"category": cat, "confidence": "high", "reasoning": "r",
	})
	return llm.MockResponse{Content: content}
}

func TestConsistency_HighAgreement(t *testing.T) {
	mock := llm.NewRepeatingMockProvider(classifierAnswer("Billing"))
	e := NewConsistencyEvaluator(classify.NewClassifier(mock, prompts.NewStore("")))

	report, err := e.Evaluate(context.Background(), testTask(), "charged twice", nil, 0)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if report.TotalRuns != len(DefaultTemperatures)*DefaultRunsPerTemperature {
		t.Errorf("TotalRuns = %d", report.TotalRuns)
	}
	if report.AgreementRate != 1.0 || report.Band != BandHigh {
		t.Errorf("got rate %v band %q", report.AgreementRate, report.Band)
	}
	if report.TopCategory != "Billing" {
		t.Errorf("TopCategory = %q", report.TopCategory)
	}
}

func TestConsistency_SweepsTemperatures(t *testing.T) {
	mock := llm.NewRepeatingMockProvider(classifierAnswer("Billing"))
	e := NewConsistencyEvaluator(classify.NewClassifier(mock, prompts.NewStore("")))

	_, err := e.Evaluate(context.Background(), testTask(), "x", []float64{0.0, 0.5}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(mock.Calls) != 4 {
		t.Fatalf("made %d calls, want 4", len(mock.Calls))
	}
	temps := []float64{mock.Calls[0].Temperature, mock.Calls[2].Temperature}
	if temps[0] != 0.0 || temps[1] != 0.5 {
		t.Errorf("temperatures = %v, want sweep 0.0 then 0.5", temps)
	}
}

func TestConsistency_LowAgreementFlagsForReview(t *testing.T) {
	// Cycle of 3 distinct answers over 6 runs: modal count 2/6 = 0.33.
	mock := llm.NewRepeatingMockProvider(
		classifierAnswer("Billing"),
		classifierAnswer("Tech Support"),
		classifierAnswer("Feedback"),
	)
	e := NewConsistencyEvaluator(classify.NewClassifier(mock, prompts.NewStore("")))

	report, err := e.Evaluate(context.Background(), testTask(), "x", []float64{0.0, 0.3, 0.7}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if report.Band != BandLow {
		t.Errorf("Band = %q, want low for rate %v", report.Band, report.AgreementRate)
	}
	if report.Recommendation == "" {
		t.Error("low band should carry a recommendation")
	}
}

func TestConsistency_PartialFailuresTolerated(t *testing.T) {
	mock := llm.NewRepeatingMockProvider(
		classifierAnswer("Billing"),
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{}},
	)
	e := NewConsistencyEvaluator(classify.NewClassifier(mock, prompts.NewStore("")))

	report, err := e.Evaluate(context.Background(), testTask(), "x", []float64{0.0}, 4)
	if err != nil {
		t.Fatalf("partial failures should not abort: %v", err)
	}
	// 2 of 4 runs succeeded, both Billing: rate 0.5.
	if report.AgreementRate != 0.5 {
		t.Errorf("AgreementRate = %v, want 0.5", report.AgreementRate)
	}
}

func TestConsistency_AllRunsFailed(t *testing.T) {
	mock := llm.NewRepeatingMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	e := NewConsistencyEvaluator(classify.NewClassifier(mock, prompts.NewStore("")))

	if _, err := e.Evaluate(context.Background(), testTask(), "x", []float64{0.0}, 2); err == nil {
		t.Fatal("expected error when every run fails")
	}
}

func syntheticExamples(texts ...string) llm.MockResponse {
	examples := make([]map[string]string, len(texts))
	for i, text := range texts {
		examples[i] = map[string]string{"text": text, "difficulty": "easy"}
	}
	content, _ := json.Marshal(map[string]any{"examples": examples})
	return llm.MockResponse{Content: content}
}

func TestSynthetic_AllCorrect(t *testing.T) {
	generator := llm.NewMockProvider(syntheticExamples("charged twice", "refund me"))
	classifierMock := llm.NewRepeatingMockProvider(classifierAnswer("Billing"))
	e := NewSyntheticEvaluator(generator, classify.NewClassifier(classifierMock, prompts.NewStore("")), prompts.NewStore(""))

	report, err := e.Evaluate(context.Background(), testTask(), testTask().Categories[0], 2)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if report.Accuracy != 100 || report.Band != AccuracyExcellent {
		t.Errorf("got accuracy %v band %q", report.Accuracy, report.Band)
	}
	if len(report.Examples) != 2 || !report.Examples[0].Correct {
		t.Errorf("examples = %+v", report.Examples)
	}
}

func TestSynthetic_MisclassificationsAndErrorsCountAgainst(t *testing.T) {
	generator := llm.NewMockProvider(syntheticExamples("a", "b", "c", "d"))
	classifierMock := llm.NewMockProvider(
		classifierAnswer("Billing"),
		classifierAnswer("Billing"),
		classifierAnswer("Tech Support"),
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{}},
	)
	e := NewSyntheticEvaluator(generator, classify.NewClassifier(classifierMock, prompts.NewStore("")), prompts.NewStore(""))

	report, err := e.Evaluate(context.Background(), testTask(), testTask().Categories[0], 4)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if report.Accuracy != 50 || report.Band != AccuracyPoor {
		t.Errorf("got accuracy %v band %q", report.Accuracy, report.Band)
	}
	if report.Examples[3].Err == nil {
		t.Error("classification error should be recorded on the example")
	}
}

func TestSynthetic_GeneratorFailure(t *testing.T) {
	generator := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	e := NewSyntheticEvaluator(generator, classify.NewClassifier(llm.NewMockProvider(), prompts.NewStore("")), prompts.NewStore(""))

	if _, err := e.Evaluate(context.Background(), testTask(), testTask().Categories[0], 2); err == nil {
		t.Fatal("expected error when generation fails")
	}
}

func judgeAnswer(agreement Agreement, independent string) llm.MockResponse {
	content, _ := json.Marshal(map[string]string{
		"independent_category": independent,
		"agreement":            string(agreement),
		"quality":              "good",
		"reasoning":            "r",
	})
	return llm.MockResponse{Content: content}
}

func predicted() *classify.Result {
	return &classify.Result{Category: "Billing", Confidence: "high"}
}

func TestJudge_UnanimousAgreement(t *testing.T) {
	judges := []llm.Provider{
		llm.NewMockProvider(judgeAnswer(AgreementAgree, "Billing")),
		llm.NewMockProvider(judgeAnswer(AgreementAgree, "Billing")),
	}
	e := NewJudgeEvaluator(judges, prompts.NewStore(""))

	report, err := e.Evaluate(context.Background(), "ticket", testTask().Categories, "charged twice", predicted())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if report.Consensus != ConsensusUnanimous || report.Verdict != VerdictConfirmed {
		t.Errorf("got consensus %q verdict %q", report.Consensus, report.Verdict)
	}
	if report.JudgesResponded != 2 {
		t.Errorf("JudgesResponded = %d", report.JudgesResponded)
	}
}

func TestJudge_MajorityAgreement(t *testing.T) {
	judges := []llm.Provider{
		llm.NewMockProvider(judgeAnswer(AgreementAgree, "Billing")),
		llm.NewMockProvider(judgeAnswer(AgreementAgree, "Billing")),
		llm.NewMockProvider(judgeAnswer(AgreementDisagree, "Tech Support")),
	}
	e := NewJudgeEvaluator(judges, prompts.NewStore(""))

	report, err := e.Evaluate(context.Background(), "ticket", testTask().Categories, "x", predicted())
	if err != nil {
		t.Fatal(err)
	}
	if report.Consensus != ConsensusMajority || report.Verdict != VerdictLikelyCorrect {
		t.Errorf("got consensus %q verdict %q", report.Consensus, report.Verdict)
	}
}

func TestJudge_ZeroAgreement(t *testing.T) {
	judges := []llm.Provider{
		llm.NewMockProvider(judgeAnswer(AgreementDisagree, "Tech Support")),
		llm.NewMockProvider(judgeAnswer(AgreementPartial, "Tech Support")),
	}
	e := NewJudgeEvaluator(judges, prompts.NewStore(""))

	report, err := e.Evaluate(context.Background(), "ticket", testTask().Categories, "x", predicted())
	if err != nil {
		t.Fatal(err)
	}
	if report.Consensus != ConsensusNone || report.Verdict != VerdictQuestionable {
		t.Errorf("got consensus %q verdict %q", report.Consensus, report.Verdict)
	}
}

func TestJudge_MixedIsQuestionable(t *testing.T) {
	judges := []llm.Provider{
		llm.NewMockProvider(judgeAnswer(AgreementAgree, "Billing")),
		llm.NewMockProvider(judgeAnswer(AgreementDisagree, "Tech Support")),
	}
	e := NewJudgeEvaluator(judges, prompts.NewStore(""))

	report, err := e.Evaluate(context.Background(), "ticket", testTask().Categories, "x", predicted())
	if err != nil {
		t.Fatal(err)
	}
	if report.Consensus != ConsensusMixed || report.Verdict != VerdictQuestionable {
		t.Errorf("got consensus %q verdict %q", report.Consensus, report.Verdict)
	}
}

func TestJudge_FailedJudgeExcluded(t *testing.T) {
	judges := []llm.Provider{
		llm.NewMockProvider(judgeAnswer(AgreementAgree, "Billing")),
		llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrRateLimit{}}),
		llm.NewMockProvider(judgeAnswer(AgreementAgree, "Billing")),
	}
	e := NewJudgeEvaluator(judges, prompts.NewStore(""))

	report, err := e.Evaluate(context.Background(), "ticket", testTask().Categories, "x", predicted())
	if err != nil {
		t.Fatalf("one failed judge must not fail the evaluation: %v", err)
	}
	if report.JudgesAsked != 3 || report.JudgesResponded != 2 {
		t.Errorf("asked %d responded %d", report.JudgesAsked, report.JudgesResponded)
	}
	if report.Consensus != ConsensusUnanimous {
		t.Errorf("consensus over responding judges should be unanimous, got %q", report.Consensus)
	}
}

func TestJudge_AllJudgesFailed(t *testing.T) {
	judges := []llm.Provider{
		llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrRateLimit{}}),
		llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}}),
	}
	e := NewJudgeEvaluator(judges, prompts.NewStore(""))

	_, err := e.Evaluate(context.Background(), "ticket", testTask().Categories, "x", predicted())
	if err == nil {
		t.Fatal("expected error when every judge fails")
	}
	if errors.Is(err, context.Canceled) {
		t.Error("failure should not be a context error")
	}
}
