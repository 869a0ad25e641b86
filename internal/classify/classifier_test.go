package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/imadezze/ClassificationAlloBrain/internal/category"
	"github.com/imadezze/ClassificationAlloBrain/internal/llm"
	"github.com/imadezze/ClassificationAlloBrain/internal/prompts"
	"github.com/imadezze/ClassificationAlloBrain/internal/store"
)

func testTask() Task {
	return Task{
		SessionID:  "s1",
		ColumnName: "ticket",
		Categories: category.Set{
			{Name: "Billing", Description: "payment issues", Boundary: "charges, refunds, invoices"},
			{Name: "Tech Support", Description: "product malfunctions", Boundary: "crashes, errors, bugs"},
			{Name: "Feedback", Description: "opinions", Boundary: "praise, complaints, suggestions"},
		},
	}
}

func answer(category, confidence string) llm.MockResponse {
	content, _ := json.Marshal(map[string]string{
		"category":   category,
		"confidence": confidence,
		"reasoning":  "because",
	})
	return llm.MockResponse{Content: content}
}

func TestClassify_ExactMatch(t *testing.T) {
	mock := llm.NewMockProvider(answer("Billing", "high"))
	c := NewClassifier(mock, prompts.NewStore(""))

	res, err := c.Classify(context.Background(), testTask(), "I was charged twice")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Category != "Billing" || res.Confidence != "high" || res.Match != MatchExact {
		t.Errorf("got %+v", res)
	}
}

func TestClassify_ExactMatchNormalizesCase(t *testing.T) {
	mock := llm.NewMockProvider(answer("tech support", "medium"))
	c := NewClassifier(mock, prompts.NewStore(""))

	res, err := c.Classify(context.Background(), testTask(), "app crashes on start")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Category != "Tech Support" {
		t.Errorf("Category = %q, want canonical %q", res.Category, "Tech Support")
	}
	if res.Match != MatchExact {
		t.Errorf("Match = %q, want exact", res.Match)
	}
}

func TestClassify_SubstringFallback(t *testing.T) {
	mock := llm.NewMockProvider(answer("This is clearly a Billing issue", "high"))
	c := NewClassifier(mock, prompts.NewStore(""))

	res, err := c.Classify(context.Background(), testTask(), "refund please")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Category != "Billing" || res.Match != MatchSubstring {
		t.Errorf("got %+v", res)
	}
	if res.Confidence != ConfidenceMedium {
		t.Errorf("substring match should cap confidence at medium, got %q", res.Confidence)
	}
}

func TestClassify_VerbatimFallback(t *testing.T) {
	mock := llm.NewMockProvider(answer("Shipping", "high"))
	c := NewClassifier(mock, prompts.NewStore(""))

	res, err := c.Classify(context.Background(), testTask(), "where is my package")
	if err != nil {
		t.Fatalf("off-vocabulary answer must not fail: %v", err)
	}
	if res.Category != "Shipping" || res.Match != MatchVerbatim {
		t.Errorf("got %+v", res)
	}
	if res.Confidence != ConfidenceLow {
		t.Errorf("verbatim answer should carry low confidence, got %q", res.Confidence)
	}
}

func TestClassify_PlainTextAnswer(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage("\"Feedback\"\n")})
	c := NewClassifier(mock, prompts.NewStore(""))

	res, err := c.Classify(context.Background(), testTask(), "love the new design")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Category != "Feedback" || res.Match != MatchExact {
		t.Errorf("got %+v", res)
	}
}

func TestClassify_SchemaCarriesVocabularyEnum(t *testing.T) {
	mock := llm.NewMockProvider(answer("Billing", "high"))
	c := NewClassifier(mock, prompts.NewStore(""))

	if _, err := c.Classify(context.Background(), testTask(), "x"); err != nil {
		t.Fatalf("Classify: %v", err)
	}

	schema := mock.Calls[0].Schema
	if schema == nil {
		t.Fatal("request carried no schema")
	}
	enum := schema.Definition["properties"].(map[string]any)["category"].(map[string]any)["enum"].([]any)
	if len(enum) != 3 || enum[0] != "Billing" {
		t.Errorf("enum = %v", enum)
	}
	if !strings.HasPrefix(schema.Name, "classification-") {
		t.Errorf("schema name = %q", schema.Name)
	}
}

func TestClassificationSchema_NameVariesWithVocabulary(t *testing.T) {
	a := classificationSchema([]string{"A", "B"})
	b := classificationSchema([]string{"A", "C"})
	if a.Name == b.Name {
		t.Errorf("different vocabularies must produce different schema names, both %q", a.Name)
	}
}

func TestClassify_PromptLayout(t *testing.T) {
	mock := llm.NewMockProvider(answer("Billing", "high"))
	c := NewClassifier(mock, prompts.NewStore(""))

	task := testTask()
	task.Examples = []store.FewShotExample{
		{Text: "cannot log in", Category: "Tech Support", Reasoning: "login is a product function"},
	}
	task.Feedback = "treat refund requests as Billing"

	if _, err := c.Classify(context.Background(), task, "refund please"); err != nil {
		t.Fatalf("Classify: %v", err)
	}

	user := mock.Calls[0].Messages[0].Content
	for _, want := range []string{
		"1. Billing",
		"Boundary: charges, refunds, invoices",
		"Example 1:",
		`Text: "cannot log in"`,
		"Reasoning: login is a product function",
		`Text to classify: "refund please"`,
		"Additional guidance: treat refund requests as Billing",
	} {
		if !strings.Contains(user, want) {
			t.Errorf("prompt missing %q:\n%s", want, user)
		}
	}

	// Examples come before the value to classify.
	if strings.Index(user, "Example 1:") > strings.Index(user, "Text to classify") {
		t.Error("examples should precede the value to classify")
	}
}

func TestClassify_NoFeedbackClause(t *testing.T) {
	mock := llm.NewMockProvider(answer("Billing", "high"))
	c := NewClassifier(mock, prompts.NewStore(""))

	if _, err := c.Classify(context.Background(), testTask(), "x"); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if strings.Contains(mock.Calls[0].Messages[0].Content, "Additional guidance") {
		t.Error("prompt should omit the guidance clause without feedback")
	}
}

func TestClassify_EmptyValue(t *testing.T) {
	c := NewClassifier(llm.NewMockProvider(), prompts.NewStore(""))
	if _, err := c.Classify(context.Background(), testTask(), "   "); err == nil {
		t.Fatal("expected error for blank value")
	}
}

func TestClassifyBatch_PartialFailureIsolation(t *testing.T) {
	mock := llm.NewMockProvider(
		answer("Billing", "high"),
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: fmt.Errorf("boom")}},
		answer("Feedback", "medium"),
	)
	c := NewClassifier(mock, prompts.NewStore(""))

	results, err := c.ClassifyBatch(context.Background(), testTask(), []string{"a", "b", "c"}, nil)
	if err != nil {
		t.Fatalf("ClassifyBatch: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Err != nil || results[0].Result.Category != "Billing" {
		t.Errorf("item 0: %+v", results[0])
	}
	if results[1].Err == nil {
		t.Error("item 1 should record its error")
	}
	if results[2].Err != nil || results[2].Result.Category != "Feedback" {
		t.Errorf("failure must not stop the batch: %+v", results[2])
	}
}

func TestClassifyBatch_Cancellation(t *testing.T) {
	mock := llm.NewRepeatingMockProvider(answer("Billing", "high"))
	c := NewClassifier(mock, prompts.NewStore(""))

	ctx, cancel := context.WithCancel(context.Background())
	var results []ItemResult
	var err error
	results, err = c.ClassifyBatch(ctx, testTask(), []string{"a", "b", "c", "d"}, func(done, total int) {
		if done == 2 {
			cancel()
		}
	})
	if err == nil {
		t.Fatal("expected context error")
	}
	if len(results) != 2 {
		t.Errorf("got %d results before cancellation, want 2", len(results))
	}
}

func TestClassifyBatch_Progress(t *testing.T) {
	mock := llm.NewRepeatingMockProvider(answer("Billing", "high"))
	c := NewClassifier(mock, prompts.NewStore(""))

	var calls []int
	_, err := c.ClassifyBatch(context.Background(), testTask(), []string{"a", "b"}, func(done, total int) {
		calls = append(calls, done)
		if total != 2 {
			t.Errorf("total = %d, want 2", total)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Errorf("progress calls = %v", calls)
	}
}
