package category

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/imadezze/ClassificationAlloBrain/internal/llm"
	"github.com/imadezze/ClassificationAlloBrain/internal/prompts"
)

func categoriesJSON(t *testing.T, names ...string) json.RawMessage {
	t.Helper()
	set := make(Set, len(names))
	for i, n := range names {
		set[i] = Category{
			Name:        n,
			Description: "about " + n,
			Boundary:    "values concerning " + n,
			Examples:    []string{n + " example"},
		}
	}
	data, err := json.Marshal(map[string]any{"categories": set})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestDiscover_Success(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: categoriesJSON(t, "Billing", "Tech Support", "Feedback")})
	d := NewDiscoverer(mock, prompts.NewStore(""))

	res, err := d.Discover(context.Background(), "ticket", []string{"refund please", "app crashes", "love it"}, 3, 2)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if res.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", res.Attempts)
	}
	if res.Warning != "" {
		t.Errorf("unexpected warning: %q", res.Warning)
	}
	got := res.Set.Names()
	want := []string{"Billing", "Tech Support", "Feedback"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("category %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDiscover_SchemaCarriesExactCount(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: categoriesJSON(t, "A", "B")})
	d := NewDiscoverer(mock, prompts.NewStore(""))

	_, err := d.Discover(context.Background(), "col", []string{"x", "y"}, 2, 0)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	schema := mock.Calls[0].Schema
	if schema == nil {
		t.Fatal("request carried no schema")
	}
	arr := schema.Definition["properties"].(map[string]any)["categories"].(map[string]any)
	if arr["minItems"] != 2 || arr["maxItems"] != 2 {
		t.Errorf("minItems/maxItems = %v/%v, want 2/2", arr["minItems"], arr["maxItems"])
	}
}

func TestDiscover_RetriesOnCountMismatch(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: categoriesJSON(t, "A", "B", "C")},
		llm.MockResponse{Content: categoriesJSON(t, "A", "B")},
	)
	d := NewDiscoverer(mock, prompts.NewStore(""))

	res, err := d.Discover(context.Background(), "col", []string{"x"}, 2, 2)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if res.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", res.Attempts)
	}
	if len(res.Set) != 2 || res.Warning != "" {
		t.Errorf("Set len = %d, warning = %q; want clean 2-category result", len(res.Set), res.Warning)
	}
}

func TestDiscover_FinalAttemptTruncates(t *testing.T) {
	// Every attempt returns 3 categories against a target of 2. With
	// max retries 2 the third attempt truncates instead of failing.
	mock := llm.NewRepeatingMockProvider(llm.MockResponse{Content: categoriesJSON(t, "A", "B", "C")})
	d := NewDiscoverer(mock, prompts.NewStore(""))

	res, err := d.Discover(context.Background(), "col", []string{"x"}, 2, 2)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if res.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", res.Attempts)
	}
	if len(res.Set) != 2 {
		t.Fatalf("Set len = %d, want 2", len(res.Set))
	}
	if res.Set[0].Name != "A" || res.Set[1].Name != "B" {
		t.Errorf("truncation should keep the first categories, got %v", res.Set.Names())
	}
	if res.Warning == "" {
		t.Error("truncated result should carry a warning")
	}
	if mock.CallCount() != 3 {
		t.Errorf("CallCount = %d, want 3", mock.CallCount())
	}
}

func TestDiscover_FinalAttemptAcceptsShortSet(t *testing.T) {
	mock := llm.NewRepeatingMockProvider(llm.MockResponse{Content: categoriesJSON(t, "A")})
	d := NewDiscoverer(mock, prompts.NewStore(""))

	res, err := d.Discover(context.Background(), "col", []string{"x"}, 3, 1)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(res.Set) != 1 || res.Warning == "" {
		t.Errorf("short set should be accepted with a warning, got len %d warning %q", len(res.Set), res.Warning)
	}
}

func TestDiscover_RetriesOnUnparseableOutput(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(`not json at all`)},
		llm.MockResponse{Content: categoriesJSON(t, "A", "B")},
	)
	d := NewDiscoverer(mock, prompts.NewStore(""))

	res, err := d.Discover(context.Background(), "col", []string{"x"}, 2, 2)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if res.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", res.Attempts)
	}
}

func TestDiscover_UnparseableEveryAttemptFails(t *testing.T) {
	mock := llm.NewRepeatingMockProvider(llm.MockResponse{Content: json.RawMessage(`garbage`)})
	d := NewDiscoverer(mock, prompts.NewStore(""))

	_, err := d.Discover(context.Background(), "col", []string{"x"}, 2, 1)
	if err == nil {
		t.Fatal("expected error when every attempt is unparseable")
	}
	if mock.CallCount() != 2 {
		t.Errorf("CallCount = %d, want 2", mock.CallCount())
	}
}

func TestDiscover_BareArrayAccepted(t *testing.T) {
	raw := json.RawMessage(`[{"name":"A","description":"d","boundary":"b","examples":[]}]`)
	mock := llm.NewMockProvider(llm.MockResponse{Content: raw})
	d := NewDiscoverer(mock, prompts.NewStore(""))

	res, err := d.Discover(context.Background(), "col", []string{"x"}, 1, 0)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if res.Set[0].Name != "A" {
		t.Errorf("got %v", res.Set.Names())
	}
}

func TestDiscover_CapsSamplesInPrompt(t *testing.T) {
	samples := make([]string, 80)
	for i := range samples {
		samples[i] = "value"
	}
	mock := llm.NewMockProvider(llm.MockResponse{Content: categoriesJSON(t, "A")})
	d := NewDiscoverer(mock, prompts.NewStore(""))

	if _, err := d.Discover(context.Background(), "col", samples, 1, 0); err != nil {
		t.Fatalf("Discover: %v", err)
	}
	user := mock.Calls[0].Messages[0].Content
	if n := strings.Count(user, "- value"); n != maxDiscoverySamples {
		t.Errorf("prompt contains %d samples, want %d", n, maxDiscoverySamples)
	}
}

func TestDiscover_NoSamples(t *testing.T) {
	d := NewDiscoverer(llm.NewMockProvider(), prompts.NewStore(""))
	if _, err := d.Discover(context.Background(), "col", nil, 3, 2); err == nil {
		t.Fatal("expected error for empty samples")
	}
}

func TestRefine_Success(t *testing.T) {
	current := Set{
		{Name: "Billing", Description: "d", Boundary: "b"},
		{Name: "Other", Description: "d", Boundary: "b"},
	}
	mock := llm.NewMockProvider(llm.MockResponse{Content: categoriesJSON(t, "Billing", "Refunds", "Other")})
	d := NewDiscoverer(mock, prompts.NewStore(""))

	set, err := d.Refine(context.Background(), current, "split billing into billing and refunds", []string{"refund please"})
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if len(set) != 3 {
		t.Fatalf("got %d categories, want 3", len(set))
	}
	if mock.CallCount() != 1 {
		t.Errorf("refinement should make a single call, made %d", mock.CallCount())
	}

	user := mock.Calls[0].Messages[0].Content
	if !strings.Contains(user, "split billing into billing and refunds") {
		t.Error("prompt should carry the feedback verbatim")
	}
	if !strings.Contains(user, `"Billing"`) {
		t.Error("prompt should carry the current categories")
	}
}

func TestRefine_EmptyFeedback(t *testing.T) {
	d := NewDiscoverer(llm.NewMockProvider(), prompts.NewStore(""))
	current := Set{{Name: "A", Description: "d", Boundary: "b"}}
	if _, err := d.Refine(context.Background(), current, "", nil); err == nil {
		t.Fatal("expected error for empty feedback")
	}
}

func TestSetValidate(t *testing.T) {
	cases := []struct {
		name    string
		set     Set
		wantErr bool
	}{
		{"valid", Set{{Name: "A"}, {Name: "B"}}, false},
		{"empty", Set{}, true},
		{"blank name", Set{{Name: "  "}}, true},
		{"case-insensitive duplicate", Set{{Name: "Billing"}, {Name: "billing"}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.set.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestSetJSONRoundTrip(t *testing.T) {
	set := Set{{Name: "A", Description: "d", Boundary: "b", Examples: []string{"x"}}}
	data, err := set.JSON()
	if err != nil {
		t.Fatal(err)
	}
	back, err := SetFromJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	if back[0].Name != "A" || back[0].Examples[0] != "x" {
		t.Errorf("round trip mismatch: %+v", back)
	}
}
