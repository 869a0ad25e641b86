package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("503")}},
		MockResponse{Err: &ErrRateLimit{RetryAfter: time.Millisecond}},
		MockResponse{Content: json.RawMessage(`{"ok":true}`)},
	)
	p := WithRetry(mock, fastRetryConfig())

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(resp.Content) != `{"ok":true}` {
		t.Errorf("Content = %s", resp.Content)
	}
	if mock.CallCount() != 3 {
		t.Errorf("CallCount = %d, want 3", mock.CallCount())
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	mock := NewRepeatingMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("503")}})
	p := WithRetry(mock, fastRetryConfig())

	_, err := p.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Errorf("err = %v, want ErrProviderUnavailable", err)
	}
	if mock.CallCount() != 3 {
		t.Errorf("CallCount = %d, want 3", mock.CallCount())
	}
}

func TestRetry_InvalidResponseRetriedOnce(t *testing.T) {
	mock := NewRepeatingMockProvider(MockResponse{Err: &ErrInvalidResponse{Err: errors.New("bad json")}})
	p := WithRetry(mock, fastRetryConfig())

	_, err := p.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	if mock.CallCount() != 2 {
		t.Errorf("CallCount = %d, want 2 (one retry)", mock.CallCount())
	}
}

func TestRetry_MaxTokensNotRetried(t *testing.T) {
	mock := NewRepeatingMockProvider(MockResponse{Err: &ErrMaxTokensExceeded{}})
	p := WithRetry(mock, fastRetryConfig())

	_, err := p.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	if mock.CallCount() != 1 {
		t.Errorf("CallCount = %d, want 1", mock.CallCount())
	}
}

func TestRetry_ContextErrorNotRetried(t *testing.T) {
	mock := NewRepeatingMockProvider(MockResponse{Err: context.Canceled})
	p := WithRetry(mock, fastRetryConfig())

	_, err := p.Generate(context.Background(), Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if mock.CallCount() != 1 {
		t.Errorf("CallCount = %d, want 1", mock.CallCount())
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tc := range cases {
		if got := StripFences(tc.in); got != tc.want {
			t.Errorf("StripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		A int `json:"a"`
	}
	if err := DecodeJSON(json.RawMessage("```json\n{\"a\":7}\n```"), &out); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if out.A != 7 {
		t.Errorf("A = %d", out.A)
	}

	err := DecodeJSON(json.RawMessage("not json"), &out)
	var invalid *ErrInvalidResponse
	if !errors.As(err, &invalid) {
		t.Errorf("err = %v, want ErrInvalidResponse", err)
	}
}

func TestValidateResponse(t *testing.T) {
	schema := &Schema{
		Name: "test-answer",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"answer": map[string]any{"type": "string", "enum": []any{"yes", "no"}},
			},
			"required":             []string{"answer"},
			"additionalProperties": false,
		},
	}

	if err := validateResponse(schema, json.RawMessage(`{"answer":"yes"}`)); err != nil {
		t.Errorf("valid payload rejected: %v", err)
	}
	if err := validateResponse(schema, json.RawMessage(`{"answer":"maybe"}`)); err == nil {
		t.Error("out-of-enum payload accepted")
	}
	if err := validateResponse(schema, json.RawMessage(`{`)); err == nil {
		t.Error("malformed JSON accepted")
	}
	if err := validateResponse(nil, json.RawMessage(`anything`)); err != nil {
		t.Errorf("nil schema should skip validation: %v", err)
	}
}

func TestMockProvider_RecordsAndDrains(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`1`)})

	if _, err := mock.Generate(context.Background(), Request{System: "s"}); err != nil {
		t.Fatal(err)
	}
	if len(mock.Calls) != 1 || mock.Calls[0].System != "s" {
		t.Errorf("Calls = %+v", mock.Calls)
	}

	_, err := mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Errorf("drained mock should return ErrProviderUnavailable, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "openai"
	if err := cfg.Validate(); err == nil {
		t.Error("missing API key should fail validation")
	}
	cfg.OpenAI.APIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	cfg.Provider = "nope"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown provider should fail validation")
	}
}

func TestJudgeModelNames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "openai"
	if names := cfg.JudgeModelNames(); len(names) == 0 {
		t.Error("openai should have default judge models")
	}

	cfg.Judge.Models = []string{"custom-judge"}
	names := cfg.JudgeModelNames()
	if len(names) != 1 || names[0] != "custom-judge" {
		t.Errorf("names = %v", names)
	}
}

func TestWithPurpose(t *testing.T) {
	ctx := WithPurpose(context.Background(), "judge")
	if got := PurposeFrom(ctx); got != "judge" {
		t.Errorf("PurposeFrom = %q", got)
	}
	if got := PurposeFrom(context.Background()); got != "unknown" {
		t.Errorf("PurposeFrom(empty) = %q", got)
	}
}
