package services

import (
	"context"
	"strings"
	"testing"

	"github.com/artograph/artograph-backend/internal/testutil"
)

type fakeCompleter struct {
	response string
	err      error
	prompt   string
}

func (fc *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	fc.prompt = prompt
	if fc.err != nil {
		return "", fc.err
	}
	return fc.response, nil
}

func TestGenerateMockModeReturnsCannedAssignment(t *testing.T) {
	log := testutil.NewTestLogger(t)
	svc, err := NewGeneratorService(log, GeneratorConfig{Mock: true}, nil)
	if err != nil {
		t.Fatalf("NewGeneratorService: %v", err)
	}

	known := map[string]bool{}
	for _, canned := range mockAssignmentResponses {
		known[canned.Title] = true
	}

	for i := 0; i < 10; i++ {
		generated, err := svc.Generate(context.Background(), ClientProfile{Name: "Sam"}, SessionContext{})
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if !known[generated.Title] {
			t.Fatalf("unexpected mock title: %q", generated.Title)
		}
		if generated.TaskDescription == "" || generated.ReflectionPrompts == "" {
			t.Fatalf("mock assignment has empty fields: %+v", generated)
		}
	}
}

func TestGenerateParsesProviderJSON(t *testing.T) {
	log := testutil.NewTestLogger(t)
	fake := &fakeCompleter{response: `{"title":"Custom Plan","taskDescription":"Do X","learningObjectives":"Learn Y","reflectionPrompts":"Why Z?"}`}
	svc, err := NewGeneratorService(log, GeneratorConfig{}, fake)
	if err != nil {
		t.Fatalf("NewGeneratorService: %v", err)
	}

	age := 34
	generated, err := svc.Generate(context.Background(), ClientProfile{
		Name:      "Riley",
		Age:       &age,
		Condition: "Social anxiety",
	}, SessionContext{FocusArea: "Exposure planning"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if generated.Title != "Custom Plan" {
		t.Fatalf("title: got=%q", generated.Title)
	}

	// The prompt must carry the client and session context.
	for _, want := range []string{"Riley", "34", "Social anxiety", "Exposure planning"} {
		if !strings.Contains(fake.prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, fake.prompt)
		}
	}
}

func TestGeneratePromptDefaults(t *testing.T) {
	log := testutil.NewTestLogger(t)
	fake := &fakeCompleter{response: `{"title":"T","taskDescription":"D","learningObjectives":"L","reflectionPrompts":"R"}`}
	svc, err := NewGeneratorService(log, GeneratorConfig{}, fake)
	if err != nil {
		t.Fatalf("NewGeneratorService: %v", err)
	}
	if _, err := svc.Generate(context.Background(), ClientProfile{}, SessionContext{}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, want := range []string{"Client: Unknown", "Age: Not specified", "Session Focus: General"} {
		if !strings.Contains(fake.prompt, want) {
			t.Fatalf("prompt missing default %q", want)
		}
	}
}

func TestGenerateRejectsNonJSONResponse(t *testing.T) {
	log := testutil.NewTestLogger(t)
	fake := &fakeCompleter{response: "Here is your assignment: do some journaling."}
	svc, err := NewGeneratorService(log, GeneratorConfig{}, fake)
	if err != nil {
		t.Fatalf("NewGeneratorService: %v", err)
	}
	_, err = svc.Generate(context.Background(), ClientProfile{}, SessionContext{})
	if err == nil || !strings.Contains(err.Error(), "AI response was not valid JSON") {
		t.Fatalf("non-JSON response: want parse error got=%v", err)
	}
}

func TestNewGeneratorServiceRequiresClientWhenLive(t *testing.T) {
	log := testutil.NewTestLogger(t)
	if _, err := NewGeneratorService(log, GeneratorConfig{}, nil); err == nil {
		t.Fatalf("live mode without client must fail")
	}
}

func TestGeneratorConfigFromEnv(t *testing.T) {
	cases := []struct {
		name string
		key  *string
		mock string
		want bool
	}{
		{name: "no key", key: nil, want: true},
		{name: "placeholder key", key: strptr("sk-xxxxxxxx"), want: true},
		{name: "sample env key", key: strptr("your-real-key-here"), want: true},
		{name: "real key", key: strptr("sk-live-123"), want: false},
		{name: "real key forced mock", key: strptr("sk-live-123"), mock: "true", want: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.key != nil {
				t.Setenv("OPENAI_API_KEY", *tc.key)
			} else {
				t.Setenv("OPENAI_API_KEY", "")
			}
			t.Setenv("OPENAI_MOCK", tc.mock)
			got := GeneratorConfigFromEnv()
			if got.Mock != tc.want {
				t.Fatalf("mock: want=%v got=%v", tc.want, got.Mock)
			}
		})
	}
}

func strptr(s string) *string { return &s }
