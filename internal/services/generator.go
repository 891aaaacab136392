package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/artograph/artograph-backend/internal/clients/openai"
	"github.com/artograph/artograph-backend/internal/logger"
)

type ClientProfile struct {
	Name         string
	Age          *int
	Gender       string
	Condition    string
	TherapyGoals string
}

type SessionContext struct {
	Summary   string
	FocusArea string
}

type GeneratedAssignment struct {
	Title              string `json:"title"`
	TaskDescription    string `json:"taskDescription"`
	LearningObjectives string `json:"learningObjectives"`
	ReflectionPrompts  string `json:"reflectionPrompts"`
}

// GeneratorService turns client/session context into a structured
// assignment. Mock mode is an explicit configuration decision made at
// wiring time, never inferred here: demos and local development run the
// full flow without any provider credential.
type GeneratorService interface {
	Generate(ctx context.Context, profile ClientProfile, session SessionContext) (*GeneratedAssignment, error)
}

type GeneratorConfig struct {
	Mock bool
}

// GeneratorConfigFromEnv resolves the mock switch once: forced on via
// OPENAI_MOCK, or on when the API key is absent or still a placeholder
// from a sample .env.
func GeneratorConfigFromEnv() GeneratorConfig {
	key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	mock := key == "" ||
		strings.Contains(key, "xxxx") ||
		strings.Contains(key, "your-real-key")
	switch strings.ToLower(strings.TrimSpace(os.Getenv("OPENAI_MOCK"))) {
	case "1", "true", "yes", "on":
		mock = true
	}
	return GeneratorConfig{Mock: mock}
}

type generatorService struct {
	log      *logger.Logger
	cfg      GeneratorConfig
	aiClient openai.Client
}

// NewGeneratorService wires the generator. aiClient may be nil when
// cfg.Mock is set.
func NewGeneratorService(log *logger.Logger, cfg GeneratorConfig, aiClient openai.Client) (GeneratorService, error) {
	serviceLog := log.With("service", "GeneratorService")
	if !cfg.Mock && aiClient == nil {
		return nil, fmt.Errorf("AI client required unless mock mode is enabled")
	}
	return &generatorService{
		log:      serviceLog,
		cfg:      cfg,
		aiClient: aiClient,
	}, nil
}

var mockAssignmentResponses = []GeneratedAssignment{
	{
		Title:              "Identifying Negative Thought Patterns",
		TaskDescription:    "Spend 15 minutes today identifying three negative thoughts you had. Write them down and note what triggered each thought.",
		LearningObjectives: "Learn to recognize automatic negative thoughts\nUnderstand thought triggers\nBecome aware of thinking patterns",
		ReflectionPrompts:  "What patterns do you notice in your negative thoughts?\nAre there common triggers?\nHow did recognizing these thoughts make you feel?",
	},
	{
		Title:              "Behavioral Activation Exercise",
		TaskDescription:    "Choose one activity you enjoy but have been avoiding. Schedule and complete it this week. It can be as simple as a 15-minute walk or calling a friend.",
		LearningObjectives: "Understand how behavior influences mood\nBreak avoidance cycles\nBuild momentum for positive change",
		ReflectionPrompts:  "How did completing this activity affect your mood?\nWhat barriers did you face?\nWhat will you do next week?",
	},
	{
		Title:              "Grounding Technique Practice",
		TaskDescription:    "Practice the 5-4-3-2-1 grounding technique: Notice 5 things you see, 4 you can touch, 3 you hear, 2 you smell, 1 you taste. Use this when feeling anxious.",
		LearningObjectives: "Learn anxiety management techniques\nConnect with the present moment\nDevelop coping skills",
		ReflectionPrompts:  "When did you feel most anxious this week?\nHow did the grounding technique help?\nWill you use this technique again?",
	},
}

func (gs *generatorService) Generate(ctx context.Context, profile ClientProfile, session SessionContext) (*GeneratedAssignment, error) {
	if gs.cfg.Mock {
		gs.log.Info("Mock mode: returning canned assignment")
		picked := mockAssignmentResponses[rand.Intn(len(mockAssignmentResponses))]
		return &picked, nil
	}

	prompt := buildAssignmentPrompt(profile, session)
	content, err := gs.aiClient.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var generated GeneratedAssignment
	if err := json.Unmarshal([]byte(content), &generated); err != nil {
		gs.log.Error("Failed to parse AI response", "error", err)
		return nil, fmt.Errorf("AI response was not valid JSON")
	}
	return &generated, nil
}

func buildAssignmentPrompt(profile ClientProfile, session SessionContext) string {
	name := profile.Name
	if name == "" {
		name = "Unknown"
	}
	age := "Not specified"
	if profile.Age != nil {
		age = fmt.Sprintf("%d", *profile.Age)
	}
	condition := profile.Condition
	if condition == "" {
		condition = "Not specified"
	}
	focus := session.FocusArea
	if focus == "" {
		focus = "General"
	}
	return fmt.Sprintf(`You are an expert CBT therapist. Generate a therapy assignment based on:
Client: %s
Age: %s
Condition: %s
Session Focus: %s

Return a JSON object with these exact fields:
{
  "title": "Assignment Title",
  "taskDescription": "Detailed description of what the client should do",
  "learningObjectives": "Key learning goals",
  "reflectionPrompts": "Questions for reflection"
}`, name, age, condition, focus)
}
