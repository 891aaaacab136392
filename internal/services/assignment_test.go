package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/artograph/artograph-backend/internal/repos"
	"github.com/artograph/artograph-backend/internal/testutil"
	"github.com/artograph/artograph-backend/internal/types"
)

func newAssignmentFixture(t *testing.T) (AssignmentService, *assignmentFixture) {
	t.Helper()
	gdb := testutil.NewTestDB(t)
	log := testutil.NewTestLogger(t)

	therapist := testutil.SeedTherapist(t, gdb)
	client := testutil.SeedClient(t, gdb, therapist.ID)
	session := testutil.SeedSession(t, gdb, client.ID, therapist.ID, 1)

	svc := NewAssignmentService(
		gdb,
		log,
		repos.NewAssignmentRepo(gdb, log),
		repos.NewClientRepo(gdb, log),
		repos.NewSessionRepo(gdb, log),
		repos.NewTemplateRepo(gdb, log),
		repos.NewUserRepo(gdb, log),
		&fakeGenerator{},
	)
	return svc, &assignmentFixture{gdb: gdb, therapist: therapist, client: client, session: session}
}

type assignmentFixture struct {
	gdb       *gorm.DB
	therapist *types.User
	client    *types.Client
	session   *types.Session
}

type fakeGenerator struct {
	result *GeneratedAssignment
	err    error
	calls  int
}

func (fg *fakeGenerator) Generate(ctx context.Context, profile ClientProfile, session SessionContext) (*GeneratedAssignment, error) {
	fg.calls++
	if fg.err != nil {
		return nil, fg.err
	}
	if fg.result != nil {
		return fg.result, nil
	}
	return &GeneratedAssignment{
		Title:              "Generated Practice",
		TaskDescription:    "Do the thing.",
		LearningObjectives: "Learn the thing",
		ReflectionPrompts:  "How did it go?",
	}, nil
}

func TestUpdateAssignmentCreatesNewVersion(t *testing.T) {
	svc, fx := newAssignmentFixture(t)
	ctx := context.Background()

	original, err := svc.CreateAssignment(ctx, CreateAssignmentInput{
		Title:     "Breathing Exercise",
		ClientID:  fx.client.ID,
		SessionID: fx.session.ID,
	})
	if err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}
	if original.Version != 1 {
		t.Fatalf("original version: want=1 got=%d", original.Version)
	}

	updated, err := svc.UpdateAssignment(ctx, original.ID, UpdateAssignmentInput{
		Title: "Breathing Exercise v2",
	})
	if err != nil {
		t.Fatalf("UpdateAssignment: %v", err)
	}
	if updated.ID == original.ID {
		t.Fatalf("update must create a new row, got same id %s", updated.ID)
	}
	if updated.Version != 2 {
		t.Fatalf("updated version: want=2 got=%d", updated.Version)
	}
	if updated.ParentAssignmentID == nil || *updated.ParentAssignmentID != original.ID {
		t.Fatalf("updated parent: want=%s got=%v", original.ID, updated.ParentAssignmentID)
	}

	// The stored original must be untouched.
	stored, err := svc.GetAssignment(ctx, original.ID)
	if err != nil {
		t.Fatalf("GetAssignment original: %v", err)
	}
	if stored.Title != "Breathing Exercise" {
		t.Fatalf("original title mutated: got=%q", stored.Title)
	}
	if stored.Version != 1 {
		t.Fatalf("original version mutated: got=%d", stored.Version)
	}
}

func TestUpdateAssignmentAnchorsParentToChainRoot(t *testing.T) {
	svc, fx := newAssignmentFixture(t)
	ctx := context.Background()

	v1, err := svc.CreateAssignment(ctx, CreateAssignmentInput{
		Title:     "Journaling",
		ClientID:  fx.client.ID,
		SessionID: fx.session.ID,
	})
	if err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}
	v2, err := svc.UpdateAssignment(ctx, v1.ID, UpdateAssignmentInput{Title: "Journaling v2"})
	if err != nil {
		t.Fatalf("UpdateAssignment v2: %v", err)
	}
	v3, err := svc.UpdateAssignment(ctx, v2.ID, UpdateAssignmentInput{Title: "Journaling v3"})
	if err != nil {
		t.Fatalf("UpdateAssignment v3: %v", err)
	}
	if v3.ParentAssignmentID == nil || *v3.ParentAssignmentID != v1.ID {
		t.Fatalf("v3 parent: want=%s got=%v", v1.ID, v3.ParentAssignmentID)
	}
	if v3.Version != 3 {
		t.Fatalf("v3 version: want=3 got=%d", v3.Version)
	}
}

func TestUpdateAssignmentKeepsOmittedFields(t *testing.T) {
	svc, fx := newAssignmentFixture(t)
	ctx := context.Background()

	estimated := 30
	original, err := svc.CreateAssignment(ctx, CreateAssignmentInput{
		Title:              "Exposure Ladder",
		TaskDescription:    "Build a fear hierarchy.",
		LearningObjectives: "Rank situations by difficulty",
		EstimatedTime:      &estimated,
		ClientID:           fx.client.ID,
		SessionID:          fx.session.ID,
	})
	if err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}
	updated, err := svc.UpdateAssignment(ctx, original.ID, UpdateAssignmentInput{
		ReflectionPrompts: "What was hardest?",
	})
	if err != nil {
		t.Fatalf("UpdateAssignment: %v", err)
	}
	if updated.Title != "Exposure Ladder" {
		t.Fatalf("title: want carried over, got=%q", updated.Title)
	}
	if updated.TaskDescription != "Build a fear hierarchy." {
		t.Fatalf("task description not carried over: got=%q", updated.TaskDescription)
	}
	if updated.EstimatedTime == nil || *updated.EstimatedTime != 30 {
		t.Fatalf("estimated time: want=30 got=%v", updated.EstimatedTime)
	}
	if updated.ReflectionPrompts != "What was hardest?" {
		t.Fatalf("reflection prompts: got=%q", updated.ReflectionPrompts)
	}
}

func TestCloneAssignment(t *testing.T) {
	svc, fx := newAssignmentFixture(t)
	ctx := context.Background()

	original, err := svc.CreateAssignment(ctx, CreateAssignmentInput{
		Title:     "Gratitude List",
		ClientID:  fx.client.ID,
		SessionID: fx.session.ID,
	})
	if err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}
	clone, err := svc.CloneAssignment(ctx, original.ID, nil, nil)
	if err != nil {
		t.Fatalf("CloneAssignment: %v", err)
	}
	if clone.Title != "Gratitude List (Copy)" {
		t.Fatalf("clone title: want=%q got=%q", "Gratitude List (Copy)", clone.Title)
	}
	if clone.Status != types.AssignmentStatusDraft {
		t.Fatalf("clone status: want=DRAFT got=%q", clone.Status)
	}
	if clone.ParentAssignmentID == nil || *clone.ParentAssignmentID != original.ID {
		t.Fatalf("clone parent: want=%s got=%v", original.ID, clone.ParentAssignmentID)
	}
	if clone.Version != 1 {
		t.Fatalf("clone version: want=1 got=%d", clone.Version)
	}
}

func TestSaveAsTemplateSnapshotsContent(t *testing.T) {
	svc, fx := newAssignmentFixture(t)
	ctx := context.Background()

	original, err := svc.CreateAssignment(ctx, CreateAssignmentInput{
		Title:             "Sleep Diary",
		TaskDescription:   "Log sleep and wake times.",
		ReflectionPrompts: "Any patterns?",
		ClientID:          fx.client.ID,
		SessionID:         fx.session.ID,
	})
	if err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}
	template, err := svc.SaveAsTemplate(ctx, original.ID, SaveTemplateInput{
		Tags: []string{"sleep", "cbt-i"},
	})
	if err != nil {
		t.Fatalf("SaveAsTemplate: %v", err)
	}
	if template.Title != "Sleep Diary" {
		t.Fatalf("template title: got=%q", template.Title)
	}
	if template.Status != types.TemplateStatusPrivate {
		t.Fatalf("template status: want=PRIVATE got=%q", template.Status)
	}
	if template.TherapistID != fx.therapist.ID {
		t.Fatalf("template therapist: want=%s got=%s", fx.therapist.ID, template.TherapistID)
	}
	var tags []string
	if err := json.Unmarshal(template.Tags, &tags); err != nil {
		t.Fatalf("decode tags: %v", err)
	}
	if len(tags) != 2 || tags[0] != "sleep" {
		t.Fatalf("template tags: got=%v", tags)
	}
}

func TestSaveAsTemplateRejectsApprovedStatus(t *testing.T) {
	svc, fx := newAssignmentFixture(t)
	ctx := context.Background()

	original, err := svc.CreateAssignment(ctx, CreateAssignmentInput{
		Title:     "Gratitude List",
		ClientID:  fx.client.ID,
		SessionID: fx.session.ID,
	})
	if err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}

	// Templates only become APPROVED through admin moderation, never
	// at creation time.
	for _, status := range []string{types.TemplateStatusApproved, types.TemplateStatusRejected} {
		_, err := svc.SaveAsTemplate(ctx, original.ID, SaveTemplateInput{Status: status})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("save-template with %s: want ErrForbidden got=%v", status, err)
		}
	}

	template, err := svc.SaveAsTemplate(ctx, original.ID, SaveTemplateInput{Status: types.TemplateStatusPending})
	if err != nil {
		t.Fatalf("save-template with PENDING: %v", err)
	}
	if template.Status != types.TemplateStatusPending {
		t.Fatalf("template status: want=PENDING got=%q", template.Status)
	}
	if template.ApprovedAt != nil || template.ApprovedBy != nil {
		t.Fatalf("approval stamps on fresh template: approvedAt=%v approvedBy=%v", template.ApprovedAt, template.ApprovedBy)
	}
}

func TestDeleteAssignmentMissingReturnsNotFound(t *testing.T) {
	svc, _ := newAssignmentFixture(t)
	err := svc.DeleteAssignment(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete missing: want ErrNotFound got=%v", err)
	}
}

func TestGenerateAssignmentStoresDraft(t *testing.T) {
	svc, fx := newAssignmentFixture(t)
	ctx := context.Background()

	assignment, err := svc.GenerateAssignment(ctx, GenerateAssignmentInput{
		ClientID:  fx.client.ID,
		SessionID: fx.session.ID,
	})
	if err != nil {
		t.Fatalf("GenerateAssignment: %v", err)
	}
	if assignment.Status != types.AssignmentStatusDraft {
		t.Fatalf("generated status: want=DRAFT got=%q", assignment.Status)
	}
	if assignment.Title != "Generated Practice" {
		t.Fatalf("generated title: got=%q", assignment.Title)
	}
	if assignment.ClientID != fx.client.ID || assignment.SessionID != fx.session.ID {
		t.Fatalf("generated targeting: client=%s session=%s", assignment.ClientID, assignment.SessionID)
	}
}

func TestGenerateAssignmentMissingClient(t *testing.T) {
	svc, fx := newAssignmentFixture(t)
	_, err := svc.GenerateAssignment(context.Background(), GenerateAssignmentInput{
		ClientID:  uuid.New(),
		SessionID: fx.session.ID,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("generate with missing client: want ErrNotFound got=%v", err)
	}
}
