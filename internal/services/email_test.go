package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/artograph/artograph-backend/internal/clients/sendgrid"
	"github.com/artograph/artograph-backend/internal/repos"
	"github.com/artograph/artograph-backend/internal/testutil"
	"github.com/artograph/artograph-backend/internal/types"
)

type recordingSender struct {
	lastRequest *sendgrid.SendEmailRequest
	result      *sendgrid.SendEmailResult
	err         error
}

func (rs *recordingSender) Send(ctx context.Context, req sendgrid.SendEmailRequest) (*sendgrid.SendEmailResult, error) {
	rs.lastRequest = &req
	if rs.err != nil {
		return nil, rs.err
	}
	return rs.result, nil
}

func newEmailFixture(t *testing.T, sender sendgrid.Client) (EmailService, *gorm.DB, *types.Assignment) {
	t.Helper()
	gdb := testutil.NewTestDB(t)
	log := testutil.NewTestLogger(t)
	therapist := testutil.SeedTherapist(t, gdb)
	client := testutil.SeedClient(t, gdb, therapist.ID)
	session := testutil.SeedSession(t, gdb, client.ID, therapist.ID, 1)
	assignment := testutil.SeedAssignment(t, gdb, client.ID, session.ID, therapist.ID)

	svc := NewEmailService(gdb, log, repos.NewAssignmentRepo(gdb, log), repos.NewEmailLogRepo(gdb, log), sender)
	return svc, gdb, assignment
}

func TestSendAssignmentMockProvider(t *testing.T) {
	log := testutil.NewTestLogger(t)
	mockClient, err := sendgrid.New(log, sendgrid.Config{Mode: sendgrid.ModeMock})
	if err != nil {
		t.Fatalf("sendgrid.New: %v", err)
	}
	svc, gdb, assignment := newEmailFixture(t, mockClient)

	outcome, err := svc.SendAssignment(context.Background(), assignment.ID, "See you Thursday")
	if err != nil {
		t.Fatalf("SendAssignment: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("mock send: want success, got error=%q", outcome.Error)
	}
	if outcome.EmailLog == nil || outcome.EmailLog.MessageID != "mock" {
		t.Fatalf("mock message id: got=%v", outcome.EmailLog)
	}
	if outcome.EmailLog.Status != types.EmailStatusSent {
		t.Fatalf("log status: want=sent got=%q", outcome.EmailLog.Status)
	}

	var stored types.Assignment
	if err := gdb.Where("id = ?", assignment.ID).First(&stored).Error; err != nil {
		t.Fatalf("reload assignment: %v", err)
	}
	if stored.Status != types.AssignmentStatusSent {
		t.Fatalf("assignment status: want=SENT got=%q", stored.Status)
	}
	if stored.SentAt == nil {
		t.Fatalf("sentAt not stamped")
	}
}

func TestSendAssignmentDisabledProvider(t *testing.T) {
	log := testutil.NewTestLogger(t)
	disabledClient, err := sendgrid.New(log, sendgrid.Config{Mode: sendgrid.ModeDisabled})
	if err != nil {
		t.Fatalf("sendgrid.New: %v", err)
	}
	svc, gdb, assignment := newEmailFixture(t, disabledClient)

	outcome, err := svc.SendAssignment(context.Background(), assignment.ID, "")
	if err != nil {
		t.Fatalf("SendAssignment: %v", err)
	}
	if outcome.Success {
		t.Fatalf("disabled send must fail")
	}
	if !strings.Contains(outcome.Error, "Email service not configured") {
		t.Fatalf("disabled error: got=%q", outcome.Error)
	}
	if outcome.EmailLog.Status != types.EmailStatusFailed {
		t.Fatalf("log status: want=failed got=%q", outcome.EmailLog.Status)
	}

	// The assignment must stay a draft.
	var stored types.Assignment
	if err := gdb.Where("id = ?", assignment.ID).First(&stored).Error; err != nil {
		t.Fatalf("reload assignment: %v", err)
	}
	if stored.Status != types.AssignmentStatusDraft {
		t.Fatalf("assignment status: want=DRAFT got=%q", stored.Status)
	}
	if stored.SentAt != nil {
		t.Fatalf("sentAt must stay empty on failure")
	}
}

func TestSendAssignmentProviderErrorIsLogged(t *testing.T) {
	sender := &recordingSender{err: fmt.Errorf("Unauthorized: invalid SendGrid API key")}
	svc, gdb, assignment := newEmailFixture(t, sender)

	outcome, err := svc.SendAssignment(context.Background(), assignment.ID, "")
	if err != nil {
		t.Fatalf("SendAssignment: %v", err)
	}
	if outcome.Success {
		t.Fatalf("provider error must surface as failure")
	}
	if outcome.EmailLog.ErrorMessage != "Unauthorized: invalid SendGrid API key" {
		t.Fatalf("log error message: got=%q", outcome.EmailLog.ErrorMessage)
	}

	var count int64
	if err := gdb.Model(&types.EmailLog{}).Where("assignment_id = ?", assignment.ID).Count(&count).Error; err != nil {
		t.Fatalf("count logs: %v", err)
	}
	if count != 1 {
		t.Fatalf("email log rows: want=1 got=%d", count)
	}
}

func TestSendAssignmentRendersEmailBody(t *testing.T) {
	sender := &recordingSender{result: &sendgrid.SendEmailResult{StatusCode: 202, MessageID: "sg-1"}}
	svc, _, assignment := newEmailFixture(t, sender)

	if _, err := svc.SendAssignment(context.Background(), assignment.ID, "Remember to bring\nyour notes"); err != nil {
		t.Fatalf("SendAssignment: %v", err)
	}
	if sender.lastRequest == nil {
		t.Fatalf("provider never called")
	}
	if sender.lastRequest.Subject != "Therapy Assignment: Thought Record Practice" {
		t.Fatalf("subject: got=%q", sender.lastRequest.Subject)
	}
	body := sender.lastRequest.HTML
	for _, want := range []string{
		"Thought Record Practice",
		"Assignment Description",
		"Learning Objectives",
		"Reflection Prompts",
		"Note from Test Therapist",
		"Remember to bring<br>your notes",
		"confidential information",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("email body missing %q", want)
		}
	}
}

func TestSendAssignmentMissing(t *testing.T) {
	sender := &recordingSender{result: &sendgrid.SendEmailResult{StatusCode: 202}}
	svc, _, _ := newEmailFixture(t, sender)

	_, err := svc.SendAssignment(context.Background(), uuid.New(), "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing assignment: want ErrNotFound got=%v", err)
	}
}

func TestListEmailLogs(t *testing.T) {
	log := testutil.NewTestLogger(t)
	mockClient, err := sendgrid.New(log, sendgrid.Config{Mode: sendgrid.ModeMock})
	if err != nil {
		t.Fatalf("sendgrid.New: %v", err)
	}
	svc, _, assignment := newEmailFixture(t, mockClient)
	ctx := context.Background()

	if _, err := svc.SendAssignment(ctx, assignment.ID, ""); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if _, err := svc.SendAssignment(ctx, assignment.ID, ""); err != nil {
		t.Fatalf("second send: %v", err)
	}

	logs, err := svc.ListEmailLogs(ctx, assignment.ID)
	if err != nil {
		t.Fatalf("ListEmailLogs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("log rows: want=2 got=%d", len(logs))
	}

	if _, err := svc.ListEmailLogs(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("logs for missing assignment: want ErrNotFound got=%v", err)
	}
}
