package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/artograph/artograph-backend/internal/clients/sendgrid"
	"github.com/artograph/artograph-backend/internal/logger"
	"github.com/artograph/artograph-backend/internal/repos"
	"github.com/artograph/artograph-backend/internal/types"
)

// SendOutcome mirrors what the caller needs to render: whether delivery
// succeeded, the log row that was written either way, and the provider
// error text when it failed.
type SendOutcome struct {
	Success  bool            `json:"success"`
	EmailLog *types.EmailLog `json:"emailLog"`
	Error    string          `json:"error,omitempty"`
}

type EmailService interface {
	SendAssignment(ctx context.Context, assignmentID uuid.UUID, therapistNote string) (*SendOutcome, error)
	ListEmailLogs(ctx context.Context, assignmentID uuid.UUID) ([]*types.EmailLog, error)
}

type emailService struct {
	db             *gorm.DB
	log            *logger.Logger
	assignmentRepo repos.AssignmentRepo
	emailLogRepo   repos.EmailLogRepo
	sendgridClient sendgrid.Client
}

func NewEmailService(
	db *gorm.DB,
	log *logger.Logger,
	assignmentRepo repos.AssignmentRepo,
	emailLogRepo repos.EmailLogRepo,
	sendgridClient sendgrid.Client,
) EmailService {
	serviceLog := log.With("service", "EmailService")
	return &emailService{
		db:             db,
		log:            serviceLog,
		assignmentRepo: assignmentRepo,
		emailLogRepo:   emailLogRepo,
		sendgridClient: sendgridClient,
	}
}

// SendAssignment emails the assignment to its client. One provider
// attempt, then exactly one EmailLog row; only a successful delivery
// moves the assignment to SENT. The log insert and the status update
// share a transaction so a crash between them cannot record a sent
// email without the status catching up. A missing client address is not
// pre-validated; the provider rejects it and the failure is logged like
// any other.
func (es *emailService) SendAssignment(ctx context.Context, assignmentID uuid.UUID, therapistNote string) (*SendOutcome, error) {
	assignment, err := es.assignmentRepo.GetByIDWithRelations(ctx, nil, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("assignment not found: %w", ErrNotFound)
		}
		return nil, err
	}
	if assignment.Client == nil {
		return nil, fmt.Errorf("assignment has no client: %w", ErrNotFound)
	}

	therapistName := "Therapist"
	if assignment.Therapist != nil && assignment.Therapist.Name != "" {
		therapistName = assignment.Therapist.Name
	}

	subject := "Therapy Assignment: " + assignment.Title
	htmlBody := renderAssignmentEmail(assignmentEmailParams{
		TherapistName:      therapistName,
		AssignmentTitle:    assignment.Title,
		TaskDescription:    assignment.TaskDescription,
		LearningObjectives: assignment.LearningObjectives,
		ReflectionPrompts:  assignment.ReflectionPrompts,
		TherapistNote:      therapistNote,
	})

	result, sendErr := es.sendgridClient.Send(ctx, sendgrid.SendEmailRequest{
		To:      []sendgrid.EmailAddress{{Email: assignment.Client.Email, Name: assignment.Client.Name}},
		Subject: subject,
		HTML:    htmlBody,
	})

	entry := &types.EmailLog{
		AssignmentID: assignment.ID,
		TherapistID:  assignment.TherapistID,
		ClientEmail:  assignment.Client.Email,
		Subject:      subject,
	}
	if sendErr != nil {
		entry.Status = types.EmailStatusFailed
		entry.ErrorMessage = sendErr.Error()
		es.log.Warn("Assignment email failed", "assignment_id", assignment.ID, "error", sendErr)
	} else {
		entry.Status = types.EmailStatusSent
		entry.MessageID = result.MessageID
	}

	txErr := es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := es.emailLogRepo.Create(ctx, tx, entry); err != nil {
			return fmt.Errorf("failed to write email log: %w", err)
		}
		if sendErr == nil {
			if err := es.assignmentRepo.MarkSent(ctx, tx, assignment.ID, time.Now()); err != nil {
				return fmt.Errorf("failed to mark assignment sent: %w", err)
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	outcome := &SendOutcome{
		Success:  sendErr == nil,
		EmailLog: entry,
	}
	if sendErr != nil {
		outcome.Error = sendErr.Error()
	}
	return outcome, nil
}

func (es *emailService) ListEmailLogs(ctx context.Context, assignmentID uuid.UUID) ([]*types.EmailLog, error) {
	if _, err := es.assignmentRepo.GetByID(ctx, nil, assignmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("assignment not found: %w", ErrNotFound)
		}
		return nil, err
	}
	return es.emailLogRepo.ListByAssignment(ctx, nil, assignmentID)
}

type assignmentEmailParams struct {
	TherapistName      string
	AssignmentTitle    string
	TaskDescription    string
	LearningObjectives string
	ReflectionPrompts  string
	TherapistNote      string
}

// renderAssignmentEmail produces the fixed assignment email body. Field
// values are escaped and newlines become <br> so multi-line objectives
// and prompts keep their shape.
func renderAssignmentEmail(p assignmentEmailParams) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<head>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background-color: #0ea5e9; color: white; padding: 20px; border-radius: 5px 5px 0 0; }
    .content { background-color: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
    .section { margin-bottom: 20px; }
    .section-title { font-weight: bold; color: #0ea5e9; margin-bottom: 10px; }
    .footer { background-color: #f3f4f6; padding: 15px; text-align: center; font-size: 12px; color: #6b7280; border-radius: 0 0 5px 5px; }
    ul { padding-left: 20px; }
    li { margin-bottom: 8px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>`)
	b.WriteString(html.EscapeString(p.AssignmentTitle))
	b.WriteString(`</h1>
    </div>
    <div class="content">
`)
	if strings.TrimSpace(p.TherapistNote) != "" {
		b.WriteString(`      <p><strong>Note from `)
		b.WriteString(html.EscapeString(p.TherapistName))
		b.WriteString(`:</strong> `)
		b.WriteString(htmlMultiline(p.TherapistNote))
		b.WriteString("</p><hr>\n")
	}
	writeSection(&b, "Assignment Description", p.TaskDescription)
	writeSection(&b, "Learning Objectives", p.LearningObjectives)
	writeSection(&b, "Reflection Prompts", p.ReflectionPrompts)
	b.WriteString(`      <div class="section">
        <p><strong>Please complete this assignment and reply with your reflections before our next session.</strong></p>
      </div>
    </div>
    <div class="footer">
      <p>This email contains confidential information. Please do not forward or share this content.</p>
      <p>If you have any questions, please contact `)
	b.WriteString(html.EscapeString(p.TherapistName))
	b.WriteString(` directly.</p>
    </div>
  </div>
</body>
</html>`)
	return b.String()
}

func writeSection(b *strings.Builder, title, body string) {
	b.WriteString(`      <div class="section">
        <div class="section-title">`)
	b.WriteString(html.EscapeString(title))
	b.WriteString(`</div>
        <div>`)
	b.WriteString(htmlMultiline(body))
	b.WriteString(`</div>
      </div>
`)
}

func htmlMultiline(s string) string {
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br>")
}
