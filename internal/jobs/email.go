package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/fitqueue/core/email"
	"github.com/dmitrymomot/fitqueue/core/logger"
	"github.com/dmitrymomot/fitqueue/core/queue"
)

var emailSubjects = map[string]string{
	TypeWelcomeEmail:    "Welcome to FitQueue!",
	TypeWorkoutReminder: "Time for your workout",
	TypeProgressReport:  "Your progress report",
	TypeNewsletter:      "FitQueue newsletter",
}

type emailView struct {
	Email  string
	AppURL string
	Data   map[string]any
}

func payloadOf(job EmailJob) EmailPayload {
	switch j := job.(type) {
	case WelcomeEmail:
		return j.EmailPayload
	case WorkoutReminder:
		return j.EmailPayload
	case ProgressReport:
		return j.EmailPayload
	case Newsletter:
		return j.EmailPayload
	}
	return EmailPayload{}
}

// sendEmail renders the template named after the job type and dispatches it.
// A "subject" entry in Data overrides the default subject.
func (r *Registry) sendEmail(ctx context.Context, job EmailJob) (EmailResult, error) {
	p := payloadOf(job)
	jobType := job.JobType()

	if !email.IsValidAddress(p.Email) {
		return EmailResult{}, queue.Permanent(fmt.Errorf("%w: %q", ErrInvalidEmail, p.Email))
	}

	body, err := r.emails.Render(jobType, emailView{Email: p.Email, AppURL: r.cfg.AppURL, Data: p.Data})
	if err != nil {
		return EmailResult{}, queue.Permanent(err)
	}

	subject := emailSubjects[jobType]
	if s, ok := p.Data["subject"].(string); ok && s != "" {
		subject = s
	}

	id, err := r.deps.Email.SendEmail(ctx, email.SendEmailParams{
		SendTo:   p.Email,
		Subject:  subject,
		BodyHTML: body,
		Tag:      jobType,
	})
	if err != nil {
		err = fmt.Errorf("failed to send %s email: %w", jobType, err)
		if errors.Is(err, email.ErrInvalidParams) {
			return EmailResult{}, queue.Permanent(err)
		}
		return EmailResult{}, err
	}

	r.logger.InfoContext(ctx, "email sent",
		logger.JobType(jobType),
		logger.UserID(p.UserID),
		logger.Action("send_email"))

	return EmailResult{EmailID: id}, nil
}
