package services

import "github.com/prajwalc1/employee-timeline/internal/core/domain"

// Template names shipped with the application.
const (
	TemplateLeaveRequestCreated   = "leave-request-created"
	TemplateLeaveRequestApproved  = "leave-request-approved"
	TemplateLeaveRequestDenied    = "leave-request-denied"
	TemplateLeaveRequestCancelled = "leave-request-cancelled"
	TemplateTimeEntryReminder     = "time-entry-reminder"
	TemplateTimeEntryApproved     = "time-entry-approved"
	TemplateMonthlyReport         = "monthly-report"
	TemplatePasswordReset         = "password-reset"
	TemplateAccountCreated        = "account-created"
)

const footer = `<p style="color:#888;font-size:12px">This message was sent by Employee Timeline. Please do not reply.</p>`

// DefaultTemplates returns a fresh copy of the shipped templates keyed by name.
func DefaultTemplates() map[string]domain.Template {
	defaults := []domain.Template{
		{
			Name:    TemplateLeaveRequestCreated,
			Subject: "New leave request from {{.employee}}",
			Body: `<p>Hello {{.manager}},</p>
<p>{{.employee}} has requested leave from <strong>{{.leaveRequest.startDate}}</strong> to <strong>{{.leaveRequest.endDate}}</strong>.</p>
<p>Please review the request in Employee Timeline.</p>` + footer,
		},
		{
			Name:    TemplateLeaveRequestApproved,
			Subject: "Your leave request has been approved",
			Body: `<p>Hello {{.employee}},</p>
<p>Your leave request from <strong>{{.leaveRequest.startDate}}</strong> to <strong>{{.leaveRequest.endDate}}</strong> was approved by {{.manager}}.</p>
{{if .comment}}<p>Comment: {{.comment}}</p>{{end}}` + footer,
		},
		{
			Name:    TemplateLeaveRequestDenied,
			Subject: "Your leave request has been denied",
			Body: `<p>Hello {{.employee}},</p>
<p>Your leave request from <strong>{{.leaveRequest.startDate}}</strong> to <strong>{{.leaveRequest.endDate}}</strong> was denied by {{.manager}}.</p>
{{if .reason}}<p>Reason: {{.reason}}</p>{{end}}` + footer,
		},
		{
			Name:    TemplateLeaveRequestCancelled,
			Subject: "Leave request cancelled",
			Body: `<p>Hello {{.employee}},</p>
<p>The leave request from <strong>{{.leaveRequest.startDate}}</strong> to <strong>{{.leaveRequest.endDate}}</strong> has been cancelled.</p>
{{if .manager}}<p>{{.manager}} has been informed.</p>{{end}}` + footer,
		},
		{
			Name:    TemplateTimeEntryReminder,
			Subject: "Reminder: log your time for {{.date}}",
			Body: `<p>Hello {{.employee}},</p>
<p>We have not received your time entry for <strong>{{.date}}</strong>. Please record your hours.</p>` + footer,
		},
		{
			Name:    TemplateTimeEntryApproved,
			Subject: "Time entry for {{.timeEntry.date}} approved",
			Body: `<p>Hello {{.employee}},</p>
<p>Your time entry for <strong>{{.timeEntry.date}}</strong> ({{.timeEntry.hours}} hours) was approved by {{.manager}}.</p>` + footer,
		},
		{
			Name:    TemplateMonthlyReport,
			Subject: "Your monthly report for {{.month}}",
			Body: `<p>Hello {{.employee}},</p>
<p>Your report for <strong>{{.month}}</strong> is ready. Total hours: {{.totalHours}}.</p>
{{if .overtimeHours}}<p>Overtime: {{.overtimeHours}} hours.</p>{{end}}
{{if .reportUrl}}<p><a href="{{.reportUrl}}">View the full report</a></p>{{end}}` + footer,
		},
		{
			Name:    TemplatePasswordReset,
			Subject: "Reset your Employee Timeline password",
			Body: `<p>Hello {{.employee}},</p>
<p>We received a request to reset your password. <a href="{{.resetLink}}">Choose a new password</a>.</p>
{{if .expiresIn}}<p>This link expires in {{.expiresIn}}.</p>{{end}}
<p>If you did not request this, you can ignore this email.</p>` + footer,
		},
		{
			Name:    TemplateAccountCreated,
			Subject: "Welcome to Employee Timeline, {{.employee}}",
			Body: `<p>Hello {{.employee}},</p>
<p>An account has been created for you. <a href="{{.loginUrl}}">Sign in</a> to get started.</p>` + footer,
		},
	}

	out := make(map[string]domain.Template, len(defaults))
	for _, t := range defaults {
		out[t.Name] = t
	}
	return out
}
