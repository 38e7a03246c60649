package services_test

import (
	"errors"
	"testing"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
	"github.com/prajwalc1/employee-timeline/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEngine_Render(t *testing.T) {
	engine := services.NewRenderEngine()
	def := definition(t, domain.EventLeaveRequestApproved)
	tmpl := services.DefaultTemplates()[services.TemplateLeaveRequestApproved]

	t.Run("renders subject, html and text bodies", func(t *testing.T) {
		rc := approvedContext()
		rc["comment"] = "Enjoy!"

		msg, err := engine.Render(&tmpl, def, rc)

		require.NoError(t, err)
		assert.Equal(t, "Your leave request has been approved", msg.Subject)
		assert.Contains(t, msg.HTMLBody, "<strong>2024-07-01</strong>")
		assert.Contains(t, msg.HTMLBody, "Comment: Enjoy!")
		assert.Contains(t, msg.TextBody, "Hello Jane Doe,")
		assert.Contains(t, msg.TextBody, "approved by John Smith")
		assert.NotContains(t, msg.TextBody, "<p>")
	})

	t.Run("absent optional variable renders empty", func(t *testing.T) {
		msg, err := engine.Render(&tmpl, def, approvedContext())

		require.NoError(t, err)
		assert.NotContains(t, msg.HTMLBody, "Comment:")
	})

	t.Run("escapes injected markup in the body", func(t *testing.T) {
		rc := approvedContext()
		rc["employee"] = `<script>alert("x")</script>`

		msg, err := engine.Render(&tmpl, def, rc)

		require.NoError(t, err)
		assert.NotContains(t, msg.HTMLBody, "<script>")
		assert.Contains(t, msg.HTMLBody, "&lt;script&gt;")
	})

	t.Run("missing nested field fails", func(t *testing.T) {
		rc := approvedContext()
		rc["leaveRequest"] = map[string]any{"startDate": "2024-07-01"}

		msg, err := engine.Render(&tmpl, def, rc)

		assert.Nil(t, msg)
		assert.ErrorIs(t, err, apperrors.ErrRenderFailed)
		var renderErr *apperrors.RenderError
		require.True(t, errors.As(err, &renderErr))
		assert.Equal(t, services.TemplateLeaveRequestApproved, renderErr.Template)
	})
}

func TestRenderEngine_SubjectIsHeaderSafe(t *testing.T) {
	engine := services.NewRenderEngine()
	def := definition(t, domain.EventAccountCreated)
	tmpl := services.DefaultTemplates()[services.TemplateAccountCreated]

	msg, err := engine.Render(&tmpl, def, domain.RenderContext{
		"employee": "Eve\r\nBcc: attacker@example.com",
		"loginUrl": "https://timeline.example.com/login",
	})

	require.NoError(t, err)
	assert.NotContains(t, msg.Subject, "\r")
	assert.NotContains(t, msg.Subject, "\n")
	assert.Equal(t, "Welcome to Employee Timeline, Eve Bcc: attacker@example.com", msg.Subject)
}

func TestRenderEngine_Check(t *testing.T) {
	engine := services.NewRenderEngine()
	def := definition(t, domain.EventLeaveRequestApproved)

	tests := []struct {
		name    string
		subject string
		body    string
		wantErr bool
	}{
		{"field placeholders", "Hi {{.employee.name}}", "<p>{{.leaveRequest.startDate}}</p>", false},
		{"if and with blocks", "Hi", "{{if .comment}}{{.comment}}{{else}}none{{end}}{{with .manager}}{{.name}}{{end}}", false},
		{"reserved recipient key", "Hi", "{{.recipientEmail}}", false},
		{"undeclared variable", "Hi", "{{.salary}}", true},
		{"undeclared variable in subject", "{{.salary}}", "ok", true},
		{"function call", "Hi", `{{printf "%s" .comment}}`, true},
		{"pipeline", "Hi", "{{.comment | html}}", true},
		{"range", "Hi", "{{range .employee}}x{{end}}", true},
		{"variable declaration", "Hi", "{{$x := .comment}}{{$x}}", true},
		{"template definition", "Hi", `{{define "x"}}y{{end}}`, true},
		{"dot", "Hi", "{{.}}", true},
		{"unterminated action", "Hi", "{{.employee.name", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := engine.Check("leave-request-approved", tt.subject, tt.body, def)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrRenderFailed)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRenderEngine_AllDefaultsRenderWithSamples(t *testing.T) {
	engine := services.NewRenderEngine()
	defaults := services.DefaultTemplates()

	for _, def := range services.DefaultEventDefinitions() {
		t.Run(string(def.Type), func(t *testing.T) {
			tmpl := defaults[def.Template]
			msg, err := engine.Render(&tmpl, def, def.Sample)

			require.NoError(t, err)
			assert.NotEmpty(t, msg.Subject)
			assert.NotEmpty(t, msg.TextBody)
		})
	}
}
