package services

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"text/template/parse"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
)

// RecipientKey is the reserved render-context key holding recipient
// addresses. It is implicitly optional for every event.
const RecipientKey = "recipientEmail"

// RenderEngine renders declarative templates: field placeholders plus
// if/with blocks over fields. Bodies are HTML-escaped contextually and
// subjects are stripped of line breaks.
type RenderEngine struct{}

var _ ports.Renderer = (*RenderEngine)(nil)

// NewRenderEngine creates a new render engine
func NewRenderEngine() *RenderEngine {
	return &RenderEngine{}
}

// Check parses subject and body and verifies that they only use supported
// constructs and only reference variables declared by def.
func (e *RenderEngine) Check(name, subject, body string, def domain.EventDefinition) error {
	for part, text := range map[string]string{"subject": subject, "body": body} {
		refs, err := inspect(text)
		if err != nil {
			return &apperrors.RenderError{Template: name, Err: fmt.Errorf("%s: %w", part, err)}
		}
		for _, ref := range refs {
			if ref == RecipientKey || def.Declares(ref) {
				continue
			}
			return &apperrors.RenderError{
				Template: name,
				Err:      fmt.Errorf("%s references undeclared variable %q", part, ref),
			}
		}
	}
	return nil
}

// Render produces the final subject, HTML body and plain-text alternative.
func (e *RenderEngine) Render(tmpl *domain.Template, def domain.EventDefinition, rc domain.RenderContext) (*domain.RenderedMessage, error) {
	if err := e.Check(tmpl.Name, tmpl.Subject, tmpl.Body, def); err != nil {
		return nil, err
	}

	data := make(map[string]any, len(rc)+len(def.Optional))
	for k, v := range rc {
		data[k] = v
	}
	for _, name := range def.Optional {
		if _, ok := data[name]; !ok {
			data[name] = ""
		}
	}

	subject, err := renderSubject(tmpl.Name, tmpl.Subject, data)
	if err != nil {
		return nil, &apperrors.RenderError{Template: tmpl.Name, Err: err}
	}

	body, err := renderBody(tmpl.Name, tmpl.Body, data)
	if err != nil {
		return nil, &apperrors.RenderError{Template: tmpl.Name, Err: err}
	}

	return &domain.RenderedMessage{
		Subject:  subject,
		HTMLBody: body,
		TextBody: htmlToText(body),
	}, nil
}

func renderSubject(name, text string, data map[string]any) (string, error) {
	t, err := texttemplate.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse subject: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute subject: %w", err)
	}

	subject := strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(buf.String())
	return strings.TrimSpace(subject), nil
}

func renderBody(name, text string, data map[string]any) (string, error) {
	t, err := htmltemplate.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse body: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute body: %w", err)
	}
	return buf.String(), nil
}

// inspect parses text and returns the top-level variables it references.
func inspect(text string) ([]string, error) {
	trees, err := parse.Parse("t", text, "", "")
	if err != nil {
		return nil, fmt.Errorf("malformed markup: %w", err)
	}
	if len(trees) > 1 {
		return nil, fmt.Errorf("malformed markup: template definitions are not allowed")
	}

	var refs []string
	seen := map[string]bool{}
	record := func(name string) {
		if !seen[name] {
			seen[name] = true
			refs = append(refs, name)
		}
	}

	for _, tree := range trees {
		if tree.Root == nil {
			continue
		}
		if err := walk(tree.Root, true, record); err != nil {
			return nil, err
		}
	}
	return refs, nil
}

// walk validates node. topLevel is false inside a with block, where dot
// no longer refers to the render context.
func walk(node parse.Node, topLevel bool, record func(string)) error {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return nil
		}
		for _, child := range n.Nodes {
			if err := walk(child, topLevel, record); err != nil {
				return err
			}
		}
		return nil
	case *parse.TextNode, *parse.CommentNode:
		return nil
	case *parse.ActionNode:
		return checkPipe(n.Pipe, topLevel, record)
	case *parse.IfNode:
		if err := checkPipe(n.Pipe, topLevel, record); err != nil {
			return err
		}
		if err := walk(n.List, topLevel, record); err != nil {
			return err
		}
		return walk(n.ElseList, topLevel, record)
	case *parse.WithNode:
		if err := checkPipe(n.Pipe, topLevel, record); err != nil {
			return err
		}
		if err := walk(n.List, false, record); err != nil {
			return err
		}
		return walk(n.ElseList, topLevel, record)
	default:
		return fmt.Errorf("malformed markup: unsupported construct %q", node.String())
	}
}

func checkPipe(pipe *parse.PipeNode, topLevel bool, record func(string)) error {
	if pipe == nil || len(pipe.Decl) > 0 || len(pipe.Cmds) != 1 || len(pipe.Cmds[0].Args) != 1 {
		return fmt.Errorf("malformed markup: only field placeholders are allowed, got %q", pipe)
	}

	field, ok := pipe.Cmds[0].Args[0].(*parse.FieldNode)
	if !ok {
		return fmt.Errorf("malformed markup: only field placeholders are allowed, got %q", pipe)
	}
	if topLevel {
		record(field.Ident[0])
	}
	return nil
}

// htmlToText derives a readable plain-text body from rendered HTML.
func htmlToText(src string) string {
	z := html.NewTokenizer(strings.NewReader(src))
	var b strings.Builder
	skip := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return tidyText(b.String())
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style:
				if tt == html.StartTagToken {
					skip++
				} else if tt == html.EndTagToken && skip > 0 {
					skip--
				}
			case atom.Br, atom.P, atom.Div, atom.Tr, atom.Li, atom.Table,
				atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				b.WriteByte('\n')
			}
		}
	}
}

func tidyText(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
