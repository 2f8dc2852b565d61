// Package builder turns a classified automation request into a draft workflow.
package builder

import (
	"fmt"
	"time"

	"github.com/dukex/autoflow/pkg/gate"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/registry"
	"github.com/google/uuid"
)

const DefaultSubject = "Hello"

type Builder struct {
	specs          *registry.NodeSpecs
	defaultSubject string
	now            func() time.Time
}

type Option func(*Builder)

// WithDefaultSubject sets the subject used when the message names none.
func WithDefaultSubject(subject string) Option {
	return func(b *Builder) {
		if subject != "" {
			b.defaultSubject = subject
		}
	}
}

func New(specs *registry.NodeSpecs, opts ...Option) *Builder {
	b := &Builder{
		specs:          specs,
		defaultSubject: DefaultSubject,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Build returns a draft workflow with a single trigger followed by one
// email_send per recipient. content, when set, becomes the body of every
// action; otherwise the request text is used and, if content was asked for,
// a ContentRequest is recorded on the workflow.
func (b *Builder) Build(intent models.ExtractedIntent, content string) (*models.Workflow, error) {
	if intent.PrimaryIntent != models.IntentAutomationRequest {
		return nil, &BuildError{Field: "intent", Err: ErrNotAutomation}
	}

	if !intent.Entities.HasRecipients() {
		return nil, &BuildError{Field: "toEmail", Err: ErrMissingRecipient}
	}

	trigger, err := b.trigger(intent.Entities.ScheduleHint)
	if err != nil {
		return nil, err
	}

	body := content
	if body == "" {
		body = intent.Message
	}

	subject := b.subject(intent.Entities)

	nodes := []*models.WorkflowNode{trigger}

	actions, err := b.emailActions(intent.Entities.RecipientEmails, subject, body, "")
	if err != nil {
		return nil, err
	}

	nodes = append(nodes, actions...)

	now := b.now().UTC()
	snapshot := intent

	workflow := &models.Workflow{
		ID:          uuid.New().String(),
		Nodes:       nodes,
		Status:      models.WorkflowStatusDraft,
		Transitions: make([]models.Transition, 0),
		Content:     content,
		Intent:      &snapshot,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if content == "" && intent.ContentRequested {
		workflow.ContentRequest = &models.ContentRequest{
			Prompt:     intent.Message,
			StyleHints: StyleHintsFor(intent),
		}
	}

	return workflow, nil
}

// StyleHintsFor derives generation hints from a classified message.
func StyleHintsFor(intent models.ExtractedIntent) models.StyleHints {
	hints := models.StyleHints{
		Tone:     "friendly",
		Purpose:  "email",
		Company:  intent.Entities.CompanyName,
		Product:  intent.Entities.ProductName,
		Provider: intent.ProviderHint,
	}

	if gate.HasOutreachFraming(intent.Message) {
		hints.Tone = "professional"
		hints.Purpose = "outreach"
	}

	return hints
}

func (b *Builder) trigger(schedule string) (*models.WorkflowNode, error) {
	if schedule == "" {
		return b.node("trigger", models.NodeTypeManual, models.RoleTrigger, map[string]any{})
	}

	return b.node("trigger", models.NodeTypeCron, models.RoleTrigger, map[string]any{"cron": schedule})
}

func (b *Builder) emailActions(recipients []string, subject, body, cc string) ([]*models.WorkflowNode, error) {
	actions := make([]*models.WorkflowNode, 0, len(recipients))

	for i, recipient := range recipients {
		params := map[string]any{
			"toEmail": recipient,
			"subject": subject,
			"body":    body,
		}

		if cc != "" {
			params["cc"] = cc
		}

		node, err := b.node(fmt.Sprintf("send_email_%d", i+1), models.NodeTypeEmailSend, models.RoleAction, params)
		if err != nil {
			return nil, err
		}

		actions = append(actions, node)
	}

	return actions, nil
}

func (b *Builder) node(id, nodeType string, role models.Role, params map[string]any) (*models.WorkflowNode, error) {
	withDefaults, err := b.specs.WithDefaults(nodeType, params)
	if err != nil {
		return nil, &BuildError{Field: "type", Err: err}
	}

	return &models.WorkflowNode{
		ID:         id,
		Type:       nodeType,
		Role:       role,
		Parameters: withDefaults,
	}, nil
}

func (b *Builder) subject(entities models.Entities) string {
	switch {
	case entities.SubjectHint != "":
		return entities.SubjectHint
	case entities.ProductName != "" && entities.CompanyName != "":
		return fmt.Sprintf("Introducing %s by %s", entities.ProductName, entities.CompanyName)
	case entities.ProductName != "":
		return "Introducing " + entities.ProductName
	case entities.CompanyName != "":
		return "A note from " + entities.CompanyName
	default:
		return b.defaultSubject
	}
}
