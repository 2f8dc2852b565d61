package builder

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dukex/autoflow/pkg/models"
)

var (
	subjectEditPattern   = regexp.MustCompile(`(?i)\bsubject(?:\s+line)?\s*(?:to|:|=|as)\s*["“']?([^"”'\n]+?)["”']?\s*$`)
	bodyEditPattern      = regexp.MustCompile(`(?is)\b(?:body|content)\s*(?:to|:|=|as)\s*["“]?(.+?)["”]?\s*$`)
	recipientEditPattern = regexp.MustCompile(`(?i)(?:\brecipients?\b|\bto:|\bsend\s+(?:it\s+)?to\b|\binstead\b)`)
)

// Edit is a change requested while reviewing a preview.
type Edit struct {
	Subject    string
	Body       string
	Recipients []string
}

func (e Edit) IsEmpty() bool {
	return e.Subject == "" && e.Body == "" && len(e.Recipients) == 0
}

// ParseEdit reads subject, body and recipient changes from a reply.
// recipients are the addresses extracted from the same reply.
func ParseEdit(message string, recipients []string) Edit {
	var edit Edit

	if match := subjectEditPattern.FindStringSubmatch(message); match != nil {
		edit.Subject = strings.TrimSpace(match[1])
	}

	if match := bodyEditPattern.FindStringSubmatch(message); match != nil && edit.Subject == "" && !mentionsAny(match[1], recipients) {
		edit.Body = strings.TrimSpace(match[1])
	}

	if len(recipients) > 0 && (recipientEditPattern.MatchString(message) || edit.Subject == "" && edit.Body == "") {
		edit.Recipients = recipients
	}

	return edit
}

func mentionsAny(text string, values []string) bool {
	lower := strings.ToLower(text)
	for _, value := range values {
		if strings.Contains(lower, strings.ToLower(value)) {
			return true
		}
	}

	return false
}

// ApplyContent fills generated content into every content-bearing node and
// clears the pending content request.
func ApplyContent(workflow *models.Workflow, content string) {
	workflow.Content = content
	workflow.ContentRequest = nil

	workflow.Walk(func(node *models.WorkflowNode) {
		switch node.Type {
		case models.NodeTypeEmailSend, models.NodeTypeWebhook:
			node.Parameters["body"] = content
		}
	})
}

// ApplyEdit changes the workflow in place. Replacing recipients rebuilds the
// email fan-out from the first email action.
func (b *Builder) ApplyEdit(workflow *models.Workflow, edit Edit) error {
	if edit.IsEmpty() {
		return ErrEmptyEdit
	}

	workflow.Walk(func(node *models.WorkflowNode) {
		if node.Type != models.NodeTypeEmailSend {
			return
		}

		if edit.Subject != "" {
			node.Parameters["subject"] = edit.Subject
		}

		if edit.Body != "" {
			node.Parameters["body"] = edit.Body
		}
	})

	if edit.Body != "" {
		workflow.Content = edit.Body
		workflow.ContentRequest = nil
	}

	if len(edit.Recipients) == 0 {
		return nil
	}

	first := -1

	kept := make([]*models.WorkflowNode, 0, len(workflow.Nodes))
	for i, node := range workflow.Nodes {
		if node.Type == models.NodeTypeEmailSend {
			if first == -1 {
				first = i
			}

			continue
		}

		kept = append(kept, node)
	}

	if first == -1 {
		return &BuildError{Field: "toEmail", Err: fmt.Errorf("workflow %s has no email action to redirect", workflow.ID)}
	}

	template := workflow.Nodes[first]

	actions, err := b.emailActions(edit.Recipients, template.StringParam("subject"), template.StringParam("body"), template.StringParam("cc"))
	if err != nil {
		return err
	}

	// kept[:first] are the nodes that preceded the first email action
	nodes := make([]*models.WorkflowNode, 0, len(kept)+len(actions))
	nodes = append(nodes, kept[:first]...)
	nodes = append(nodes, actions...)
	nodes = append(nodes, kept[first:]...)

	workflow.Nodes = nodes

	return nil
}
