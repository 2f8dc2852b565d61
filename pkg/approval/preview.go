package approval

import (
	"fmt"
	"strings"

	"github.com/dukex/autoflow/pkg/models"
)

const bodyPreviewLimit = 500

// Preview renders the effects of every node, nested children included, in
// execution order.
func Preview(workflow *models.Workflow) *models.Preview {
	preview := &models.Preview{
		WorkflowID: workflow.ID,
		Status:     workflow.Status,
		Nodes:      make([]models.PreviewNode, 0, len(workflow.Nodes)),
	}

	for _, node := range workflow.Nodes {
		preview.Nodes = renderNode(preview.Nodes, node, 0, "")
	}

	return preview
}

func renderNode(out []models.PreviewNode, node *models.WorkflowNode, depth int, branch string) []models.PreviewNode {
	item := models.PreviewNode{
		NodeID: node.ID,
		Type:   node.Type,
		Depth:  depth,
		Fields: make(map[string]string),
	}

	if branch != "" {
		item.Fields["branch"] = branch
	}

	switch node.Type {
	case models.NodeTypeManual:
		item.Summary = "Runs once, right after approval"
	case models.NodeTypeCron:
		item.Summary = fmt.Sprintf("Runs on schedule %q (%s)", param(node, "cron"), orDefault(param(node, "timezone"), "UTC"))
		item.Fields["cron"] = param(node, "cron")
	case models.NodeTypeEmailSend:
		item.Summary = "Send an email to " + param(node, "toEmail")
		item.Fields["to"] = param(node, "toEmail")
		item.Fields["subject"] = param(node, "subject")
		item.Fields["body"] = truncate(param(node, "body"), bodyPreviewLimit)

		if cc := param(node, "cc"); cc != "" {
			item.Fields["cc"] = cc
		}
	case models.NodeTypeWebhook:
		method := strings.ToUpper(orDefault(param(node, "method"), "POST"))
		item.Summary = fmt.Sprintf("%s %s", method, param(node, "url"))
		item.Fields["url"] = param(node, "url")
		item.Fields["method"] = method

		if body := param(node, "body"); body != "" {
			item.Fields["body"] = truncate(body, bodyPreviewLimit)
		}
	case models.NodeTypeIfElse:
		item.Summary = "If " + param(node, "condition")
		item.Fields["condition"] = param(node, "condition")
	case models.NodeTypeLoopItems:
		item.Summary = "For each item in " + param(node, "items")
		item.Fields["items"] = param(node, "items")
	case models.NodeTypeTimer:
		item.Summary = "Wait " + param(node, "duration")
		item.Fields["duration"] = param(node, "duration")
	default:
		item.Summary = node.Type
	}

	out = append(out, item)

	for _, child := range node.Then {
		out = renderNode(out, child, depth+1, "then")
	}

	for _, child := range node.Else {
		out = renderNode(out, child, depth+1, "else")
	}

	for _, child := range node.Body {
		out = renderNode(out, child, depth+1, "body")
	}

	return out
}

func param(node *models.WorkflowNode, name string) string {
	value, ok := node.Parameters[name]
	if !ok || value == nil {
		return ""
	}

	return fmt.Sprint(value)
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}

	return value
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}

	return string(runes[:limit]) + "..."
}

// Render formats a preview as plain text for conversational replies.
func Render(preview *models.Preview) string {
	var b strings.Builder

	for i, node := range preview.Nodes {
		if i > 0 {
			b.WriteString("\n")
		}

		b.WriteString(strings.Repeat("  ", node.Depth))
		b.WriteString("- ")

		if branch := node.Fields["branch"]; branch != "" {
			b.WriteString("[" + branch + "] ")
		}

		b.WriteString(node.Summary)

		if node.Type == models.NodeTypeEmailSend {
			b.WriteString("\n" + strings.Repeat("  ", node.Depth+1) + "Subject: " + node.Fields["subject"])
			b.WriteString("\n" + strings.Repeat("  ", node.Depth+1) + "Body: " + node.Fields["body"])
		}
	}

	return b.String()
}
