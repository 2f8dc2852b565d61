package registry

import "github.com/dukex/autoflow/pkg/models"

// BuiltinNodeSpecs returns the specs of the node types shipped with autoflow.
func BuiltinNodeSpecs() []models.NodeSpec {
	return []models.NodeSpec{
		{
			Type:        models.NodeTypeManual,
			Role:        models.RoleTrigger,
			Description: "Starts the workflow once, right after approval",
			Required:    []string{},
			Optional:    map[string]any{},
			Schema: map[string]any{
				"type": "object",
			},
		},
		{
			Type:        models.NodeTypeCron,
			Role:        models.RoleTrigger,
			Description: "Starts the workflow on a cron schedule",
			Required:    []string{"cron"},
			Optional:    map[string]any{"timezone": "UTC"},
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"cron":     map[string]any{"type": "string", "minLength": 9},
					"timezone": map[string]any{"type": "string"},
				},
			},
		},
		{
			Type:        models.NodeTypeEmailSend,
			Role:        models.RoleAction,
			Description: "Sends an email to a single recipient",
			Required:    []string{"toEmail", "subject", "body"},
			Optional:    map[string]any{"cc": "", "fromEmail": ""},
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"toEmail":   map[string]any{"type": "string", "format": "email"},
					"subject":   map[string]any{"type": "string", "maxLength": 998},
					"body":      map[string]any{"type": "string"},
					"cc":        map[string]any{"type": "string"},
					"fromEmail": map[string]any{"type": "string"},
				},
			},
		},
		{
			Type:        models.NodeTypeWebhook,
			Role:        models.RoleAction,
			Description: "Performs an HTTP request",
			Required:    []string{"url"},
			Optional: map[string]any{
				"method":  "POST",
				"headers": map[string]any{},
				"body":    "",
				"timeout": 30,
			},
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{"type": "string", "format": "uri"},
					"method": map[string]any{
						"type": "string",
						"enum": []any{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
					},
					"headers": map[string]any{"type": "object"},
					"body":    map[string]any{"type": "string"},
					"timeout": map[string]any{"type": "number", "minimum": 1, "maximum": 300},
				},
			},
		},
		{
			Type:        models.NodeTypeIfElse,
			Role:        models.RoleAction,
			Description: "Runs the then branch when the condition is truthy, the else branch otherwise",
			Required:    []string{"condition"},
			Optional:    map[string]any{},
			Schema: map[string]any{
				"type": "object",
			},
		},
		{
			Type:        models.NodeTypeLoopItems,
			Role:        models.RoleAction,
			Description: "Runs the body once per item",
			Required:    []string{"items"},
			Optional:    map[string]any{"max_iterations": 25},
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"max_iterations": map[string]any{"type": "number", "minimum": 1},
				},
			},
		},
		{
			Type:        models.NodeTypeTimer,
			Role:        models.RoleAction,
			Description: "Waits for a duration such as 30s or 5m",
			Required:    []string{"duration"},
			Optional:    map[string]any{},
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"duration": map[string]any{"type": "string"},
				},
			},
		},
	}
}
