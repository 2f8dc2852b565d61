// Package validation checks workflow nodes against their node specs.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/dukex/autoflow/pkg/drivers"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/registry"
	"github.com/dukex/autoflow/pkg/template"
	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

// Validator checks nodes against the node spec registry. It never mutates
// the nodes it inspects.
type Validator struct {
	specs    *registry.NodeSpecs
	validate *validator.Validate
}

func New(specs *registry.NodeSpecs) *Validator {
	return &Validator{
		specs:    specs,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Validate returns the sorted required parameters that are absent or empty.
func (v *Validator) Validate(node *models.WorkflowNode) ([]string, error) {
	spec, err := v.specs.Get(node.Type)
	if err != nil {
		return nil, err
	}

	missing := make([]string, 0)

	for _, name := range spec.Required {
		if isEmpty(node.Parameters[name]) {
			missing = append(missing, name)
		}
	}

	slices.Sort(missing)

	return missing, nil
}

// ValidateWorkflow checks structure and required parameters of every node,
// including nested children. Missing parameters are collected into a single
// MissingParametersError.
func (v *Validator) ValidateWorkflow(workflow *models.Workflow) error {
	if len(workflow.Nodes) == 0 {
		return &WorkflowError{Message: "workflow has no nodes"}
	}

	if !workflow.Nodes[0].IsTrigger() {
		return &WorkflowError{NodeID: workflow.Nodes[0].ID, Message: "first node must be a trigger"}
	}

	seen := make(map[string]bool)
	missing := make([]models.MissingField, 0)

	var walkErr error

	for i, top := range workflow.Nodes {
		top.Walk(func(node *models.WorkflowNode) {
			if walkErr != nil {
				return
			}

			walkErr = v.checkNode(node, i == 0 && node == top, seen, &missing)
		})

		if walkErr != nil {
			return walkErr
		}
	}

	if len(missing) > 0 {
		return &MissingParametersError{Missing: missing}
	}

	return nil
}

func (v *Validator) checkNode(node *models.WorkflowNode, triggerSlot bool, seen map[string]bool, missing *[]models.MissingField) error {
	if err := v.validate.Struct(node); err != nil {
		return &WorkflowError{NodeID: node.ID, Message: err.Error()}
	}

	if seen[node.ID] {
		return &WorkflowError{NodeID: node.ID, Message: "duplicate node id"}
	}

	seen[node.ID] = true

	spec, err := v.specs.Get(node.Type)
	if err != nil {
		return err
	}

	if spec.Role != node.Role {
		return &WorkflowError{NodeID: node.ID, Message: fmt.Sprintf("node type %s must have role %s", node.Type, spec.Role)}
	}

	if node.IsTrigger() != triggerSlot {
		return &WorkflowError{NodeID: node.ID, Message: "a workflow has exactly one trigger, in first position"}
	}

	if len(node.Then)+len(node.Else) > 0 && node.Type != models.NodeTypeIfElse {
		return &WorkflowError{NodeID: node.ID, Message: "only if_else nodes may have branches"}
	}

	if len(node.Body) > 0 && node.Type != models.NodeTypeLoopItems {
		return &WorkflowError{NodeID: node.ID, Message: "only loop_items nodes may have a body"}
	}

	fields, _ := v.Validate(node)
	for _, field := range fields {
		*missing = append(*missing, models.MissingField{NodeID: node.ID, Field: field})
	}

	return nil
}

// CheckFormats verifies present parameters against the spec's JSON schema and
// the email/url format rules. Templated values are skipped since they only
// take their final form at dispatch time.
func (v *Validator) CheckFormats(node *models.WorkflowNode) error {
	spec, err := v.specs.Get(node.Type)
	if err != nil {
		return err
	}

	data := make(map[string]any, len(node.Parameters))

	for name, value := range node.Parameters {
		if str, ok := value.(string); ok && (template.NeedsTemplating(str) || str == "") {
			continue
		}

		data[name] = value
	}

	var problems []string

	if spec.Schema != nil {
		result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(spec.Schema), gojsonschema.NewGoLoader(data))
		if err != nil {
			return fmt.Errorf("schema validation for node %s: %w", node.ID, err)
		}

		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
	}

	problems = append(problems, v.checkTags(node.Type, data)...)

	if len(problems) > 0 {
		return &FormatError{NodeID: node.ID, Problems: problems}
	}

	return nil
}

// CheckWorkflowFormats runs CheckFormats on every node and joins the failures.
func (v *Validator) CheckWorkflowFormats(workflow *models.Workflow) error {
	var errs []error

	workflow.Walk(func(node *models.WorkflowNode) {
		if err := v.CheckFormats(node); err != nil {
			errs = append(errs, err)
		}
	})

	return errors.Join(errs...)
}

func (v *Validator) checkTags(nodeType string, data map[string]any) []string {
	var problems []string

	check := func(field, tag string, values ...string) {
		for _, value := range values {
			if err := v.validate.Var(value, tag); err != nil {
				problems = append(problems, fmt.Sprintf("%s: %q is not a valid %s", field, value, tag))
			}
		}
	}

	switch nodeType {
	case models.NodeTypeEmailSend:
		check("toEmail", "email", drivers.SplitList(drivers.String(data, "toEmail"))...)
		check("cc", "email", drivers.SplitList(drivers.String(data, "cc"))...)

		if from := drivers.String(data, "fromEmail"); from != "" {
			check("fromEmail", "email", from)
		}
	case models.NodeTypeWebhook:
		if url := drivers.String(data, "url"); url != "" {
			check("url", "http_url", url)
		}
	}

	return problems
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}

	if str, ok := value.(string); ok {
		return strings.TrimSpace(str) == ""
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	default:
		return false
	}
}
