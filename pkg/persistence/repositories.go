package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dukex/autoflow/pkg/models"
)

const (
	sessionPrefix  = "session:"
	workflowPrefix = "workflow:"
)

// SessionKey is the store key of the session for a (user, agent) pair.
func SessionKey(userID, agentID string) string {
	return sessionPrefix + userID + ":" + agentID
}

// WorkflowKey is the store key of a workflow.
func WorkflowKey(id string) string {
	return workflowPrefix + id
}

// SessionRepository keeps sessions as JSON documents.
type SessionRepository struct {
	store Store
}

func NewSessionRepository(store Store) *SessionRepository {
	return &SessionRepository{store: store}
}

// Get returns the session, or ErrNotFound when the pair has none yet.
func (r *SessionRepository) Get(ctx context.Context, userID, agentID string) (*models.Session, error) {
	key := SessionKey(userID, agentID)

	data, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, NewStoreError("GetSession", key, err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, NewStoreError("GetSession", key, fmt.Errorf("failed to decode session: %w", err))
	}

	return &session, nil
}

func (r *SessionRepository) Save(ctx context.Context, session *models.Session) error {
	key := SessionKey(session.UserID, session.AgentID)

	data, err := json.Marshal(session)
	if err != nil {
		return NewStoreError("SaveSession", key, fmt.Errorf("failed to encode session: %w", err))
	}

	if err := r.store.Put(ctx, key, data); err != nil {
		return NewStoreError("SaveSession", key, err)
	}

	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, userID, agentID string) error {
	key := SessionKey(userID, agentID)

	if err := r.store.Delete(ctx, key); err != nil {
		return NewStoreError("DeleteSession", key, err)
	}

	return nil
}

// WorkflowRepository keeps workflows as JSON documents.
type WorkflowRepository struct {
	store Store
}

func NewWorkflowRepository(store Store) *WorkflowRepository {
	return &WorkflowRepository{store: store}
}

// GetByID returns the workflow, or ErrNotFound.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	key := WorkflowKey(id)

	data, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, NewStoreError("GetWorkflow", key, err)
	}

	var workflow models.Workflow
	if err := json.Unmarshal(data, &workflow); err != nil {
		return nil, NewStoreError("GetWorkflow", key, fmt.Errorf("failed to decode workflow: %w", err))
	}

	return &workflow, nil
}

func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	key := WorkflowKey(workflow.ID)

	data, err := json.Marshal(workflow)
	if err != nil {
		return NewStoreError("SaveWorkflow", key, fmt.Errorf("failed to encode workflow: %w", err))
	}

	if err := r.store.Put(ctx, key, data); err != nil {
		return NewStoreError("SaveWorkflow", key, err)
	}

	return nil
}

// All returns every stored workflow. Entries deleted between listing and
// reading are skipped.
func (r *WorkflowRepository) All(ctx context.Context) ([]*models.Workflow, error) {
	keys, err := r.store.Keys(ctx, workflowPrefix)
	if err != nil {
		return nil, NewStoreError("ListWorkflows", workflowPrefix, err)
	}

	workflows := make([]*models.Workflow, 0, len(keys))

	for _, key := range keys {
		workflow, err := r.GetByID(ctx, strings.TrimPrefix(key, workflowPrefix))
		if IsNotFound(err) {
			continue
		}

		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}
