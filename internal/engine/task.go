package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"talentos/internal/domain"
	"talentos/internal/repo"
)

var (
	taskTypes = map[string]struct{}{
		"platform_appeal": {},
		"brand_deal":      {},
		"crisis_response": {},
		"talent_request":  {},
		"general":         {},
	}
	taskPriorities = map[string]struct{}{
		"low":    {},
		"medium": {},
		"high":   {},
		"urgent": {},
	}
	taskStatuses = map[string]struct{}{
		"pending":     {},
		"in_progress": {},
		"completed":   {},
		"blocked":     {},
	}
	// taskStatusOrder fixes the board column order.
	taskStatusOrder = []string{"pending", "in_progress", "blocked", "completed"}
)

// ensureTaskTransition enforces the single lifecycle rule: completed is
// terminal, everything else moves freely.
func ensureTaskTransition(id, from, to string) error {
	if _, ok := taskStatuses[to]; !ok {
		return invalid("task", "status", "must be one of pending, in_progress, completed, blocked")
	}
	if from == "completed" {
		return conflict("task", id, "transition", "task is completed")
	}
	return nil
}

// TaskCreateOptions are parameters for opening a task.
type TaskCreateOptions struct {
	Title       string
	Type        string
	Priority    string
	AssigneeID  string
	TalentID    string
	DueDate     string
	Description string
	ActorID     string
}

func (e Engine) CreateTask(ctx context.Context, opts TaskCreateOptions) (domain.Task, error) {
	if strings.TrimSpace(opts.Title) == "" {
		return domain.Task{}, invalid("task", "title", "required")
	}
	typ := opts.Type
	if typ == "" {
		typ = "general"
	}
	if _, ok := taskTypes[typ]; !ok {
		return domain.Task{}, invalid("task", "type", "must be one of platform_appeal, brand_deal, crisis_response, talent_request, general")
	}
	priority := opts.Priority
	if priority == "" {
		priority = "medium"
	}
	if _, ok := taskPriorities[priority]; !ok {
		return domain.Task{}, invalid("task", "priority", "must be one of low, medium, high, urgent")
	}
	var due *string
	if strings.TrimSpace(opts.DueDate) != "" {
		ts, err := time.Parse(time.RFC3339, opts.DueDate)
		if err != nil {
			return domain.Task{}, invalid("task", "due_date", "must be RFC 3339")
		}
		v := ts.UTC().Format(time.RFC3339)
		due = &v
	}
	if opts.TalentID != "" {
		if _, err := e.Repo.GetTalent(ctx, opts.TalentID); err != nil {
			return domain.Task{}, mapGetErr("talent", opts.TalentID, err)
		}
	}
	now := e.nowRFC3339()
	t := domain.Task{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(opts.Title),
		Type:        typ,
		Priority:    priority,
		Status:      "pending",
		DueDate:     due,
		Description: strings.TrimSpace(opts.Description),
		CreatedBy:   opts.ActorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if opts.AssigneeID != "" {
		t.AssigneeID = strPtr(opts.AssigneeID)
	}
	if opts.TalentID != "" {
		t.TalentID = strPtr(opts.TalentID)
	}
	if err := e.Repo.InsertTask(ctx, t); err != nil {
		return domain.Task{}, storage("task", "create", err)
	}
	return t, e.appendAudit(ctx, "task", t.ID, "created", opts.ActorID, t.Title, nil)
}

func (e Engine) GetTask(ctx context.Context, id string) (domain.Task, error) {
	t, err := e.Repo.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, mapGetErr("task", id, err)
	}
	return t, nil
}

func (e Engine) ListTasks(ctx context.Context, f repo.TaskFilters) ([]domain.Task, error) {
	res, err := e.Repo.ListTasks(ctx, f)
	if err != nil {
		return nil, storage("task", "list", err)
	}
	return res, nil
}

// SetTaskStatus applies a status change with a conditional write. Completing
// a task stamps completed_at; the completed state is terminal.
func (e Engine) SetTaskStatus(ctx context.Context, id, status, actorID string) (domain.Task, error) {
	t, err := e.Repo.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, mapGetErr("task", id, err)
	}
	if err := ensureTaskTransition(id, t.Status, status); err != nil {
		return domain.Task{}, err
	}
	now := e.nowRFC3339()
	var completedAt *string
	if status == "completed" {
		completedAt = &now
	}
	rows, err := e.Repo.SetTaskStatus(ctx, id, t.Status, status, completedAt, now)
	if err != nil {
		return domain.Task{}, storage("task", "transition", err)
	}
	if rows == 0 {
		if _, err := e.Repo.GetTask(ctx, id); err != nil {
			return domain.Task{}, mapGetErr("task", id, err)
		}
		return domain.Task{}, conflict("task", id, "transition", "status changed concurrently")
	}
	t, err = e.Repo.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, mapGetErr("task", id, err)
	}
	return t, e.appendAudit(ctx, "task", id, "status_"+status, actorID, "", nil)
}

// TaskUpdateOptions carries optional field updates; nil means unchanged.
// Status moves through SetTaskStatus, not here.
type TaskUpdateOptions struct {
	Title       *string
	Priority    *string
	AssigneeID  *string
	DueDate     *string
	Description *string
	ActorID     string
}

func (e Engine) UpdateTask(ctx context.Context, id string, opts TaskUpdateOptions) (domain.Task, error) {
	fields := map[string]any{}
	if opts.Title != nil {
		if strings.TrimSpace(*opts.Title) == "" {
			return domain.Task{}, invalid("task", "title", "must not be empty")
		}
		fields["title"] = strings.TrimSpace(*opts.Title)
	}
	if opts.Priority != nil {
		if _, ok := taskPriorities[*opts.Priority]; !ok {
			return domain.Task{}, invalid("task", "priority", "must be one of low, medium, high, urgent")
		}
		fields["priority"] = *opts.Priority
	}
	if opts.AssigneeID != nil {
		fields["assignee_id"] = nullableField(*opts.AssigneeID)
	}
	if opts.DueDate != nil {
		if strings.TrimSpace(*opts.DueDate) == "" {
			fields["due_date"] = nil
		} else {
			ts, err := time.Parse(time.RFC3339, *opts.DueDate)
			if err != nil {
				return domain.Task{}, invalid("task", "due_date", "must be RFC 3339")
			}
			fields["due_date"] = ts.UTC().Format(time.RFC3339)
		}
	}
	if opts.Description != nil {
		fields["description"] = strings.TrimSpace(*opts.Description)
	}
	if err := e.Repo.UpdateTask(ctx, id, fields, e.nowRFC3339()); err != nil {
		return domain.Task{}, mapGetErr("task", id, err)
	}
	t, err := e.Repo.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, mapGetErr("task", id, err)
	}
	return t, e.appendAudit(ctx, "task", id, "updated", opts.ActorID, "", nil)
}

// GroupTasksByStatus buckets tasks by status, preserving input order within
// each bucket. Every status key is present even when empty.
func GroupTasksByStatus(tasks []domain.Task) map[string][]domain.Task {
	board := make(map[string][]domain.Task, len(taskStatusOrder))
	for _, s := range taskStatusOrder {
		board[s] = []domain.Task{}
	}
	for _, t := range tasks {
		board[t.Status] = append(board[t.Status], t)
	}
	return board
}

// TaskBoard returns the grouped view over the filtered task list.
func (e Engine) TaskBoard(ctx context.Context, f repo.TaskFilters) (map[string][]domain.Task, error) {
	tasks, err := e.ListTasks(ctx, f)
	if err != nil {
		return nil, err
	}
	return GroupTasksByStatus(tasks), nil
}

func nullableField(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.TrimSpace(s)
}
