package engine_test

import (
	"errors"
	"testing"

	"talentos/internal/domain"
	"talentos/internal/engine"
	"talentos/internal/repo"
)

func createTask(t *testing.T, env testEnv, title string) domain.Task {
	t.Helper()
	task, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		Title:   title,
		ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func TestTaskDefaults(t *testing.T) {
	env := newTestEnv(t)
	task := createTask(t, env, "review appeal")
	if task.Status != "pending" || task.Type != "general" || task.Priority != "medium" {
		t.Fatalf("defaults: %+v", task)
	}
}

func TestTaskStatusFlow(t *testing.T) {
	env := newTestEnv(t)
	task := createTask(t, env, "draft statement")

	task, err := env.Engine.SetTaskStatus(env.Ctx, task.ID, "in_progress", "tester")
	if err != nil || task.Status != "in_progress" {
		t.Fatalf("to in_progress: %v %q", err, task.Status)
	}
	task, err = env.Engine.SetTaskStatus(env.Ctx, task.ID, "blocked", "tester")
	if err != nil || task.Status != "blocked" {
		t.Fatalf("to blocked: %v %q", err, task.Status)
	}
	task, err = env.Engine.SetTaskStatus(env.Ctx, task.ID, "completed", "tester")
	if err != nil || task.Status != "completed" {
		t.Fatalf("to completed: %v %q", err, task.Status)
	}
	if task.CompletedAt == nil {
		t.Fatal("completed_at not stamped")
	}

	// completed is terminal, even back to itself
	for _, status := range []string{"pending", "in_progress", "blocked", "completed"} {
		_, err := env.Engine.SetTaskStatus(env.Ctx, task.ID, status, "tester")
		var ce *engine.ConflictError
		if !errors.As(err, &ce) {
			t.Fatalf("completed -> %s: %v", status, err)
		}
	}

	_, err = env.Engine.SetTaskStatus(env.Ctx, task.ID, "archived", "tester")
	var ve *engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("unknown status: %v", err)
	}
}

func TestTaskUpdateFields(t *testing.T) {
	env := newTestEnv(t)
	task := createTask(t, env, "old title")
	title := "new title"
	assignee := "agent-7"
	got, err := env.Engine.UpdateTask(env.Ctx, task.ID, engine.TaskUpdateOptions{
		Title:      &title,
		AssigneeID: &assignee,
		ActorID:    "tester",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Title != "new title" || got.AssigneeID == nil || *got.AssigneeID != "agent-7" {
		t.Fatalf("updated task: %+v", got)
	}
}

func TestTaskBoardGrouping(t *testing.T) {
	env := newTestEnv(t)
	a := createTask(t, env, "a")
	b := createTask(t, env, "b")
	if _, err := env.Engine.SetTaskStatus(env.Ctx, b.ID, "in_progress", "tester"); err != nil {
		t.Fatalf("move b: %v", err)
	}

	board, err := env.Engine.TaskBoard(env.Ctx, repo.TaskFilters{})
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	for _, status := range []string{"pending", "in_progress", "blocked", "completed"} {
		if _, ok := board[status]; !ok {
			t.Fatalf("board missing column %q", status)
		}
	}
	if len(board["pending"]) != 1 || board["pending"][0].ID != a.ID {
		t.Fatalf("pending column: %+v", board["pending"])
	}
	if len(board["in_progress"]) != 1 || len(board["completed"]) != 0 {
		t.Fatalf("columns: %d in_progress, %d completed", len(board["in_progress"]), len(board["completed"]))
	}
}
