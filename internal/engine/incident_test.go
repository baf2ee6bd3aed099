package engine_test

import (
	"errors"
	"testing"

	"talentos/internal/domain"
	"talentos/internal/engine"
)

func reportIncident(t *testing.T, env testEnv, severity string) domain.Incident {
	t.Helper()
	in, err := env.Engine.CreateIncident(env.Ctx, engine.IncidentCreateOptions{
		Type:        "client_misconduct",
		Severity:    severity,
		Description: "client crossed an agreed boundary",
		ActorID:     "tester",
	})
	if err != nil {
		t.Fatalf("create incident: %v", err)
	}
	return in
}

func TestIncidentCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	var ve *engine.ValidationError

	_, err := env.Engine.CreateIncident(env.Ctx, engine.IncidentCreateOptions{
		Type: "bogus", Severity: "high", Description: "x", ActorID: "tester",
	})
	if !errors.As(err, &ve) || ve.Field != "type" {
		t.Fatalf("bad type: %v", err)
	}

	_, err = env.Engine.CreateIncident(env.Ctx, engine.IncidentCreateOptions{
		Type: "platform_dispute", Severity: "severe", Description: "x", ActorID: "tester",
	})
	if !errors.As(err, &ve) || ve.Field != "severity" {
		t.Fatalf("bad severity: %v", err)
	}

	_, err = env.Engine.CreateIncident(env.Ctx, engine.IncidentCreateOptions{
		Type: "platform_dispute", Severity: "low", Description: "  ", ActorID: "tester",
	})
	if !errors.As(err, &ve) || ve.Field != "description" {
		t.Fatalf("empty description: %v", err)
	}

	_, err = env.Engine.CreateIncident(env.Ctx, engine.IncidentCreateOptions{
		TalentID: "missing", Type: "platform_dispute", Severity: "low",
		Description: "x", ActorID: "tester",
	})
	var nf *engine.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("missing talent: %v", err)
	}
}

func TestIncidentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	in := reportIncident(t, env, "high")
	if in.Status != "open" {
		t.Fatalf("new incident status = %q", in.Status)
	}

	in, err := env.Engine.SetIncidentStatus(env.Ctx, in.ID, "investigating", "tester")
	if err != nil || in.Status != "investigating" {
		t.Fatalf("to investigating: %v %q", err, in.Status)
	}

	// resolution must go through resolve so notes are captured
	_, err = env.Engine.SetIncidentStatus(env.Ctx, in.ID, "resolved", "tester")
	var ve *engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("resolved via set-status: %v", err)
	}
	_, err = env.Engine.ResolveIncident(env.Ctx, in.ID, "   ", "tester")
	if !errors.As(err, &ve) {
		t.Fatalf("empty notes: %v", err)
	}

	in, err = env.Engine.ResolveIncident(env.Ctx, in.ID, "talked to both sides, boundary restated", "tester")
	if err != nil || in.Status != "resolved" {
		t.Fatalf("resolve: %v %q", err, in.Status)
	}
	if in.ResolutionNotes == nil || in.ResolvedAt == nil {
		t.Fatalf("resolution fields missing: %+v", in)
	}

	in, err = env.Engine.SetIncidentStatus(env.Ctx, in.ID, "closed", "tester")
	if err != nil || in.Status != "closed" {
		t.Fatalf("close: %v %q", err, in.Status)
	}

	// closed is terminal
	_, err = env.Engine.SetIncidentStatus(env.Ctx, in.ID, "investigating", "tester")
	var ce *engine.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("reopen closed: %v", err)
	}
}

func TestIncidentOpenResolvesDirectly(t *testing.T) {
	env := newTestEnv(t)
	in := reportIncident(t, env, "low")
	in, err := env.Engine.ResolveIncident(env.Ctx, in.ID, "false alarm", "tester")
	if err != nil || in.Status != "resolved" {
		t.Fatalf("direct resolve: %v %q", err, in.Status)
	}
}

func TestIncidentInvalidTransitions(t *testing.T) {
	env := newTestEnv(t)
	in := reportIncident(t, env, "medium")

	// open cannot close without resolution
	_, err := env.Engine.SetIncidentStatus(env.Ctx, in.ID, "closed", "tester")
	var ce *engine.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("open to closed: %v", err)
	}

	_, err = env.Engine.SetIncidentStatus(env.Ctx, in.ID, "escalated", "tester")
	var ve *engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("unknown status: %v", err)
	}
}
