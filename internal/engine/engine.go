package engine

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"talentos/internal/audit"
	"talentos/internal/config"
	"talentos/internal/domain"
	"talentos/internal/repo"
)

// Engine applies the record lifecycle rules. All timestamps come from Now so
// tests can pin the clock.
type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Trail  audit.Trail
	Config *config.Config
	Logger *log.Logger
	Now    func() time.Time

	// OnConsentRevoked, when set, runs after a successful revocation so
	// downstream systems can flag dependent content for review.
	OnConsentRevoked func(domain.Consent)
}

func New(db *sql.DB, cfg *config.Config) Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return Engine{
		DB:     db,
		Repo:   repo.New(db),
		Trail:  audit.New(db, nil),
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) nowRFC3339() string {
	return e.now().UTC().Format(time.RFC3339)
}

func (e Engine) warnf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf("WARN "+format, args...)
		return
	}
	log.Printf("WARN "+format, args...)
}

// appendAudit writes a trail entry after the primary write has committed.
// Failure comes back as an AuditWarning, never a hard error.
func (e Engine) appendAudit(ctx context.Context, entityKind, entityID, action, actorID, note string, payload any) error {
	t := audit.New(e.DB, e.Now)
	if err := t.Append(ctx, entityKind, entityID, action, actorID, note, payload); err != nil {
		e.warnf("audit append failed for %s %s: %v", entityKind, entityID, err)
		return &AuditWarning{Err: err}
	}
	return nil
}

// IsAuditWarning reports whether err only signals a failed trail append on
// top of an otherwise successful operation.
func IsAuditWarning(err error) bool {
	var w *AuditWarning
	return errors.As(err, &w)
}

func mapGetErr(kind, id string, err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return notFound(kind, id)
	}
	return storage(kind, "get", err)
}

func strPtr(s string) *string { return &s }
