package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"talentos/internal/domain"
	"talentos/internal/repo"
)

var distributionScopes = map[string]struct{}{
	"platform_only":  {},
	"multi_platform": {},
	"exclusive":      {},
	"unrestricted":   {},
}

// EffectiveConsentStatus derives the status a consent record has at the given
// instant. A stored active record whose expiry date has passed reads as
// expired; revoked and expired records keep their stored status.
func EffectiveConsentStatus(c domain.Consent, now time.Time) string {
	if c.Status != "active" {
		return c.Status
	}
	if c.ExpiryDate == nil {
		return "active"
	}
	expiry, err := time.Parse(time.RFC3339, *c.ExpiryDate)
	if err != nil {
		return "active"
	}
	if !expiry.After(now) {
		return "expired"
	}
	return "active"
}

func (e Engine) effectiveConsent(c domain.Consent) domain.Consent {
	c.Status = EffectiveConsentStatus(c, e.now())
	return c
}

// ConsentCreateOptions are parameters for recording a consent.
type ConsentCreateOptions struct {
	PersonaID         string
	ActType           string
	PartnerIDs        []string
	DistributionScope string
	RevocationRules   string
	ExpiryDate        string
	ActorID           string
}

func (e Engine) CreateConsent(ctx context.Context, opts ConsentCreateOptions) (domain.Consent, error) {
	if strings.TrimSpace(opts.ActType) == "" {
		return domain.Consent{}, invalid("consent", "act_type", "required")
	}
	if _, ok := distributionScopes[opts.DistributionScope]; !ok {
		return domain.Consent{}, invalid("consent", "distribution_scope", "must be one of platform_only, multi_platform, exclusive, unrestricted")
	}
	if strings.TrimSpace(opts.RevocationRules) == "" {
		return domain.Consent{}, invalid("consent", "revocation_rules", "required")
	}
	// A past expiry is allowed; the record is simply born effectively expired.
	var expiry *string
	if strings.TrimSpace(opts.ExpiryDate) != "" {
		ts, err := time.Parse(time.RFC3339, opts.ExpiryDate)
		if err != nil {
			return domain.Consent{}, invalid("consent", "expiry_date", "must be RFC 3339")
		}
		v := ts.UTC().Format(time.RFC3339)
		expiry = &v
	}
	if _, err := e.Repo.GetPersona(ctx, opts.PersonaID); err != nil {
		return domain.Consent{}, mapGetErr("persona", opts.PersonaID, err)
	}
	c := domain.Consent{
		ID:                uuid.New().String(),
		PersonaID:         opts.PersonaID,
		ActType:           strings.TrimSpace(opts.ActType),
		PartnerIDs:        opts.PartnerIDs,
		DistributionScope: strings.TrimSpace(opts.DistributionScope),
		RevocationRules:   strings.TrimSpace(opts.RevocationRules),
		Status:            "active",
		ExpiryDate:        expiry,
		CreatedBy:         opts.ActorID,
		CreatedAt:         e.nowRFC3339(),
	}
	if err := e.Repo.InsertConsent(ctx, c); err != nil {
		return domain.Consent{}, storage("consent", "create", err)
	}
	return c, e.appendAudit(ctx, "consent", c.ID, "created", opts.ActorID, c.ActType, nil)
}

func (e Engine) GetConsent(ctx context.Context, id string) (domain.Consent, error) {
	c, err := e.Repo.GetConsent(ctx, id)
	if err != nil {
		return domain.Consent{}, mapGetErr("consent", id, err)
	}
	return e.effectiveConsent(c), nil
}

// ListConsents filters on the derived status, so records past their expiry
// date report as expired even before any write has touched them.
func (e Engine) ListConsents(ctx context.Context, f repo.ConsentFilters) ([]domain.Consent, error) {
	status := f.Status
	f.Status = ""
	rows, err := e.Repo.ListConsents(ctx, f)
	if err != nil {
		return nil, storage("consent", "list", err)
	}
	res := make([]domain.Consent, 0, len(rows))
	for _, c := range rows {
		c = e.effectiveConsent(c)
		if status != "" && c.Status != status {
			continue
		}
		res = append(res, c)
	}
	return res, nil
}

// RevokeConsent marks an active consent revoked. Revoking an expired or
// already revoked record is a conflict; an expiry that is only derived so far
// is persisted on this write path.
func (e Engine) RevokeConsent(ctx context.Context, id, actorID string) (domain.Consent, error) {
	c, err := e.Repo.GetConsent(ctx, id)
	if err != nil {
		return domain.Consent{}, mapGetErr("consent", id, err)
	}
	switch EffectiveConsentStatus(c, e.now()) {
	case "revoked":
		return domain.Consent{}, conflict("consent", id, "revoke", "already revoked")
	case "expired":
		if c.Status == "active" {
			if _, err := e.Repo.MarkConsentExpired(ctx, id); err != nil {
				return domain.Consent{}, storage("consent", "revoke", err)
			}
		}
		return domain.Consent{}, conflict("consent", id, "revoke", "already expired")
	}
	rows, err := e.Repo.RevokeConsent(ctx, id, actorID, e.nowRFC3339())
	if err != nil {
		return domain.Consent{}, storage("consent", "revoke", err)
	}
	if rows == 0 {
		if _, err := e.Repo.GetConsent(ctx, id); err != nil {
			return domain.Consent{}, mapGetErr("consent", id, err)
		}
		return domain.Consent{}, conflict("consent", id, "revoke", "status changed concurrently")
	}
	c, err = e.Repo.GetConsent(ctx, id)
	if err != nil {
		return domain.Consent{}, mapGetErr("consent", id, err)
	}
	if e.OnConsentRevoked != nil {
		e.OnConsentRevoked(c)
	}
	if werr := e.appendAudit(ctx, "consent", id, "revoked", actorID, c.ActType, nil); werr != nil {
		return c, werr
	}
	return c, e.appendAudit(ctx, "consent", id, "content_review_flagged", actorID, "dependent content requires review", nil)
}
