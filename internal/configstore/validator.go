package configstore

import (
	"context"
	"strings"

	"notifstore/internal/access"
	"notifstore/internal/model"
	apperrors "notifstore/pkg/errors"
)

// allowedFeatures are the feature plugins permitted to own configs.
var allowedFeatures = map[string]bool{
	"alerting":         true,
	"index_management": true,
	"reports":          true,
}

// validateConfig checks structural payload invariants and the feature list.
func validateConfig(cfg *model.NotificationConfig) error {
	if err := cfg.Validate(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrValidation.WithMessage("%s", err.Error()))
	}
	if len(cfg.Features) == 0 {
		return apperrors.ErrValidation.WithMessage("feature_list is empty")
	}
	for _, f := range cfg.Features {
		if !allowedFeatures[f] {
			return apperrors.ErrForbidden.WithMessage("Some Features not available")
		}
	}
	return nil
}

// validateEmailReferences resolves the configs an email payload points at:
// every id must exist, be visible to the user, carry the expected type, and
// offer every feature the email config is tagged with. All references are
// fetched in one round trip.
func (s *service) validateEmailReferences(ctx context.Context, user *access.User, selfID string, cfg *model.NotificationConfig) error {
	email := cfg.Email
	for _, gid := range email.DefaultEmailGroups {
		if gid == selfID {
			return apperrors.ErrValidation.WithMessage("Config %s cannot reference itself", selfID)
		}
	}
	if email.EmailAccountID == selfID {
		return apperrors.ErrValidation.WithMessage("Config %s cannot reference itself", selfID)
	}

	ids := email.ReferencedConfigIDs()
	found, err := s.index.MultiGet(ctx, ids)
	if err != nil {
		return err
	}

	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return apperrors.ErrNotFound.WithMessage("Config IDs not found: %s", strings.Join(missing, ","))
	}

	for _, id := range ids {
		doc := found[id]
		parsed, err := decodeConfigDoc(doc.Body)
		if err != nil {
			return err
		}
		if !access.HasAccess(user, parsed.Metadata) {
			return apperrors.ErrForbidden.WithMessage("Permission denied for NotificationConfig %s", id)
		}
		want := model.ConfigTypeEmailGroup
		if id == email.EmailAccountID {
			want = model.ConfigTypeSmtpAccount
		}
		if parsed.Config.ConfigType != want {
			return apperrors.ErrNotAcceptable.WithMessage("Config type of %s is %s, expected %s",
				id, parsed.Config.ConfigType, want)
		}
		if !featureSubset(cfg.Features, parsed.Config.Features) {
			return apperrors.ErrForbidden.WithMessage("Some Features not available")
		}
	}
	return nil
}

// featureSubset reports whether every feature in want is offered by have.
func featureSubset(want, have []string) bool {
	offered := make(map[string]bool, len(have))
	for _, f := range have {
		offered[f] = true
	}
	for _, f := range want {
		if !offered[f] {
			return false
		}
	}
	return true
}
