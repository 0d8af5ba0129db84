// Package service provides application-level services for FieldGate.
package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fieldgate/fieldgate/internal/adapter/outbound/audit"
	celguard "github.com/fieldgate/fieldgate/internal/adapter/outbound/cel"
	"github.com/fieldgate/fieldgate/internal/domain/validation"
)

// tracerName identifies this package's tracer.
const tracerName = "fieldgate/validation"

// ValidationService runs the validation pipeline for callers and owns
// the surrounding concerns: guard policies, the rejection audit trail,
// safe logging, and tracing. The underlying validator stays a pure
// domain object.
type ValidationService struct {
	validator *validation.Validator
	guards    *celguard.GuardSet
	store     audit.Store
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewValidationService creates a ValidationService. guards may be nil
// when no guard expressions are configured; store may be audit.NopStore
// when the audit trail is disabled.
func NewValidationService(validator *validation.Validator, guards *celguard.GuardSet, store audit.Store, logger *slog.Logger) *ValidationService {
	return &ValidationService{
		validator: validator,
		guards:    guards,
		store:     store,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
}

// Validate runs the full pipeline for one field: validator, then the
// kind's guard expression if one is configured. Rejections are logged
// and recorded in the audit trail; the raw value itself never reaches
// logs or storage, only its digest.
func (s *ValidationService) Validate(ctx context.Context, kind validation.FieldKind, raw, label string) (validation.Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "fieldgate.validate", trace.WithAttributes(
		attribute.String("field.kind", kind.String()),
		attribute.String("field.label", label),
	))
	defer span.End()

	outcome, err := s.validator.Validate(kind, raw, label)
	if err != nil {
		span.RecordError(err)
		return validation.Outcome{}, err
	}

	if outcome.Accepted && s.guards != nil {
		allowed, gerr := s.guards.Check(kind, outcome.Value, label)
		if gerr != nil {
			span.RecordError(gerr)
			return validation.Outcome{}, fmt.Errorf("guard evaluation for %s: %w", kind, gerr)
		}
		if !allowed {
			outcome = validation.Outcome{Rejection: &validation.Rejected{
				Field:  label,
				Signal: validation.SignalStructuralViolation,
				Reason: fmt.Sprintf("%s is not permitted by policy.", label),
			}}
		}
	}

	span.SetAttributes(attribute.Bool("field.accepted", outcome.Accepted))
	if !outcome.Accepted {
		span.SetAttributes(attribute.String("field.signal", string(outcome.Rejection.Signal)))
		s.recordRejection(ctx, kind, raw, outcome.Rejection)
	}

	return outcome, nil
}

// ValidateFields validates a batch of labeled fields. Fields are
// independent; every field gets an outcome even when others fail.
func (s *ValidationService) ValidateFields(ctx context.Context, fields map[string]validation.FieldValue) (map[string]validation.Outcome, error) {
	outcomes := make(map[string]validation.Outcome, len(fields))
	for label, fv := range fields {
		outcome, err := s.Validate(ctx, fv.Kind, fv.Value, label)
		if err != nil {
			return nil, err
		}
		outcomes[label] = outcome
	}
	return outcomes, nil
}

// RecentRejections returns up to limit audit events, newest first.
func (s *ValidationService) RecentRejections(ctx context.Context, limit int) ([]audit.Event, error) {
	return s.store.Recent(ctx, limit)
}

// recordRejection logs the rejection and appends it to the audit
// trail. UnsafeContent is logged at Warn because it marks a potential
// attack; everything else is a benign typo and stays at Info. An audit
// write failure is logged but never fails the validation call.
func (s *ValidationService) recordRejection(ctx context.Context, kind validation.FieldKind, raw string, rejection *validation.Rejected) {
	digest := ValueDigest(raw)

	attrs := []any{
		"kind", kind.String(),
		"field", rejection.Field,
		"signal", string(rejection.Signal),
		"value_digest", digest,
		"value_len", len(raw),
	}

	var findingKinds []string
	if rejection.Signal == validation.SignalUnsafeContent {
		for _, f := range rejection.Findings {
			findingKinds = append(findingKinds, string(f.Kind))
		}
		s.logger.Warn("unsafe content rejected", append(attrs, "findings", strings.Join(findingKinds, ","))...)
	} else {
		s.logger.Info("field rejected", attrs...)
	}

	event := audit.Event{
		ID:          uuid.New().String(),
		Time:        time.Now().UTC(),
		Kind:        kind.String(),
		Field:       rejection.Field,
		Signal:      string(rejection.Signal),
		Reason:      rejection.Reason,
		ValueDigest: digest,
		Findings:    strings.Join(findingKinds, ","),
	}
	if err := s.store.Record(ctx, event); err != nil {
		s.logger.Error("failed to record rejection", "error", err)
	}
}

// ValueDigest returns the xxhash hex digest of a raw value. Rejected
// values are referenced by digest everywhere outside the validation
// call so attacker-controlled content never lands in logs or storage.
func ValueDigest(raw string) string {
	sum := xxhash.Sum64String(raw)
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(sum >> (56 - 8*i))
	}
	return hex.EncodeToString(buf[:])
}
