package taxid

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/davidleathers/taxid-validator/internal/domain/errors"
	"github.com/davidleathers/taxid-validator/internal/domain/values"
	"github.com/davidleathers/taxid-validator/internal/infrastructure/telemetry"
)

const defaultWorkers = 4

// Service validates raw identifiers under a policy, with logging, tracing
// and metrics around the pure check-digit core.
type Service struct {
	policy   values.Policy
	logger   *zap.Logger
	recorder Recorder
	tracer   trace.Tracer
	workers  int
}

// Option configures a Service
type Option func(*Service)

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithTracerProvider sets the tracer provider; the global provider is used otherwise
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = telemetry.Tracer(tp) }
}

// WithWorkers bounds batch concurrency; values below 1 are ignored
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewService creates a validation service
func NewService(policy values.Policy, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		policy:   policy,
		logger:   logger,
		recorder: nopRecorder{},
		tracer:   telemetry.Tracer(nil),
		workers:  defaultWorkers,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Validate checks a single raw identifier
func (s *Service) Validate(ctx context.Context, raw string) Result {
	ctx, span := s.tracer.Start(ctx, "taxid.Validate")
	defer span.End()

	result := s.check(raw)

	span.SetAttributes(
		attribute.String("taxid.kind", result.Kind.String()),
		attribute.Bool("taxid.valid", result.Valid),
	)
	if result.Code != "" {
		span.SetAttributes(attribute.String("taxid.code", result.Code))
	}

	s.recorder.Observe(result.Kind, result.Valid)

	// digits are personal data; log only their kind and outcome
	telemetry.WithContext(ctx, s.logger).Debug("identifier validated",
		zap.String("kind", result.Kind.String()),
		zap.Bool("valid", result.Valid),
		zap.String("code", result.Code),
	)

	return result
}

func (s *Service) check(raw string) Result {
	digits := values.NormalizeDigits(raw)
	result := Result{
		Input:  raw,
		Digits: digits,
		Kind:   values.DetectKind(digits),
	}

	id, err := s.policy.Check(digits)
	if err != nil {
		result.Code = errors.GetCode(err)
		return result
	}

	result.Valid = true
	result.Formatted = id.Formatted()
	return result
}

// ValidateBatch validates inputs concurrently, at most workers at a time.
// Results keep the order of inputs. A cancelled ctx stops the batch and its
// error is returned.
func (s *Service) ValidateBatch(ctx context.Context, inputs []string) (*Report, error) {
	runID := uuid.New()

	ctx, span := s.tracer.Start(ctx, "taxid.ValidateBatch", trace.WithAttributes(
		attribute.String("taxid.run_id", runID.String()),
		attribute.Int("taxid.batch_size", len(inputs)),
	))
	defer span.End()

	logger := telemetry.WithContext(ctx, s.logger).With(zap.String("run_id", runID.String()))
	logger.Info("starting batch validation",
		zap.Int("size", len(inputs)),
		zap.Int("workers", s.workers),
	)

	if br, ok := s.recorder.(BatchRecorder); ok {
		br.ObserveBatch(len(inputs))
	}

	results := make([]Result, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, raw := range inputs {
		if err := gctx.Err(); err != nil {
			break
		}
		i, raw := i, raw
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.Validate(gctx, raw)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		telemetry.RecordError(span, err, "batch interrupted")
		logger.Warn("batch validation interrupted", zap.Error(err))
		return nil, errors.Wrap(err, "validating batch "+runID.String())
	}

	report := &Report{RunID: runID, Results: results}
	for _, r := range results {
		report.Summary.Add(r)
	}

	span.SetAttributes(
		attribute.Int("taxid.valid", report.Summary.Valid),
		attribute.Int("taxid.invalid", report.Summary.Invalid),
	)
	logger.Info("batch validation completed",
		zap.Int("valid", report.Summary.Valid),
		zap.Int("invalid", report.Summary.Invalid),
	)

	return report, nil
}
