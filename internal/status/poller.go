// Package status reads the live lifecycle state of deployed Glue triggers.
package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsglue "github.com/aws/aws-sdk-go-v2/service/glue"
	gluetypes "github.com/aws/aws-sdk-go-v2/service/glue/types"
	"github.com/oklog/ulid/v2"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dwsmith1983/gluetrigger/internal/metrics"
	"github.com/dwsmith1983/gluetrigger/pkg/glue"
)

// GlueAPI is the subset of the AWS Glue client used by the status package.
type GlueAPI interface {
	GetTrigger(ctx context.Context, params *awsglue.GetTriggerInput, optFns ...func(*awsglue.Options)) (*awsglue.GetTriggerOutput, error)
}

const defaultConcurrency = 4

// Poller fetches trigger state through a circuit breaker.
type Poller struct {
	mu         sync.Mutex
	glueClient GlueAPI
	region     string

	concurrency int
	breaker     *gobreaker.CircuitBreaker
	meter       metric.Meter
	inst        *metrics.Instruments
	tracer      trace.Tracer
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures a Poller.
type Option func(*Poller)

// WithGlueClient sets a custom Glue client (useful for testing).
func WithGlueClient(c GlueAPI) Option {
	return func(p *Poller) { p.glueClient = c }
}

// WithRegion selects the region of the default Glue client.
func WithRegion(region string) Option {
	return func(p *Poller) { p.region = region }
}

// WithConcurrency caps the number of GetTrigger calls in flight.
func WithConcurrency(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(cb *gobreaker.CircuitBreaker) Option {
	return func(p *Poller) { p.breaker = cb }
}

// WithMeter records check counts on meter instead of the global provider.
func WithMeter(m metric.Meter) Option {
	return func(p *Poller) { p.meter = m }
}

// WithTracerProvider traces checks on tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Poller) { p.tracer = tp.Tracer(metrics.Scope) }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) { p.logger = l }
}

// NewPoller creates a Poller with the given options.
func NewPoller(opts ...Option) (*Poller, error) {
	p := &Poller{
		concurrency: defaultConcurrency,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	inst, err := metrics.New(p.meter)
	if err != nil {
		return nil, err
	}
	p.inst = inst
	if p.tracer == nil {
		p.tracer = otel.Tracer(metrics.Scope)
	}
	if p.breaker == nil {
		p.breaker = gobreaker.NewCircuitBreaker(p.breakerSettings())
	}
	return p, nil
}

func (p *Poller) breakerSettings() gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "glue-get-trigger",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		// A missing trigger is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || isNotFound(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			if to == gobreaker.StateOpen {
				p.inst.BreakerTrips.Add(context.Background(), 1)
			}
		},
	}
}

func (p *Poller) getGlueClient(ctx context.Context) (GlueAPI, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.glueClient != nil {
		return p.glueClient, nil
	}
	var opts []func(*awsconfig.LoadOptions) error
	if p.region != "" {
		opts = append(opts, awsconfig.WithRegion(p.region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	p.glueClient = awsglue.NewFromConfig(cfg)
	return p.glueClient, nil
}

// Check fetches every named trigger. Triggers Glue does not know are listed
// in Report.NotFound. Other failures are joined into the returned error and
// the report still carries every trigger that was read.
func (p *Poller) Check(ctx context.Context, names []string) (*Report, error) {
	ctx, span := p.tracer.Start(ctx, "status.Check",
		trace.WithAttributes(attribute.Int("glue.triggers", len(names))))
	defer span.End()

	client, err := p.getGlueClient(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "loading client")
		return nil, err
	}

	report := &Report{
		ID:        ulid.Make().String(),
		CheckedAt: p.now().UTC(),
	}
	slots := make([]result, len(names))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, name := range names {
		g.Go(func() error {
			slots[i] = p.checkOne(ctx, client, name)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for i, r := range slots {
		switch {
		case r.err == nil:
			report.Triggers = append(report.Triggers, r.status)
		case isNotFound(r.err):
			report.NotFound = append(report.NotFound, names[i])
		default:
			errs = append(errs, r.err)
		}
	}

	span.SetAttributes(
		attribute.String("status.report", report.ID),
		attribute.Int("status.not_found", len(report.NotFound)),
	)
	if len(errs) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d trigger(s) unreadable", len(errs)))
	}

	p.logger.Info("trigger status checked",
		"report", report.ID,
		"requested", len(names),
		"found", len(report.Triggers),
		"notFound", len(report.NotFound),
		"errors", len(errs),
	)
	return report, errors.Join(errs...)
}

type result struct {
	status TriggerStatus
	err    error
}

func (p *Poller) checkOne(ctx context.Context, client GlueAPI, name string) result {
	ctx, span := p.tracer.Start(ctx, "glue.GetTrigger",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("glue.trigger", name)))
	defer span.End()

	out, err := p.breaker.Execute(func() (interface{}, error) {
		return client.GetTrigger(ctx, &awsglue.GetTriggerInput{Name: aws.String(name)})
	})
	outcome := "found"
	defer func() {
		p.inst.StatusChecks.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
		span.SetAttributes(attribute.String("status.outcome", outcome))
	}()

	if err != nil {
		if isNotFound(err) {
			outcome = "not_found"
			p.logger.Debug("trigger not found", "trigger", name)
			return result{err: err}
		}
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "GetTrigger failed")
		return result{err: fmt.Errorf("GetTrigger %s: %w", name, err)}
	}
	resp, _ := out.(*awsglue.GetTriggerOutput)
	if resp == nil || resp.Trigger == nil {
		outcome = "error"
		return result{err: fmt.Errorf("GetTrigger %s: returned nil Trigger", name)}
	}
	return result{status: fromGlue(name, resp.Trigger)}
}

func isNotFound(err error) bool {
	var nf *gluetypes.EntityNotFoundException
	return errors.As(err, &nf)
}

func fromGlue(name string, t *gluetypes.Trigger) TriggerStatus {
	s := TriggerStatus{
		Name:         name,
		Type:         glue.TriggerType(t.Type),
		State:        glue.TriggerState(t.State),
		Schedule:     aws.ToString(t.Schedule),
		WorkflowName: aws.ToString(t.WorkflowName),
		Description:  aws.ToString(t.Description),
	}
	if t.Name != nil {
		s.Name = *t.Name
	}
	for _, a := range t.Actions {
		switch {
		case a.JobName != nil:
			s.Jobs = append(s.Jobs, *a.JobName)
		case a.CrawlerName != nil:
			s.Crawlers = append(s.Crawlers, *a.CrawlerName)
		}
	}
	return s
}
