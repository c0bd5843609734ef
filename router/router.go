// Package router turns a user message plus retrieved context into a final
// reply through an evidence-gated fallback chain. Model output is only
// surfaced when its quoted evidence is verified against the context; an
// unsupported answer is never shown to the user.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vendaflow/ragcore/config"
	ragerrors "github.com/vendaflow/ragcore/errors"
	"github.com/vendaflow/ragcore/message"
	"github.com/vendaflow/ragcore/pkg/logging"
	"github.com/vendaflow/ragcore/pkg/telemetry"
	"github.com/vendaflow/ragcore/provider"
	"github.com/vendaflow/ragcore/rag/evidence"
)

// AnswerCache stores evidence-validated results keyed by tenant and
// question, so repeated questions skip the model chain entirely. A miss is
// (nil, nil).
type AnswerCache interface {
	Get(ctx context.Context, tenantID, question string) (*Result, error)
	Set(ctx context.Context, tenantID, question string, res *Result) error
}

// minRetryContext mirrors the inventory threshold: the strict retry only
// runs when there is enough context for a literal excerpt to exist.
const minRetryContext = 100

var pricingPattern = regexp.MustCompile(`(?i)\b(pre[çc]os?|valor(es)?|quanto\s+(custa|fica|sai|[ée])|custo|or[çc]amento|price)\b`)

var recipePattern = regexp.MustCompile(`(?i)\b(receitas?|recipe|como\s+(fazer|preparar)|modo de preparo|ingredientes)\b`)

// Config holds router tuning. Zero values are filled by New.
type Config struct {
	PrimaryModel  string
	FallbackModel string
	Temperature   float64
	MaxTokens     int64
	TurnBudget    time.Duration
	Evidence      evidence.Options
	Policy        Policy
}

// Option mutates Config before validation.
type Option func(*Config)

// WithPrimaryModel overrides the primary model identifier sent upstream.
func WithPrimaryModel(model string) Option {
	return func(c *Config) { c.PrimaryModel = model }
}

// WithFallbackModel overrides the fallback model identifier.
func WithFallbackModel(model string) Option {
	return func(c *Config) { c.FallbackModel = model }
}

// WithTemperature sets the primary-stage sampling temperature. Retry and
// fallback stages always run at zero.
func WithTemperature(t float64) Option {
	return func(c *Config) { c.Temperature = t }
}

// WithMaxTokens caps completion length for every model stage.
func WithMaxTokens(n int64) Option {
	return func(c *Config) { c.MaxTokens = n }
}

// WithTurnBudget sets the wall-clock budget for one Respond call. The
// budget is split evenly across the model stages still pending, so a slow
// primary cannot starve the fallback.
func WithTurnBudget(d time.Duration) Option {
	return func(c *Config) { c.TurnBudget = d }
}

// WithEvidenceOptions overrides the evidence validation thresholds.
func WithEvidenceOptions(opts evidence.Options) Option {
	return func(c *Config) { c.Evidence = opts }
}

// WithPolicy sets the tenant policy. Empty fields fall back to
// DefaultPolicy values.
func WithPolicy(p Policy) Option {
	return func(c *Config) { c.Policy = p }
}

// Router is safe for concurrent use once constructed.
type Router struct {
	cfg      Config
	primary  provider.ChatClient
	fallback provider.ChatClient
	cache    AnswerCache
	tracer   trace.Tracer
}

// New builds a Router. primary is required; fallback and the answer cache
// are optional and their stages are skipped when absent.
func New(primary, fallback provider.ChatClient, opts ...Option) (*Router, error) {
	if primary == nil {
		return nil, fmt.Errorf("%w: primary chat client is required", ragerrors.ErrInvalidInput)
	}
	cfg := Config{
		PrimaryModel: "gpt-4o-mini",
		Temperature:  0.3,
		MaxTokens:    1024,
		TurnBudget:   30 * time.Second,
		Evidence:     evidence.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := config.ValidateEvidenceOptions(cfg.Evidence.MinQuotes, cfg.Evidence.MinQuoteLen,
		cfg.Evidence.MinTokensForFuzzy, cfg.Evidence.MinTokenOverlap); err != nil {
		return nil, err
	}
	cfg.Policy = cfg.Policy.withDefaults()
	return &Router{
		cfg:      cfg,
		primary:  primary,
		fallback: fallback,
		tracer:   otel.Tracer("github.com/vendaflow/ragcore/router"),
	}, nil
}

// SetAnswerCache installs an answer cache. Call before serving traffic.
func (r *Router) SetAnswerCache(cache AnswerCache) {
	r.cache = cache
}

type modelStage struct {
	stage  Stage
	client provider.ChatClient
	model  string
	temp   float64
	strict bool
}

// Respond runs one turn through the chain: shortcuts, cache, then the
// evidence-gated model stages. The returned Result is never nil on a nil
// error; a non-nil error means the input was invalid or the turn budget
// expired before any stage could run.
func (r *Router) Respond(ctx context.Context, req *Request) (res *Result, err error) {
	if req == nil || strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: empty message", ragerrors.ErrInvalidInput)
	}

	ctx, span := r.tracer.Start(ctx, "router.Respond",
		trace.WithAttributes(attribute.String("tenant.id", req.TenantID)))
	defer func() {
		if res != nil {
			span.SetAttributes(
				attribute.String("router.stage", string(res.Stage)),
				attribute.String("router.reason", res.Reason),
			)
		}
		telemetry.End(span, err)
	}()

	if r.cfg.TurnBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.TurnBudget)
		defer cancel()
	}

	log := logging.WithComponent("router").With("tenant_id", req.TenantID)

	if isGreeting(req.Message) {
		return &Result{Text: r.cfg.Policy.GreetingReply, Stage: StageGreeting, Reason: ReasonGreeting}, nil
	}

	if isInventoryQuestion(req.Message) && len(req.ContextText) > minInventoryContext {
		if text := inventoryFromContext(req.ContextText); text != "" {
			return &Result{Text: text, Stage: StageInventory, Reason: ReasonInventory}, nil
		}
	}

	if r.cache != nil {
		cached, cerr := r.cache.Get(ctx, req.TenantID, req.Message)
		if cerr != nil {
			log.Warn("answer cache lookup failed", "error", cerr)
		} else if cached != nil {
			return &Result{Text: cached.Text, Stage: StageCache, Reason: ReasonCached, Matched: cached.Matched}, nil
		}
	}

	stages := []modelStage{
		{stage: StagePrimary, client: r.primary, model: r.cfg.PrimaryModel, temp: r.cfg.Temperature},
	}
	if r.retryAllowed(req) {
		stages = append(stages, modelStage{stage: StagePrimaryRetry, client: r.primary, model: r.cfg.PrimaryModel, strict: true})
	}
	if r.fallback != nil {
		model := r.cfg.FallbackModel
		if model == "" {
			model = r.cfg.PrimaryModel
		}
		stages = append(stages, modelStage{stage: StageFallback, client: r.fallback, model: model, strict: true})
	}

	var lastNextStep string
	for i, st := range stages {
		if ctx.Err() != nil {
			break
		}
		stageCtx, cancel := stageContext(ctx, len(stages)-i)
		reply, serr := r.runModelStage(stageCtx, st, req)
		cancel()
		if serr != nil {
			log.Warn("model stage failed", "stage", st.stage, "model", st.model, "error", serr)
			continue
		}

		if reply.Answer != nil && strings.TrimSpace(*reply.Answer) != "" {
			ev := evidence.Validate(req.ContextText, reply.EvidenceQuotes, r.cfg.Evidence)
			if ev.OK {
				text := strings.TrimSpace(*reply.Answer)
				if next := strings.TrimSpace(reply.NextStep); next != "" {
					text += "\n\n" + next
				}
				result := &Result{Text: text, Stage: st.stage, Reason: ReasonEvidenceValidated, Matched: ev.Matched}
				r.storeAnswer(ctx, req, result, log)
				log.Info("answer validated", "stage", st.stage, "quotes", len(ev.Matched))
				return result, nil
			}
			log.Warn("evidence mismatch, answer suppressed", "stage", st.stage, "reasons", ev.Reasons)
			if next := strings.TrimSpace(reply.NextStep); next != "" {
				return &Result{Text: next, Stage: st.stage, Reason: ReasonEvidenceMismatch}, nil
			}
			continue
		}

		if next := strings.TrimSpace(reply.NextStep); next != "" {
			lastNextStep = next
		}
	}

	if lastNextStep != "" {
		return &Result{Text: lastNextStep, Stage: StageBlocked, Reason: ReasonClarification}, nil
	}
	return &Result{Text: r.cfg.Policy.NoAnswerMessage, Stage: StageBlocked, Reason: ReasonNoSupportedAnswer}, nil
}

// retryAllowed gates the strict retry: pricing and preparation questions
// tend to elicit fabricated specifics, and a thin context has no literal
// excerpt worth re-prompting for.
func (r *Router) retryAllowed(req *Request) bool {
	if len(req.ContextText) <= minRetryContext {
		return false
	}
	if pricingPattern.MatchString(req.Message) || recipePattern.MatchString(req.Message) {
		return false
	}
	return true
}

func (r *Router) runModelStage(ctx context.Context, st modelStage, req *Request) (*modelReply, error) {
	system := buildSystemPrompt(r.cfg.Policy, req.ContextText, st.strict)
	resp, err := st.client.Chat(ctx, &provider.ChatRequest{
		Model:       st.model,
		Temperature: st.temp,
		MaxTokens:   r.cfg.MaxTokens,
		JSONMode:    true,
		Messages: []*message.Message{
			message.NewMessage(message.RoleSystem, system),
			message.NewMessage(message.RoleUser, req.Message),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ragerrors.ErrProviderUnavailable, err)
	}
	if resp == nil || resp.Message == nil {
		return nil, fmt.Errorf("%w: nil completion", ragerrors.ErrMalformedResponse)
	}
	return decodeReply(resp.Message.Content)
}

func (r *Router) storeAnswer(ctx context.Context, req *Request, res *Result, log *slog.Logger) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, req.TenantID, req.Message, res); err != nil {
		log.Warn("answer cache store failed", "error", err)
	}
}

// stageContext carves out an even share of the remaining deadline for the
// next stage, leaving time for the stages after it.
func stageContext(ctx context.Context, stagesLeft int) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok || stagesLeft <= 1 {
		return context.WithCancel(ctx)
	}
	share := time.Until(deadline) / time.Duration(stagesLeft)
	if share <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithDeadline(ctx, time.Now().Add(share))
}
