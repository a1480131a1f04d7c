// Package call orchestrates one simulated sales call from greeting to
// scored outcome.
//
// The turn-taking rules live in the pure game.Machine; this service
// executes the machine's effects against the external collaborators
// (completion provider, assessment client, state store, event sink) and
// feeds the authoritative results back as events. A call is a single
// sequential flow: persona turns never overlap, and message histories are
// only extended after the authoritative response for a turn is recorded.
package call

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/chad-murphy-data/android-converter/internal/config"
	"github.com/chad-murphy-data/android-converter/internal/game"
	"github.com/chad-murphy-data/android-converter/internal/model"
	"github.com/chad-murphy-data/android-converter/internal/persona"
	"github.com/chad-murphy-data/android-converter/internal/service/assess"
	"github.com/chad-murphy-data/android-converter/internal/service/completion"
	"github.com/chad-murphy-data/android-converter/internal/storage"
	"github.com/chad-murphy-data/android-converter/internal/telemetry"
)

const (
	agentMaxTokens    = 300
	customerMaxTokens = 200
)

// EventSink receives the ordered stream of events for one call. Delivery
// is fire-and-forget: the orchestrator never blocks on the client.
type EventSink interface {
	Send(event model.CallEvent)
}

// Service runs calls end to end.
type Service struct {
	provider completion.Provider
	assessor *assess.Client
	store    storage.Store
	logger   *slog.Logger
	cfg      config.Config

	// TypingDelay is the pause before each persona message, giving the
	// client a natural typing-indicator rhythm. Zero in tests.
	TypingDelay time.Duration

	gen   *persona.Generator
	genMu sync.Mutex // the injected rand source is not goroutine-safe

	callDuration       metric.Float64Histogram
	completionDuration metric.Float64Histogram
	callsTotal         metric.Int64Counter
}

// New creates a call service. rng seeds profile generation; inject a
// fixed-seed source for deterministic scenarios.
func New(provider completion.Provider, assessor *assess.Client, store storage.Store, cfg config.Config, rng *rand.Rand, logger *slog.Logger) *Service {
	meter := telemetry.Meter("android-converter/call")
	callDur, _ := meter.Float64Histogram("sim.call.duration",
		metric.WithDescription("Wall time of one complete call (ms)"),
		metric.WithUnit("ms"),
	)
	complDur, _ := meter.Float64Histogram("sim.completion.duration",
		metric.WithDescription("Latency of persona completion calls (ms)"),
		metric.WithUnit("ms"),
	)
	calls, _ := meter.Int64Counter("sim.calls.total",
		metric.WithDescription("Completed calls by outcome"),
	)

	return &Service{
		provider:           provider,
		assessor:           assessor,
		store:              store,
		logger:             logger,
		cfg:                cfg,
		TypingDelay:        time.Second,
		gen:                persona.NewGenerator(rng),
		callDuration:       callDur,
		completionDuration: complDur,
		callsTotal:         calls,
	}
}

// run carries the per-call working set.
type run struct {
	callID  string
	machine *game.Machine
	sink    EventSink

	agentPrompt    func(turn int) string
	customerPrompt string

	agentHistory    []completion.Message
	customerHistory []completion.Message
}

// Run executes one complete call and returns the logged record. The
// returned error is non-nil only for unrecovered persona failures; even
// then a best-effort call_end has already been delivered to the sink.
func (s *Service) Run(ctx context.Context, sink EventSink, warmup bool) (model.CallRecord, error) {
	start := time.Now()

	fraudRate := s.cfg.Game.FraudRate
	if warmup {
		fraudRate = s.cfg.Game.WarmupFraudRate
	}

	s.genMu.Lock()
	customer := s.gen.Customer(fraudRate)
	agent := s.gen.Agent()
	s.genMu.Unlock()

	// Learned patterns are advisory; a failed load just means a fresh slate.
	patterns := []string{}
	if state, err := s.store.LoadArchetypeState(ctx, agent.Style); err != nil {
		s.logger.Warn("call: load archetype state failed", "style", agent.Style, "error", err)
	} else {
		patterns = state.Patterns
	}

	r := &run{
		callID:         uuid.New().String(),
		machine:        game.NewMachine(customer, agent, s.cfg.Game),
		sink:           sink,
		customerPrompt: persona.BuildCustomerPrompt(customer),
		agentPrompt: func(turn int) string {
			return persona.BuildAgentPrompt(agent, patterns, turn, s.cfg.Game)
		},
	}

	info := persona.ArchetypeInfo(agent.Style)
	sink.Send(model.CallEvent{
		Type:       model.EventCallStart,
		CallID:     r.callID,
		Agent:      &agent,
		AgentInfo:  &info,
		WarmupMode: warmup,
	})

	record, err := s.drive(ctx, r)

	s.callDuration.Record(ctx, float64(time.Since(start).Milliseconds()))
	s.callsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", string(record.Outcome)),
		attribute.Bool("degraded", err != nil),
	))
	return record, err
}

// drive pumps the machine: execute effects, feed back events, repeat
// until a terminal condition fires or a persona call fails unrecovered.
func (s *Service) drive(ctx context.Context, r *run) (model.CallRecord, error) {
	effects, err := r.machine.Step(game.StartEvent{})
	if err != nil {
		return s.abort(ctx, r, err)
	}

	// Seed both histories with the scripted turn-0 exchange.
	st := r.machine.State()
	greeting := game.Greeting(st.Agent)
	r.agentHistory = append(r.agentHistory,
		completion.Message{Role: completion.RoleAssistant, Content: greeting},
		completion.Message{Role: completion.RoleUser, Content: st.Customer.CallReason},
	)
	r.customerHistory = append(r.customerHistory,
		completion.Message{Role: completion.RoleUser, Content: greeting},
		completion.Message{Role: completion.RoleAssistant, Content: st.Customer.CallReason},
	)

	for len(effects) > 0 {
		var next game.Event

		for _, effect := range effects {
			ev, err := s.execute(ctx, r, effect)
			if err != nil {
				return s.abort(ctx, r, err)
			}
			if ev != nil {
				next = ev
			}
		}

		if next == nil {
			break
		}
		if effects, err = r.machine.Step(next); err != nil {
			return s.abort(ctx, r, err)
		}
	}

	return s.finalize(ctx, r)
}

// execute performs one effect. At most one effect per batch produces a
// follow-up event for the machine.
func (s *Service) execute(ctx context.Context, r *run, effect game.Effect) (game.Event, error) {
	st := r.machine.State()

	switch effect := effect.(type) {
	case game.SayEffect:
		s.say(r, effect)
		return nil, nil

	case game.SystemEffect:
		r.sink.Send(model.CallEvent{
			Type:    model.EventMessage,
			CallID:  r.callID,
			Speaker: model.SpeakerSystem,
			Text:    effect.Text,
			Turn:    effect.Turn,
			IsEnd:   true,
		})
		return nil, nil

	case game.AgentTurnEffect:
		r.sink.Send(model.CallEvent{Type: model.EventTyping, CallID: r.callID, Speaker: model.SpeakerAgent})
		s.pause(ctx)

		text, err := s.complete(ctx, r.agentPrompt(effect.Turn), r.agentHistory, agentMaxTokens)
		if err != nil {
			return nil, fmt.Errorf("agent turn %d: %w", effect.Turn, err)
		}
		r.agentHistory = append(r.agentHistory, completion.Message{Role: completion.RoleAssistant, Content: text})
		return game.AgentRepliedEvent{Text: text}, nil

	case game.CustomerTurnEffect:
		r.sink.Send(model.CallEvent{Type: model.EventTyping, CallID: r.callID, Speaker: model.SpeakerCustomer})
		s.pause(ctx)

		r.customerHistory = append(r.customerHistory, completion.Message{Role: completion.RoleUser, Content: effect.AgentText})
		text, err := s.complete(ctx, r.customerPrompt, r.customerHistory, customerMaxTokens)
		if err != nil {
			return nil, fmt.Errorf("customer turn %d: %w", st.Turn, err)
		}
		r.customerHistory = append(r.customerHistory, completion.Message{Role: completion.RoleAssistant, Content: text})
		r.agentHistory = append(r.agentHistory, completion.Message{Role: completion.RoleUser, Content: text})

		if effect.Final {
			return game.CloseAnsweredEvent{Text: text}, nil
		}
		return game.CustomerRepliedEvent{Text: text}, nil

	case game.AssessEffect:
		// The two assessments are independent; run them concurrently and
		// join before any rule consults their results.
		var (
			confidence model.Confidence
			sentiment  model.Sentiment
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			confidence = s.assessor.Confidence(gctx, effect.AgentText, effect.CustomerText)
			return nil
		})
		g.Go(func() error {
			sentiment = s.assessor.Sentiment(gctx, effect.AgentText, effect.CustomerText)
			return nil
		})
		_ = g.Wait() // assessments never fail; they fall back to defaults

		return game.AssessedEvent{Confidence: confidence, Sentiment: sentiment}, nil

	case game.DashboardEffect:
		r.sink.Send(model.CallEvent{
			Type:        model.EventDashboardUpdate,
			CallID:      r.callID,
			Turn:        effect.Turn,
			Confidence:  &st.Confidence,
			Sentiment:   &st.Sentiment,
			Frustration: st.Frustration,
			Alignment:   string(effect.Alignment),
		})
		return nil, nil

	case game.FinalizeEffect:
		return nil, nil // drive falls through to finalize

	default:
		return nil, fmt.Errorf("call: unknown effect %T", effect)
	}
}

func (s *Service) say(r *run, effect game.SayEffect) {
	r.sink.Send(model.CallEvent{
		Type:     model.EventMessage,
		CallID:   r.callID,
		Speaker:  effect.Line.Speaker,
		Text:     effect.Line.Text,
		Turn:     effect.Line.Turn,
		IsBounce: effect.IsBounce,
	})
}

// complete invokes the provider with the per-call deadline applied.
func (s *Service) complete(ctx context.Context, system string, history []completion.Message, maxTokens int) (string, error) {
	cctx := ctx
	if s.cfg.CompletionTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, s.cfg.CompletionTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.provider.Complete(cctx, system, history, maxTokens)
	s.completionDuration.Record(ctx, float64(time.Since(start).Milliseconds()))
	return text, err
}

func (s *Service) pause(ctx context.Context) {
	if s.TypingDelay <= 0 {
		return
	}
	select {
	case <-time.After(s.TypingDelay):
	case <-ctx.Done():
	}
}

// finalize resolves the outcome, runs the post-call pipeline, and delivers
// the call_end summary. Post-call failures are logged and replaced with
// fallbacks; they never block the summary.
func (s *Service) finalize(ctx context.Context, r *run) (model.CallRecord, error) {
	st := r.machine.State()
	res := st.Resolve(s.cfg.Game, s.cfg.Game.ClosePolicy)

	pattern := s.assessor.Learning(ctx, persona.BuildLearningPrompt(
		st.Agent, st.Customer.Tier, res.MotivationGuess, res.MotivationCorrect,
		st.Customer.IsFraud, res.Outcome,
	))

	record := s.buildRecord(r, res, pattern)
	s.persist(ctx, r, record, res)
	s.sendSummary(ctx, r, record)

	s.logger.Info("call finished",
		"call_id", r.callID,
		"outcome", record.Outcome,
		"points", record.Points,
		"turns", record.TurnsUsed,
		"fraud", record.Customer.IsFraud,
	)
	return record, nil
}

// abort delivers a degraded terminal summary after an unrecovered persona
// failure. The player sees a plausible conclusion; the error is returned
// for the caller to log.
func (s *Service) abort(ctx context.Context, r *run, cause error) (model.CallRecord, error) {
	st := r.machine.State()
	res := st.FallbackResolution(s.cfg.Game)

	s.logger.Error("call aborted, emitting fallback summary",
		"call_id", r.callID, "turn", st.Turn, "error", cause)

	r.sink.Send(model.CallEvent{
		Type:    model.EventMessage,
		CallID:  r.callID,
		Speaker: model.SpeakerSystem,
		Text:    "[Call ended - Technical difficulties]",
		Turn:    st.Turn,
		IsEnd:   true,
	})

	record := s.buildRecord(r, res, "Call completed - learning pending")
	s.persist(ctx, r, record, res)
	s.sendSummary(ctx, r, record)

	return record, fmt.Errorf("call %s: %w", r.callID, cause)
}

func (s *Service) buildRecord(r *run, res game.Resolution, pattern string) model.CallRecord {
	st := r.machine.State()
	return model.CallRecord{
		CallID:            r.callID,
		Timestamp:         time.Now().UTC(),
		Customer:          st.Customer,
		Agent:             st.Agent,
		TurnsUsed:         st.Turn,
		CloseAttempted:    st.CloseAttempted,
		ClosePitch:        st.ClosePitch,
		FlagUsed:          st.FlagUsed,
		FlagReason:        st.FlagReason,
		CustomerBounced:   st.CustomerBounced,
		Outcome:           res.Outcome,
		Converted:         res.Converted,
		MotivationGuess:   res.MotivationGuess,
		MotivationCorrect: res.MotivationCorrect,
		Points:            res.Points,
		NewPattern:        pattern,
		FinalSentiment:    st.Sentiment,
		FinalFrustration:  st.Frustration,
		Transcript:        st.Transcript,
	}
}

// persist applies the post-call writes: archetype state (whole-record
// read-modify-write, last writer wins) and the append-only call log.
func (s *Service) persist(ctx context.Context, r *run, record model.CallRecord, res game.Resolution) {
	st := r.machine.State()

	archState, err := s.store.LoadArchetypeState(ctx, st.Agent.Style)
	if err != nil {
		s.logger.Error("call: reload archetype state failed", "style", st.Agent.Style, "error", err)
		archState = model.NewArchetypeState(st.Agent.Style)
	}
	archState.AddPattern(record.NewPattern, s.cfg.Game.MaxPatterns)
	archState.RecordOutcome(res.Outcome, res.Points, model.CallSummary{
		CallID:             r.callID,
		CustomerTier:       st.Customer.Tier,
		CustomerMotivation: st.Customer.Motivation,
		WasFraud:           st.Customer.IsFraud,
		Outcome:            res.Outcome,
		Points:             res.Points,
		Turns:              st.Turn,
	})
	if err := s.store.SaveArchetypeState(ctx, archState); err != nil {
		s.logger.Error("call: save archetype state failed", "style", st.Agent.Style, "error", err)
	}

	if err := s.store.AppendCall(ctx, record); err != nil {
		s.logger.Error("call: append call log failed", "call_id", r.callID, "error", err)
	}
}

func (s *Service) sendSummary(ctx context.Context, r *run, record model.CallRecord) {
	st := r.machine.State()

	overall, err := s.store.OverallStats(ctx)
	if err != nil {
		s.logger.Warn("call: overall stats failed", "error", err)
	}

	r.sink.Send(model.CallEvent{
		Type:   model.EventCallEnd,
		CallID: r.callID,
		Summary: &model.CallEndSummary{
			CallID:             r.callID,
			Outcome:            record.Outcome,
			OutcomeDescription: record.Outcome.Description(),
			Points:             record.Points,
			Customer:           st.Customer,
			CustomerTier:       st.Customer.Tier.DisplayName(),
			Agent:              st.Agent,
			AgentInfo:          persona.ArchetypeInfo(st.Agent.Style),
			CloseAttempted:     record.CloseAttempted,
			ClosePitch:         record.ClosePitch,
			FlagUsed:           record.FlagUsed,
			FlagReason:         record.FlagReason,
			CustomerBounced:    record.CustomerBounced,
			Converted:          record.Converted,
			MotivationGuess:    record.MotivationGuess,
			MotivationCorrect:  record.MotivationCorrect,
			NewPattern:         record.NewPattern,
			TurnsUsed:          record.TurnsUsed,
			FinalSentiment:     record.FinalSentiment,
			OverallStats:       overall,
			Transcript:         record.Transcript,
		},
	})
}
