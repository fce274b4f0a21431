// Package supervisor is the single entry point of the orchestration
// layer. It compiles the request graph at construction and, when the
// agent registry could not be built, runs a mandatory degraded path that
// still gates every query.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	contractx "github.com/corvid-labs/atlas/agent/contract"
	gatex "github.com/corvid-labs/atlas/agent/gate"
	memoryx "github.com/corvid-labs/atlas/agent/memory"
	nodex "github.com/corvid-labs/atlas/agent/nodes"
	promptx "github.com/corvid-labs/atlas/agent/prompt"
	logx "github.com/corvid-labs/atlas/pkg/logger"
	"github.com/corvid-labs/atlas/pkg/metrics"
)

// Placeholder is the fixed last-resort reply, returned only when both the
// orchestration graph and the direct completion path are unavailable.
const Placeholder = "[automated notice] The assistant is temporarily unable to " +
	"process requests. Your question was not answered; please try again later."

var ErrInvalidQuery = nodex.ErrInvalidQuery

type Config struct {
	SingleTimeout time.Duration `envconfig:"SINGLE_TIMEOUT" split_words:"true" default:"20s"`
	AgentTimeout  time.Duration `envconfig:"AGENT_TIMEOUT" split_words:"true" default:"10s"`
}

type Service struct {
	gate      *gatex.Gate
	registry  contractx.Registry
	memory    contractx.MemoryStore
	appender  *memoryx.Appender
	completer contractx.Completer

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	degradedPrompt string
	timeouts       nodex.Timeouts
	now            contractx.Clock
	log            zerolog.Logger
}

// New builds the full service. Registry may be nil: the service then
// starts directly in degraded mode instead of refusing to construct,
// because answering through the bare completer beats not answering.
func New(
	g *gatex.Gate,
	registry contractx.Registry,
	memory contractx.MemoryStore,
	appender *memoryx.Appender,
	completer contractx.Completer,
	cfg Config,
) (*Service, error) {
	if g == nil {
		return nil, errors.New("security gate is required")
	}

	s := &Service{
		gate:           g,
		registry:       registry,
		memory:         memory,
		appender:       appender,
		completer:      completer,
		degradedPrompt: promptx.LoadPromptSet().Degraded,
		timeouts: nodex.Timeouts{
			Single: cfg.SingleTimeout,
			Agent:  cfg.AgentTimeout,
		},
		now: time.Now,
		log: logx.Component("supervisor"),
	}

	if registry != nil {
		runner, err := s.compileRequestGraph(context.Background())
		if err != nil {
			return nil, err
		}
		s.graphRunner = runner
	} else {
		s.log.Warn().Msg("no agent registry, starting in degraded mode")
	}

	return s, nil
}

// Degraded reports whether the service runs without the agent layer.
func (s *Service) Degraded() bool {
	return s.graphRunner == nil
}

// Handle answers one query. It returns an error only for invalid input
// and gate blocks; every downstream failure degrades toward the direct
// completion path and finally the fixed placeholder.
func (s *Service) Handle(ctx context.Context, q contractx.Query, uc contractx.UserContext) (contractx.SynthesizedResponse, error) {
	requestID := uuid.NewString()
	log := s.log.With().Str("request_id", requestID).Logger()

	if strings.TrimSpace(q.Text) == "" {
		return contractx.SynthesizedResponse{}, ErrInvalidQuery
	}

	if s.graphRunner == nil {
		return s.handleDegraded(ctx, log, q, uc)
	}

	out, err := s.graphRunner.Invoke(ctx, nodex.GraphInput{Query: q, User: uc})
	switch {
	case err == nil:
		metrics.RequestsTotal.WithLabelValues(string(out.Response.Routing.Strategy)).Inc()
		log.Info().
			Str("strategy", string(out.Response.Routing.Strategy)).
			Int("contributions", len(out.Response.Contributions)).
			Int("skipped", len(out.Response.SkippedTimeouts)).
			Msg("request handled")
		return out.Response, nil
	case errors.Is(err, contractx.ErrPermissionDenied):
		metrics.RequestsTotal.WithLabelValues("blocked").Inc()
		return contractx.SynthesizedResponse{}, err
	case errors.Is(err, nodex.ErrInvalidQuery), errors.Is(err, nodex.ErrUnknownPinnedAgent),
		errors.Is(err, contractx.ErrValidation):
		metrics.RequestsTotal.WithLabelValues("rejected").Inc()
		return contractx.SynthesizedResponse{}, err
	default:
		log.Warn().Err(fmt.Errorf("%w: %v", contractx.ErrOrchestratorUnavailable, err)).
			Msg("orchestration graph failed, degrading to direct completion")
		return s.handleDegraded(ctx, log, q, uc)
	}
}

// handleDegraded gates the query, then bypasses classification and
// dispatch entirely. If even the completer fails, the caller gets the
// placeholder, never the raw error.
func (s *Service) handleDegraded(ctx context.Context, log zerolog.Logger, q contractx.Query, uc contractx.UserContext) (contractx.SynthesizedResponse, error) {
	filtered, _, err := s.gate.Filter(q, uc)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("blocked").Inc()
		return contractx.SynthesizedResponse{}, err
	}

	if s.completer != nil {
		text, err := s.completer.Complete(ctx, s.degradedPrompt, filtered.Text)
		if err == nil && strings.TrimSpace(text) != "" {
			metrics.RequestsTotal.WithLabelValues("degraded").Inc()
			log.Info().Msg("request handled by degraded completion")
			return contractx.SynthesizedResponse{
				Text:           strings.TrimSpace(text),
				ConversationID: filtered.ConversationID,
				Degraded:       true,
			}, nil
		}
		log.Error().Err(err).Msg("degraded completion failed, returning placeholder")
	} else {
		log.Error().Err(contractx.ErrCatastrophic).Msg("no completer available, returning placeholder")
	}

	metrics.RequestsTotal.WithLabelValues("placeholder").Inc()
	return contractx.SynthesizedResponse{
		Text:           Placeholder,
		ConversationID: filtered.ConversationID,
		Degraded:       true,
	}, nil
}

// Close flushes pending memory writes.
func (s *Service) Close() {
	if s.appender != nil {
		s.appender.Close()
	}
}
