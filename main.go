package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	agentsx "github.com/corvid-labs/atlas/agent/agents"
	cachex "github.com/corvid-labs/atlas/agent/cache"
	contractx "github.com/corvid-labs/atlas/agent/contract"
	gatex "github.com/corvid-labs/atlas/agent/gate"
	knowledgex "github.com/corvid-labs/atlas/agent/knowledge"
	llmx "github.com/corvid-labs/atlas/agent/llm"
	memoryx "github.com/corvid-labs/atlas/agent/memory"
	relationshipx "github.com/corvid-labs/atlas/agent/relationship"
	supervisorx "github.com/corvid-labs/atlas/agent/supervisor"
	toolx "github.com/corvid-labs/atlas/agent/tool"
	configx "github.com/corvid-labs/atlas/pkg/config"
	logx "github.com/corvid-labs/atlas/pkg/logger"
	_ "github.com/corvid-labs/atlas/pkg/logger/autoload"
	openrouterx "github.com/corvid-labs/atlas/pkg/openrouter"
)

type AppConfig struct {
	MemoryWriteTimeout time.Duration `envconfig:"MEMORY_WRITE_TIMEOUT" split_words:"true" default:"5s"`
	StartupTimeout     time.Duration `envconfig:"STARTUP_TIMEOUT" split_words:"true" default:"30s"`
}

func main() {
	log := logx.Component("main")

	appCfg := configx.MustNew[AppConfig]("ATLAS")
	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	cacheCfg := configx.MustNew[cachex.Config]("REDIS")
	knowledgeCfg := configx.MustNew[knowledgex.Config]("KNOWLEDGE")
	crmCfg := configx.MustNew[relationshipx.Config]("CRM")
	memoryCfg := configx.MustNew[memoryx.Config]("MONGO")
	toolCfg := configx.MustNew[toolx.Config]("TOOL")
	supervisorCfg := configx.MustNew[supervisorx.Config]("SUPERVISOR")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startupCtx, cancel := context.WithTimeout(ctx, appCfg.StartupTimeout)
	defer cancel()

	cache, err := cachex.New(*cacheCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("redis cache init failed")
	}
	defer cache.Close()

	knowledge, err := knowledgex.New(*knowledgeCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("knowledge store client init failed")
	}

	crm, err := relationshipx.New(*crmCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("relationship service client init failed")
	}

	gateway, err := toolx.NewGateway(cache, knowledge, crm, *toolCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("tool gateway init failed")
	}

	memoryStore, err := memoryx.New(startupCtx, *memoryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("memory store init failed")
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if err := memoryStore.Close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("memory store close failed")
		}
	}()
	appender := memoryx.NewAppender(memoryStore, appCfg.MemoryWriteTimeout)

	completer := buildCompleter(startupCtx, *llmCfg)

	// A registry build failure is survivable: the supervisor falls back
	// to its degraded direct-completion path.
	var registry contractx.Registry
	if reg, err := agentsx.NewRegistry(startupCtx, *llmCfg, gateway); err != nil {
		log.Error().Err(err).Msg("agent registry init failed, continuing degraded")
	} else {
		registry = reg
	}

	service, err := supervisorx.New(
		gatex.New(gatex.DefaultPolicy()),
		registry,
		memoryStore,
		appender,
		completer,
		*supervisorCfg,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("supervisor init failed")
	}
	defer service.Close()

	log.Info().Bool("degraded", service.Degraded()).Msg("atlas supervisor ready")

	<-ctx.Done()
	log.Info().Msg("shutting down")
}

func buildCompleter(ctx context.Context, cfg llmx.Config) contractx.Completer {
	log := logx.Component("main")

	providerCfg := cfg.OpenRouterFor("")
	if openrouterx.NewClient(providerCfg) == nil {
		log.Error().Msg("openrouter api key missing, degraded path limited to placeholder")
		return nil
	}
	chatModel, err := providerCfg.New(ctx)
	if err != nil {
		log.Error().Err(err).Msg("chat model init failed, degraded path limited to placeholder")
		return nil
	}
	completer, err := openrouterx.NewCompleter(ctx, chatModel)
	if err != nil {
		log.Error().Err(err).Msg("completer graph compile failed")
		return nil
	}
	return completer
}
