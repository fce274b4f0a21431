package openrouter

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// Completer is a plain prompt-in/text-out wrapper over a chat model. The
// supervisor's degraded path and agents' phrasing step both use it.
type Completer struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

func NewCompleter(ctx context.Context, chatModel einomodel.BaseChatModel) (*Completer, error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{input}"),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add completer prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add completer model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add completer edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add completer edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add completer edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("openrouter.completer"))
	if err != nil {
		return nil, fmt.Errorf("compile completer graph: %w", err)
	}
	return &Completer{runner: runner}, nil
}

func (c *Completer) Complete(ctx context.Context, system, input string) (string, error) {
	msg, err := c.runner.Invoke(ctx, map[string]any{
		"system": system,
		"input":  input,
	})
	if err != nil {
		return "", fmt.Errorf("completer invoke: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("completer returned empty content")
	}
	return strings.TrimSpace(msg.Content), nil
}
