package supervisornode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/corvid-labs/atlas/agent/contract"
	memoryx "github.com/corvid-labs/atlas/agent/memory"
)

// PersistTurn hands the finished exchange to the async appender. The
// response never waits on the write; the appender assigns the sequence
// number inside the conversation's serialized queue.
func PersistTurn(
	ctx context.Context,
	in *GraphState,
	appender *memoryx.Appender,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if appender == nil || strings.TrimSpace(in.Filtered.ConversationID) == "" {
		return in, nil
	}

	appender.Enqueue(contractx.Turn{
		ConversationID: in.Filtered.ConversationID,
		Query:          in.Filtered.Text,
		Agents:         in.Routing.Agents,
		Response:       in.Text,
		At:             in.Now,
	})
	return in, nil
}
