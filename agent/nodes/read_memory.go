package supervisornode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/corvid-labs/atlas/agent/contract"
)

// memorySummaryTurns caps how many past turns feed the summary handed to
// agents.
const memorySummaryTurns = 5

// ReadMemory loads recent turns of the conversation into a compact
// summary. A memory read failure degrades to an empty summary; history is
// context, not a dependency.
func ReadMemory(ctx context.Context, in *GraphState, store contractx.MemoryStore) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if store == nil || strings.TrimSpace(in.Filtered.ConversationID) == "" {
		return in, nil
	}

	turns, err := store.Read(ctx, in.Filtered.ConversationID)
	if err != nil {
		return in, nil
	}
	if len(turns) > memorySummaryTurns {
		turns = turns[len(turns)-memorySummaryTurns:]
	}

	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "user: %s\nassistant: %s\n", t.Query, t.Response)
	}
	in.MemorySummary = strings.TrimSpace(b.String())
	return in, nil
}
