package supervisornode

import (
	"fmt"

	contractx "github.com/corvid-labs/atlas/agent/contract"
)

func FinalizeResponse(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	return GraphOutput{
		Response: contractx.SynthesizedResponse{
			Text:            in.Text,
			Routing:         in.Routing,
			SkippedTimeouts: in.Skipped,
			FailedAgents:    in.Failed,
			Contributions:   in.Responses,
			ConversationID:  in.Filtered.ConversationID,
		},
	}, nil
}
