package supervisornode

import (
	"fmt"

	contractx "github.com/corvid-labs/atlas/agent/contract"
	gatex "github.com/corvid-labs/atlas/agent/gate"
)

func FilterQuery(in *GraphState, g *gatex.Gate) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	filtered, decision, err := g.Filter(in.Raw, in.User)
	if err != nil {
		// Block is terminal; the service boundary maps it to a denied
		// outcome without retrying.
		return nil, err
	}

	in.Filtered = filtered
	in.GateDecision = decision
	return in, nil
}
