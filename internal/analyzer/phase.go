package analyzer

// Phase is the orchestrator's state machine. Transitions are strictly
// forward; Error is terminal and reachable from any phase.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseGraphBuilt
	PhaseChangesDetected
	PhaseSymbolsResolved
	PhaseIRGenerated
	PhaseLinked
	PhaseCachePersisted
	PhaseComplete
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseGraphBuilt:
		return "graph-built"
	case PhaseChangesDetected:
		return "changes-detected"
	case PhaseSymbolsResolved:
		return "symbols-resolved"
	case PhaseIRGenerated:
		return "ir-generated"
	case PhaseLinked:
		return "linked"
	case PhaseCachePersisted:
		return "cache-persisted"
	case PhaseComplete:
		return "complete"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}
