package models

// Phase is one of the seven SDLC stages a requirement is assigned to.
type Phase string

const (
	PhasePlanning       Phase = "Planning"
	PhaseRequirements   Phase = "Requirements"
	PhaseDesign         Phase = "Design"
	PhaseImplementation Phase = "Implementation"
	PhaseTesting        Phase = "Testing"
	PhaseDeployment     Phase = "Deployment"
	PhaseMaintenance    Phase = "Maintenance"
)

var phases = []Phase{
	PhasePlanning,
	PhaseRequirements,
	PhaseDesign,
	PhaseImplementation,
	PhaseTesting,
	PhaseDeployment,
	PhaseMaintenance,
}

// Phases returns the canonical phases in lifecycle order.
func Phases() []Phase {
	out := make([]Phase, len(phases))
	copy(out, phases)
	return out
}

// Valid reports whether p is one of the canonical phases.
func (p Phase) Valid() bool {
	for _, c := range phases {
		if p == c {
			return true
		}
	}
	return false
}

// Requirement is a single candidate statement and the phase it was assigned.
type Requirement struct {
	Sentence string `json:"sentence"`
	Phase    Phase  `json:"phase"`
}

const (
	// MaxRequirements caps every classification result.
	MaxRequirements = 50
	// MaxPerPhase caps heuristic results per phase.
	MaxPerPhase = 10
)

// DefaultRequirements is returned when classification fails unexpectedly.
func DefaultRequirements() []Requirement {
	return []Requirement{{Sentence: "Project planning and scope definition", Phase: PhasePlanning}}
}

// Truncate caps reqs at MaxRequirements.
func Truncate(reqs []Requirement) []Requirement {
	if len(reqs) > MaxRequirements {
		return reqs[:MaxRequirements]
	}
	return reqs
}
