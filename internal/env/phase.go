package env

// Phase is the lifecycle position of an Environment. Transitions only move
// forward except Steady, which is re-entrant for device create/delete cycles.
type Phase int

const (
	Uninitialized Phase = iota
	ClusterReady
	ImagesReady
	DependencyReady
	ControllerReady
	Steady
	TearingDown
	Destroyed
)

var phaseNames = map[Phase]string{
	Uninitialized:   "Uninitialized",
	ClusterReady:    "ClusterReady",
	ImagesReady:     "ImagesReady",
	DependencyReady: "DependencyReady",
	ControllerReady: "ControllerReady",
	Steady:          "Steady",
	TearingDown:     "TearingDown",
	Destroyed:       "Destroyed",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "Unknown"
}
