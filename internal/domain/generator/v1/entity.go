package v1

// State is the tick generator lifecycle state.
type State string

const (
	// StateIdle means the generator is waiting on readiness or a trigger.
	StateIdle State = "idle"
	// StateArmed means readiness fired and the scheduling loop is starting.
	StateArmed State = "armed"
	// StateStreaming means ticks are being emitted on cadence.
	StateStreaming State = "streaming"
	// StateStopped is terminal for the process lifetime.
	StateStopped State = "stopped"
)

// Stats are cumulative generator counters for the operational surface.
type Stats struct {
	State     State             `json:"state"`
	Emitted   uint64            `json:"emitted"`
	Dropped   uint64            `json:"dropped"`
	Sequences map[string]uint64 `json:"sequences"`
}
