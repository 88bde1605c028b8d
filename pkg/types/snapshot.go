package types

// Snapshot is the full session object broadcast after every change.
type Snapshot struct {
	Version        int                     `json:"version"`
	Status         string                  `json:"status"` // "empty" | "lobby" | "full" | "started"
	SessionOwner   string                  `json:"sessionOwner"`
	AvailableSlots []string                `json:"availableSlots"`
	Players        map[string]PlayerStatus `json:"players"`
}

type PlayerStatus struct {
	Location     string   `json:"location"`
	AllowedMoves []string `json:"allowedMoves"`
}

const (
	StatusEmpty   = "empty"
	StatusLobby   = "lobby"
	StatusFull    = "full"
	StatusStarted = "started"
)

// Envelope decodes either outbound message shape; Error is set for rejections.
type Envelope struct {
	Snapshot
	Error string `json:"error,omitempty"`
}
