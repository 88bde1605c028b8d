// Package types holds the JSON wire format shared by the server and Go clients.
package types

import "encoding/json"

// Client -> Server
//
//	{"playerId": "playerRed", "action": "enroll"}
//	{"playerId": "playerRed", "action": "move", "details": "center"}
//	{"playerId": "playerRed", "action": "move", "details": {"destination": "center"}}
type ClientMessage struct {
	PlayerID string          `json:"playerId"`
	Action   string          `json:"action"`
	Details  json.RawMessage `json:"details,omitempty"`
}

const (
	ActionInquire = "inquire"
	ActionEnroll  = "enroll"
	ActionStart   = "start"
	ActionMove    = "move"
)

type MoveDetails struct {
	Destination string `json:"destination"`
}

// Server -> Client, sent only to the socket whose message was rejected.
type ErrorMessage struct {
	Error string `json:"error"`
}
