package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one entry in a session transcript.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}
