package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSubmitAnswer Action = "SubmitAnswer"
	ActionSubmitExam   Action = "SubmitExam"
	ActionHeartbeat    Action = "Heartbeat"
	ActionSyncState    Action = "SyncState"
	ActionForceSubmit  Action = "ForceSubmit"
	ActionStartExam    Action = "StartExam"
	ActionReconnect    Action = "Reconnect"
)

// RequestPayload is the single client message shape. Order, QuestionID and
// Answer are only meaningful for SubmitAnswer; the other actions carry the
// discriminator alone.
type RequestPayload struct {
	Action     Action `json:"action" validate:"required,oneof=SubmitAnswer SubmitExam Heartbeat SyncState ForceSubmit StartExam Reconnect"`
	Order      int    `json:"order" validate:"required_if=Action SubmitAnswer,omitempty,min=1"`
	QuestionID int64  `json:"questionId" validate:"required_if=Action SubmitAnswer"`
	Answer     string `json:"answer"`
}

// ─── Responses (Server → Client) ────────────────────────────────────
//
// Periodic countdown ticks are sent as a raw integer text frame (the number
// of remaining seconds) and have no struct here.

// StatusResponse covers acknowledgements: answer saves, heartbeats and
// StartExam confirmations.
type StatusResponse struct {
	Status string `json:"status"`
}

// ResultResponse is the terminal payload after grading.
type ResultResponse struct {
	Status string  `json:"status"`
	Score  float64 `json:"score"`
}
