package chat

// Message is one immutable entry in a room's append-only log. The ID is
// assigned by the log and sorts in append order; Timestamp is the sender's
// wall clock and is advisory display metadata only.
type Message struct {
	ID           string `json:"id"`
	RoomID       string `json:"roomId"`
	UserID       string `json:"userId"`
	UserName     string `json:"userName"`
	UserPhotoURL string `json:"userPhotoURL,omitempty"`
	Text         string `json:"text"`
	Timestamp    int64  `json:"timestamp"`
}
