package chat

// GlobalRoomID names the one room that is open to everyone. It is created
// when the room store starts and is never membership-gated.
const GlobalRoomID = "global"

// Member records a user's denormalized profile at the moment they joined.
type Member struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL,omitempty"`
	JoinedAt    int64  `json:"joinedAt"`
}

// LastMessage is the denormalized preview shown in the room directory. It is
// overwritten on every send with last-writer-wins semantics.
type LastMessage struct {
	Text      string `json:"text"`
	UserName  string `json:"userName"`
	Timestamp int64  `json:"timestamp"`
}

// Room holds chat room metadata. Messages live in the message log, keyed by
// the room id.
type Room struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	CreatedBy   string            `json:"createdBy"`
	CreatedAt   int64             `json:"createdAt"`
	Members     map[string]Member `json:"members"`
	LastMessage *LastMessage      `json:"lastMessage,omitempty"`
}

// IsMember reports whether the user id is in the member map.
func (r Room) IsMember(userID string) bool {
	_, ok := r.Members[userID]
	return ok
}
