package line

// BotProfile is the bot's own profile, returned by /bot/profile.
type BotProfile struct {
	UserID        string `json:"userId"`
	DisplayName   string `json:"displayName"`
	StatusMessage string `json:"statusMessage,omitempty"`
	PictureURL    string `json:"pictureUrl,omitempty"`
}

// Profile is a group member's profile.
type Profile struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	PictureURL  string `json:"pictureUrl,omitempty"`
}

// GroupSummary describes a group the bot has joined.
type GroupSummary struct {
	GroupID    string `json:"groupId"`
	GroupName  string `json:"groupName"`
	Count      int    `json:"count,omitempty"`
	PictureURL string `json:"pictureUrl,omitempty"`
}

type memberIDsResponse struct {
	MemberIDs []string `json:"memberIds"`
	Next      string   `json:"next,omitempty"`
}

type pushMessageRequest struct {
	To       string        `json:"to"`
	Messages []textMessage `json:"messages"`
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
