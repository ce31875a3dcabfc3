package models

type PollOption struct {
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

type Poll struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	// Options keeps creation order; votes are indexed by position.
	Options   []PollOption `json:"options"`
	CreatedAt int64        `json:"created_at"`
}
