package models

// Kind classifies the payload a message carries.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindFile  Kind = "file"
	KindPoll  Kind = "poll"
)

// ValidKind reports whether k is one of the known message kinds.
func ValidKind(k Kind) bool {
	switch k {
	case KindText, KindImage, KindFile, KindPoll:
		return true
	}
	return false
}

type Message struct {
	ID string `json:"id"`
	// AuthorID is the identity that created the message; only this identity
	// may edit or delete it.
	AuthorID string `json:"author_id"`
	// AuthorName is a display-name snapshot taken at creation time. It does
	// not track later renames of the identity.
	AuthorName string `json:"author_name,omitempty"`
	Kind       Kind   `json:"kind"`
	Body       string `json:"body,omitempty"`
	// AttachmentRef is an opaque reference into attachment storage; present
	// only for image/file kinds.
	AttachmentRef string `json:"attachment_ref,omitempty"`
	// FileName is the original upload filename, kept for display.
	FileName string `json:"file_name,omitempty"`
	Edited   bool   `json:"edited,omitempty"`
	// CreatedAt is a UTC unix-nano timestamp assigned at creation. Together
	// with the store's insertion counter it forms the history order.
	CreatedAt int64 `json:"created_at"`
}

// HasContent reports whether the message carries content of some form.
// Every stored message must have a non-empty body or an attachment.
func (m Message) HasContent() bool {
	return m.Body != "" || m.AttachmentRef != ""
}
