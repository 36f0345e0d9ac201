package model

type AttachmentDTO struct {
	ID       int    `json:"id"`
	URL      string `json:"url"`
	Mimetype string `json:"mimetype"`
	Filename string `json:"filename"`
}

type MessageDTO struct {
	ID          int             `json:"id"`
	ChatID      int             `json:"chat_id"`
	SenderID    int             `json:"sender_id"`
	Body        *string         `json:"body"`
	CreatedAt   string          `json:"created_at"`
	Attachments []AttachmentDTO `json:"attachments"`
	Sender      *PublicUser     `json:"sender"`
	ClientRef   string          `json:"client_ref,omitempty"`
}

type AttachmentPayload struct {
	Data     string `json:"data"`
	Name     string `json:"name"`
	Mimetype string `json:"mimetype"`
}

type SendMessageRequest struct {
	ChatID      int                 `json:"chat_id" validate:"required,gt=0"`
	Body        string              `json:"body"`
	Attachments []AttachmentPayload `json:"attachments" validate:"max=10"`
	ClientRef   string              `json:"client_ref"`
}

type TypingRequest struct {
	ChatID int `json:"chat_id" validate:"required,gt=0"`
}
