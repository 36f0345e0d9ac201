package model

type MemberDTO struct {
	ID       int        `json:"id"`
	User     PublicUser `json:"user"`
	IsAdmin  bool       `json:"is_admin"`
	JoinedAt string     `json:"joined_at"`
}

type ChatSummary struct {
	ID          int         `json:"id"`
	IsGroup     bool        `json:"is_group"`
	Name        string      `json:"name"`
	CreatedAt   string      `json:"created_at"`
	UpdatedAt   string      `json:"updated_at"`
	Members     []MemberDTO `json:"members"`
	Partner     *PublicUser `json:"partner"`
	LastMessage *MessageDTO `json:"last_message"`
	CanMessage  bool        `json:"can_message"`
	Creator     *PublicUser `json:"creator"`
}

type CreateChatRequest struct {
	Type     string `json:"type" validate:"omitempty,chat_type"`
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	InviteeInput
}

type ChatRefRequest struct {
	ChatID int `json:"chat_id" validate:"required,gt=0"`
}
