package model

type FriendDTO struct {
	ID    int        `json:"id"`
	User  PublicUser `json:"user"`
	Since string     `json:"since"`
}

type FriendRequestDTO struct {
	ID        int        `json:"id"`
	User      PublicUser `json:"user"`
	CreatedAt string     `json:"created_at"`
	Status    string     `json:"status"`
}

type GroupInvitesPayload struct {
	Incoming []GroupInviteDTO `json:"incoming"`
	Outgoing []GroupInviteDTO `json:"outgoing"`
}

type ContactsPayload struct {
	Friends      []FriendDTO         `json:"friends"`
	Incoming     []FriendRequestDTO  `json:"incoming"`
	Outgoing     []FriendRequestDTO  `json:"outgoing"`
	GroupInvites GroupInvitesPayload `json:"group_invites"`
}

type ContactsUpdate struct {
	Contacts            ContactsPayload `json:"contacts"`
	PendingCount        int             `json:"pendingCount"`
	PendingGroupInvites int             `json:"pendingGroupInvites"`
	PendingTotal        int             `json:"pendingTotal"`
}

type UIState struct {
	ActiveChatID        *int   `json:"activeChatId"`
	PendingCount        int    `json:"pendingCount"`
	PendingGroupInvites int    `json:"pendingGroupInvites"`
	ActiveTab           string `json:"activeTab,omitempty"`
}

type InitialState struct {
	User     PrivateUser     `json:"user"`
	Chats    []ChatSummary   `json:"chats"`
	Contacts ContactsPayload `json:"contacts"`
	UI       UIState         `json:"ui"`
}

type SearchRequest struct {
	Query string `json:"query"`
}

type FriendSendRequest struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
}

type FriendRespondRequest struct {
	RequestID int    `json:"request_id" validate:"required,gt=0"`
	Action    string `json:"action" validate:"required,invite_action"`
}

type FriendCancelRequest struct {
	RequestID int `json:"request_id" validate:"required,gt=0"`
}

type FriendRemoveRequest struct {
	FriendID int `json:"friend_id" validate:"required,gt=0"`
}

type BlockRequest struct {
	UserID int `json:"user_id" validate:"required,gt=0"`
}
