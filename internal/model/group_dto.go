package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

type GroupInviteDTO struct {
	ID        int         `json:"id"`
	ChatID    int         `json:"chat_id"`
	ChatName  *string     `json:"chat_name"`
	GroupID   int         `json:"group_id"`
	GroupName *string     `json:"group_name"`
	CreatedAt string      `json:"created_at"`
	Status    string      `json:"status"`
	Inviter   *PublicUser `json:"inviter"`
	Invitee   *PublicUser `json:"invitee"`
}

type GroupInviteRequest struct {
	ChatID int `json:"chat_id" validate:"required,gt=0"`
	InviteeInput
}

type GroupRespondRequest struct {
	InviteID int    `json:"invite_id" validate:"required,gt=0"`
	Action   string `json:"action" validate:"required,invite_action"`
}

// InviteeRef is the typed reference an invitee identifier resolves
// into: exactly one of ID or Username is set.
type InviteeRef struct {
	ID       int
	Username string
}

// InviteeInput accepts the loose shapes clients historically send for
// invitees (single string, comma list, array of ids/usernames/objects)
// under any of four legacy keys. Refs flattens all of them into typed
// references; unparsable entries are dropped.
type InviteeInput struct {
	Invitees  json.RawMessage `json:"invitees"`
	Usernames json.RawMessage `json:"usernames"`
	Members   json.RawMessage `json:"members"`
	UserIDs   json.RawMessage `json:"user_ids"`
}

func (in InviteeInput) Refs() []InviteeRef {
	var refs []InviteeRef
	for _, raw := range []json.RawMessage{in.Invitees, in.Usernames, in.Members, in.UserIDs} {
		refs = append(refs, flattenInvitees(raw)...)
	}
	return refs
}

func flattenInvitees(raw json.RawMessage) []InviteeRef {
	if len(raw) == 0 {
		return nil
	}

	var asList []json.RawMessage
	if err := json.Unmarshal(raw, &asList); err == nil {
		var refs []InviteeRef
		for _, item := range asList {
			refs = append(refs, flattenInvitees(item)...)
		}
		return refs
	}

	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		if id := int(asNumber); id > 0 {
			return []InviteeRef{{ID: id}}
		}
		return nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		var refs []InviteeRef
		for _, part := range strings.Split(asString, ",") {
			if ref, ok := inviteeRefFromString(part); ok {
				refs = append(refs, ref)
			}
		}
		return refs
	}

	var asObject struct {
		UserID   *int    `json:"user_id"`
		ID       *int    `json:"id"`
		Username *string `json:"username"`
	}
	if err := json.Unmarshal(raw, &asObject); err == nil {
		switch {
		case asObject.UserID != nil && *asObject.UserID > 0:
			return []InviteeRef{{ID: *asObject.UserID}}
		case asObject.ID != nil && *asObject.ID > 0:
			return []InviteeRef{{ID: *asObject.ID}}
		case asObject.Username != nil:
			if ref, ok := inviteeRefFromString(*asObject.Username); ok {
				return []InviteeRef{ref}
			}
		}
	}

	return nil
}

func inviteeRefFromString(value string) (InviteeRef, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return InviteeRef{}, false
	}
	if id, err := strconv.Atoi(value); err == nil && id > 0 {
		return InviteeRef{ID: id}, true
	}
	username := strings.TrimPrefix(strings.ToLower(value), "@")
	if username == "" {
		return InviteeRef{}, false
	}
	return InviteeRef{Username: username}, true
}
