package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func refsFromJSON(t *testing.T, payload string) []InviteeRef {
	t.Helper()
	var in struct {
		InviteeInput
	}
	require.NoError(t, json.Unmarshal([]byte(payload), &in))
	return in.Refs()
}

func TestInviteeRefsFromIDList(t *testing.T) {
	refs := refsFromJSON(t, `{"invitees": [3, 7]}`)
	assert.Equal(t, []InviteeRef{{ID: 3}, {ID: 7}}, refs)
}

func TestInviteeRefsFromUsernameList(t *testing.T) {
	refs := refsFromJSON(t, `{"usernames": ["@Alice", "bob"]}`)
	assert.Equal(t, []InviteeRef{{Username: "alice"}, {Username: "bob"}}, refs)
}

func TestInviteeRefsFromCommaString(t *testing.T) {
	refs := refsFromJSON(t, `{"members": "alice, 4, @carol"}`)
	assert.Equal(t, []InviteeRef{{Username: "alice"}, {ID: 4}, {Username: "carol"}}, refs)
}

func TestInviteeRefsFromObjects(t *testing.T) {
	refs := refsFromJSON(t, `{"invitees": [{"user_id": 9}, {"id": 2}, {"username": "dave"}]}`)
	assert.Equal(t, []InviteeRef{{ID: 9}, {ID: 2}, {Username: "dave"}}, refs)
}

func TestInviteeRefsMergesLegacyKeys(t *testing.T) {
	refs := refsFromJSON(t, `{"invitees": [1], "user_ids": [2], "usernames": "eve"}`)
	assert.Equal(t, []InviteeRef{{ID: 1}, {Username: "eve"}, {ID: 2}}, refs)
}

func TestInviteeRefsDropsGarbage(t *testing.T) {
	refs := refsFromJSON(t, `{"invitees": [0, -4, "", "  ", {"username": ""}, null, true]}`)
	assert.Empty(t, refs)
}

func TestInviteeRefsNumericString(t *testing.T) {
	refs := refsFromJSON(t, `{"invitees": "12"}`)
	assert.Equal(t, []InviteeRef{{ID: 12}}, refs)
}
