package chat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeDecodesMixedPortalLayouts(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
	}{
		{`"2026-08-01T10:00:05Z"`, time.Date(2026, 8, 1, 10, 0, 5, 0, time.UTC)},
		{`"2026-08-01 10:00:05"`, time.Date(2026, 8, 1, 10, 0, 5, 0, time.UTC)},
		{`"2026-08-01T10:00:05"`, time.Date(2026, 8, 1, 10, 0, 5, 0, time.UTC)},
		{`""`, time.Time{}},
		{`null`, time.Time{}},
	}
	for _, tc := range cases {
		var got Time
		require.NoError(t, json.Unmarshal([]byte(tc.raw), &got), "raw %s", tc.raw)
		assert.True(t, got.Equal(tc.want), "raw %s decoded to %v", tc.raw, got.Time)
	}

	var bad Time
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &bad))
}

func TestConversationDecodesPortalFieldNames(t *testing.T) {
	raw := `{
		"chatlistrecid": 7,
		"chatlistchattypeid": 3,
		"chatlistsubject": "Demo day",
		"chatlistchatstate": 1,
		"chatlistfrom": 1,
		"chatlistto": 2,
		"usersnamefrom": "Asha",
		"usersnameto": "Bruno",
		"chatlistmodifiedtime": "2026-08-01 10:00:05"
	}`
	var c Conversation
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	assert.Equal(t, int64(7), c.ID)
	assert.Equal(t, TypeBroadcastNoReply, c.TypeID)
	assert.False(t, c.Closed())
	assert.Equal(t, "Bruno", c.PartnerName(1))
	assert.Equal(t, "Asha", c.PartnerName(2))
}

func TestTypeSemantics(t *testing.T) {
	assert.True(t, TypeIncubatorToIncubatee.AllowsReply())
	assert.False(t, TypeBroadcastNoReply.AllowsReply())
	assert.False(t, TypeIncubatorToIncubatee.FansOut())
	assert.True(t, TypeGroupPrivateReply.FansOut())
	assert.False(t, Type(0).Valid())
	assert.False(t, Type(6).Valid())
}

func TestRecipientAndParticipant(t *testing.T) {
	c := testConversation(7, TypeIncubatorToIncubatee)

	to, ok := c.Recipient(1)
	require.True(t, ok)
	assert.Equal(t, int64(2), to)

	from, ok := c.Recipient(2)
	require.True(t, ok)
	assert.Equal(t, int64(1), from)

	_, ok = c.Recipient(99)
	assert.False(t, ok)
	assert.False(t, c.Participant(99))
}

func TestMessageUnreadAndAttachment(t *testing.T) {
	m := testMessage(1, 7, "hello", at(1))
	assert.False(t, m.Unread())
	assert.False(t, m.HasAttachment())

	m.ReadStatus = ReadStatusUnread
	m.AttachmentPath = "uploads/chat/deck.pdf"
	assert.True(t, m.Unread())
	assert.True(t, m.HasAttachment())
}
