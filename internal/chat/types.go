// Package chat implements the client-side chat synchronization engine for the
// incubation portal: conversation and message stores, polling, send
// coordination, and read-state tracking.
package chat

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Type enumerates conversation types as the portal encodes them.
type Type int

const (
	TypeIncubatorToIncubatee Type = 1
	TypeIncubateeToIncubator Type = 2
	TypeBroadcastNoReply     Type = 3
	TypeGroupPublicReply     Type = 4
	TypeGroupPrivateReply    Type = 5
)

// String returns the label the portal UI uses for the type.
func (t Type) String() string {
	switch t {
	case TypeIncubatorToIncubatee:
		return "Incubator → Incubatee"
	case TypeIncubateeToIncubator:
		return "Incubatee → Incubator"
	case TypeBroadcastNoReply:
		return "Broadcast (No Reply)"
	case TypeGroupPublicReply:
		return "Group Chat (Public Replies)"
	case TypeGroupPrivateReply:
		return "Group Chat (Private Replies)"
	default:
		return fmt.Sprintf("Unknown (%d)", int(t))
	}
}

// Valid reports whether the type is one the portal defines.
func (t Type) Valid() bool {
	return t >= TypeIncubatorToIncubatee && t <= TypeGroupPrivateReply
}

// AllowsReply reports whether messages may be sent into a conversation of
// this type. Broadcast conversations are one-way.
func (t Type) AllowsReply() bool {
	return t != TypeBroadcastNoReply
}

// FansOut reports whether creating a conversation of this type with several
// recipients produces one conversation per recipient.
func (t Type) FansOut() bool {
	switch t {
	case TypeBroadcastNoReply, TypeGroupPublicReply, TypeGroupPrivateReply:
		return true
	default:
		return false
	}
}

// Conversation states.
const (
	StateClosed = 0
	StateActive = 1
)

// Portal role IDs. 1-3 are incubator side, 4-6 incubatee side.
const (
	RoleSuperAdmin        = 1
	RoleAdmin             = 2
	RoleAdminOperator     = 3
	RoleIncubateeAdmin    = 4
	RoleIncubateeManager  = 5
	RoleIncubateeOperator = 6
)

// IsIncubatorRole reports whether the role belongs to the incubator side,
// which may create broadcast and group conversations.
func IsIncubatorRole(roleID int) bool {
	return roleID == RoleSuperAdmin || roleID == RoleAdmin || roleID == RoleAdminOperator
}

// timeLayouts are the wire formats the portal has been observed to emit.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Time wraps time.Time to decode the portal's mixed timestamp formats.
type Time struct {
	time.Time
}

// UnmarshalJSON accepts any of the portal's observed timestamp layouts.
// An empty or null value decodes to the zero time.
func (t *Time) UnmarshalJSON(data []byte) error {
	trimmed := bytes.Trim(data, `"`)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	value := string(trimmed)
	for _, layout := range timeLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized portal timestamp %q", value)
}

// MarshalJSON emits RFC3339, which the portal accepts on writes.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.Format(time.RFC3339) + `"`), nil
}

// Conversation is one chat-list entry. Field tags follow the portal's wire
// names so snapshots decode directly.
type Conversation struct {
	ID           int64  `json:"chatlistrecid"`
	TypeID       Type   `json:"chatlistchattypeid"`
	Subject      string `json:"chatlistsubject"`
	State        int    `json:"chatlistchatstate"`
	From         int64  `json:"chatlistfrom"`
	To           int64  `json:"chatlistto"`
	FromName     string `json:"usersnamefrom"`
	ToName       string `json:"usersnameto"`
	ModifiedTime Time   `json:"chatlistmodifiedtime"`
	LastMessage  string `json:"lastMessage"`
}

// Closed reports whether the conversation has been closed. Closing is a
// state transition, never a removal.
func (c Conversation) Closed() bool {
	return c.State == StateClosed
}

// PartnerName returns the display name of the other participant relative
// to userID.
func (c Conversation) PartnerName(userID int64) string {
	if c.From == userID {
		if c.ToName != "" {
			return c.ToName
		}
		return "User " + strconv.FormatInt(c.To, 10)
	}
	if c.FromName != "" {
		return c.FromName
	}
	return "User " + strconv.FormatInt(c.From, 10)
}

// Participant reports whether userID is one of the two conversation ends.
func (c Conversation) Participant(userID int64) bool {
	return c.From == userID || c.To == userID
}

// Recipient returns the other end of the conversation for userID. The second
// result is false when userID is not a participant.
func (c Conversation) Recipient(userID int64) (int64, bool) {
	switch userID {
	case c.From:
		return c.To, true
	case c.To:
		return c.From, true
	default:
		return 0, false
	}
}

// Read-status encoding: the portal marks freshly delivered messages with 1
// and flips to 0 once the recipient acknowledges them.
const (
	ReadStatusUnread = 1
	ReadStatusRead   = 0
)

// Message is one chat-detail entry.
type Message struct {
	ID             int64  `json:"chatdetailsrecid"`
	ConversationID int64  `json:"chatdetailslistid"`
	TypeID         Type   `json:"chatdetailstypeid"`
	From           int64  `json:"chatdetailsfrom"`
	To             int64  `json:"chatdetailsto"`
	Body           string `json:"chatdetailsmessage"`
	AttachmentPath string `json:"chatdetailsattachmentpath,omitempty"`
	AttachmentName string `json:"chatdetailsfilename,omitempty"`
	ReplyFor       *int64 `json:"chatdetailsreplyfor,omitempty"`
	CreatedTime    Time   `json:"chatdetailscreatedtime"`
	ReadStatus     int    `json:"chatdetailsreadstatus"`

	// LocalTag correlates an optimistic append with the confirming snapshot.
	// Never sent to the portal.
	LocalTag string `json:"-"`
}

// Unread reports whether the message still awaits acknowledgment.
func (m Message) Unread() bool {
	return m.ReadStatus == ReadStatusUnread
}

// HasAttachment reports whether the message carries an attachment reference.
func (m Message) HasAttachment() bool {
	return m.AttachmentPath != ""
}

// User is a portal user directory entry, used when picking recipients for a
// new conversation.
type User struct {
	ID       int64  `json:"usersrecid"`
	Name     string `json:"usersname"`
	Email    string `json:"usersemail,omitempty"`
	RoleID   int    `json:"usersroleid,omitempty"`
	RoleName string `json:"rolename,omitempty"`
}

// ChatTypeInfo describes a conversation type as returned by the portal's
// chat-type directory.
type ChatTypeInfo struct {
	Value       Type   `json:"chattypeid"`
	Description string `json:"chattypedescription"`
}

// Domain errors.
var (
	ErrNotParticipant      = errors.New("user is not a participant in this conversation")
	ErrConversationClosed  = errors.New("conversation is closed")
	ErrBroadcastNoReply    = errors.New("broadcast conversations do not accept replies")
	ErrEmptyMessage        = errors.New("message body and attachment are both empty")
	ErrUnknownConversation = errors.New("unknown conversation")
)
