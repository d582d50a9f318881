package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/npezzotti/go-dm/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestNow(t *testing.T) {
	now := Now()
	assert.Equal(t, time.UTC, now.Location(), "expected timestamp in UTC")
	assert.Equal(t, now, now.Round(time.Millisecond), "expected timestamp rounded to milliseconds")
}

func Test_newOnlineUsers(t *testing.T) {
	msg := newOnlineUsers([]int{1, 2, 3})

	assert.NotNil(t, msg.OnlineUsers, "expected online users payload to be set")
	assert.Equal(t, []int{1, 2, 3}, msg.OnlineUsers.UserIds, "expected user ids to match")
	assert.WithinDuration(t, Now(), msg.Timestamp, time.Second, "expected timestamp to be set")
}

func Test_newUsersUpdated(t *testing.T) {
	users := []types.User{{Id: 1, Username: "alice"}, {Id: 2, Username: "bob"}}
	msg := newUsersUpdated(users)

	assert.NotNil(t, msg.UsersUpdated, "expected users updated payload to be set")
	assert.Equal(t, users, msg.UsersUpdated.Users, "expected roster to match")
}

func Test_newUnreadUpdate(t *testing.T) {
	msg := newUnreadUpdate(7, 3)

	assert.NotNil(t, msg.UnreadUpdate, "expected unread update payload to be set")
	assert.Equal(t, 7, msg.UnreadUpdate.SenderId, "expected sender id to match")
	assert.Equal(t, 3, msg.UnreadUpdate.Count, "expected count to match")
}

func Test_newMessageSeen(t *testing.T) {
	seenAt := Now()
	msg := newMessageSeen("abc123", seenAt, 2)

	assert.NotNil(t, msg.MessageSeen, "expected message seen payload to be set")
	assert.Equal(t, "abc123", msg.MessageSeen.MessageId, "expected message id to match")
	assert.Equal(t, seenAt, msg.MessageSeen.SeenAt, "expected seen time to match")
	assert.Equal(t, 2, msg.MessageSeen.By, "expected reader id to match")
}

func Test_newTypingEvent(t *testing.T) {
	t.Run("typing", func(t *testing.T) {
		msg := newTypingEvent(5, false)
		assert.NotNil(t, msg.Typing, "expected typing payload to be set")
		assert.Nil(t, msg.StopTyping, "expected stop typing payload to be unset")
		assert.Equal(t, 5, msg.Typing.From, "expected sender id to match")
	})

	t.Run("stopped typing", func(t *testing.T) {
		msg := newTypingEvent(5, true)
		assert.NotNil(t, msg.StopTyping, "expected stop typing payload to be set")
		assert.Nil(t, msg.Typing, "expected typing payload to be unset")
		assert.Equal(t, 5, msg.StopTyping.From, "expected sender id to match")
	})
}

func TestServerMessage_Marshal(t *testing.T) {
	msg := newUnreadUpdate(7, 3)
	data, err := json.Marshal(msg)
	assert.NoError(t, err, "expected message to marshal")

	var decoded map[string]json.RawMessage
	err = json.Unmarshal(data, &decoded)
	assert.NoError(t, err, "expected message to unmarshal")

	assert.Contains(t, decoded, "unread_update", "expected unread_update key to be present")
	assert.Contains(t, decoded, "timestamp", "expected timestamp key to be present")
	assert.NotContains(t, decoded, "new_message", "expected unset payloads to be omitted")
	assert.NotContains(t, decoded, "online_users", "expected unset payloads to be omitted")
}
