package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itelinc/incuchat/internal/chat"
)

func TestExitfCarriesCodeAndWraps(t *testing.T) {
	err := Exitf(ExitCodeAuth, "no token: %w", errors.New("file missing"))

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitCodeAuth, exitErr.Code)
	assert.Contains(t, err.Error(), "file missing")
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd("test")

	for _, name := range []string{"auth", "chats", "history", "send", "create", "close", "watch", "attachment"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, "command %s", name)
		assert.Equal(t, name, cmd.Name())
	}
	assert.True(t, root.SilenceUsage)
	assert.True(t, root.SilenceErrors)
}

func TestStateLabel(t *testing.T) {
	open := chat.Conversation{State: chat.StateActive}
	closed := chat.Conversation{State: chat.StateClosed}
	assert.Equal(t, "open", stateLabel(open))
	assert.Equal(t, "closed", stateLabel(closed))
}

func TestOneLineCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", oneLine("a\n b\t\tc "))
}
