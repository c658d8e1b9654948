package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/itelinc/incuchat/internal/chat"
	"github.com/itelinc/incuchat/internal/portal"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the full message transcript",
		RunE:  runHistory,
	}
	cmd.Flags().Int64("chat", 0, "Limit to one conversation ID")
	cmd.Flags().Bool("unread", false, "Only messages still unread")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	runtime, err := EnsureRuntime(cmd)
	if err != nil {
		return err
	}
	defer runtime.Close()

	ctx := cmd.Context()
	chatID, _ := cmd.Flags().GetInt64("chat")
	unreadOnly, _ := cmd.Flags().GetBool("unread")

	var messages []chat.Message
	if chatID != 0 {
		messages, err = runtime.Client.Messages(ctx, chatID)
	} else {
		messages, err = runtime.Client.History(ctx)
	}
	if err != nil {
		if errors.Is(err, portal.ErrSessionExpired) {
			return failAuth(err)
		}
		messages, err = cachedHistory(cmd, runtime, chatID, err)
		if err != nil {
			return err
		}
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedTime.Before(messages[j].CreatedTime.Time)
	})

	session := runtime.Engine.Session()
	for _, m := range messages {
		if unreadOnly && !m.Unread() {
			continue
		}
		direction := "←"
		if m.From == session.UserID {
			direction = "→"
		}
		marker := " "
		if m.Unread() && m.To == session.UserID {
			marker = "*"
		}
		attachment := ""
		if m.HasAttachment() {
			attachment = " [" + m.AttachmentName + "]"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s%s chat:%-6d %-17s %s%s\n",
			marker, direction, m.ConversationID,
			m.CreatedTime.Format("2006-01-02 15:04"),
			runewidth.Truncate(oneLine(m.Body), 80, "…"),
			attachment,
		)
	}
	return nil
}

func cachedHistory(cmd *cobra.Command, runtime *Runtime, chatID int64, fetchErr error) ([]chat.Message, error) {
	if runtime.Cache == nil {
		return nil, Exitf(ExitCodeFailure, "fetch history: %v", fetchErr)
	}
	ctx := cmd.Context()
	var messages []chat.Message
	var err error
	if chatID != 0 {
		messages, err = runtime.Cache.Messages(ctx, chatID)
	} else {
		messages, err = runtime.Cache.AllMessages(ctx)
	}
	if err != nil || len(messages) == 0 {
		return nil, Exitf(ExitCodeFailure, "fetch history: %v", fetchErr)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "warning: portal unreachable, showing cached data")
	return messages, nil
}
