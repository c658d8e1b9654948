package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/itelinc/incuchat/internal/chat"
	"github.com/itelinc/incuchat/internal/portal"
)

func newSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <chat-id> [message]",
		Short: "Send a message into a conversation",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runSend,
	}
	cmd.Flags().String("file", "", "Attach a file")
	cmd.Flags().Int64("reply-to", 0, "Reply to a message ID")
	return cmd
}

func runSend(cmd *cobra.Command, args []string) error {
	runtime, err := EnsureRuntime(cmd)
	if err != nil {
		return err
	}
	defer runtime.Close()

	conversationID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return Exitf(ExitCodeFailure, "invalid chat id %q", args[0])
	}

	draft := chat.Draft{}
	if len(args) > 1 {
		draft.Body = args[1]
	}
	if replyTo, _ := cmd.Flags().GetInt64("reply-to"); replyTo != 0 {
		draft.ReplyFor = &replyTo
	}
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return Exitf(ExitCodeFailure, "read attachment: %v", err)
		}
		draft.AttachmentName = filepath.Base(file)
		draft.AttachmentData = data
	}

	ctx := cmd.Context()
	// The engine validates against the live conversation entry.
	if err := runtime.Engine.RefreshList(ctx); err != nil {
		if errors.Is(err, portal.ErrSessionExpired) {
			return failAuth(err)
		}
		return Exitf(ExitCodeFailure, "fetch conversations: %v", err)
	}

	sent, err := runtime.Engine.Send(ctx, conversationID, draft)
	if err != nil {
		if errors.Is(err, portal.ErrSessionExpired) {
			return failAuth(err)
		}
		return Exitf(ExitCodeFailure, "send: %v", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Sent message %d to chat %d.\n", sent.ID, conversationID)
	return nil
}
