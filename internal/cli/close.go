package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/itelinc/incuchat/internal/portal"
)

func newCloseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "close <chat-id>",
		Short: "Close a conversation",
		Args:  cobra.ExactArgs(1),
		RunE:  runClose,
	}
	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func runClose(cmd *cobra.Command, args []string) error {
	runtime, err := EnsureRuntime(cmd)
	if err != nil {
		return err
	}
	defer runtime.Close()

	conversationID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return Exitf(ExitCodeFailure, "invalid chat id %q", args[0])
	}

	ctx := cmd.Context()
	if err := runtime.Engine.RefreshList(ctx); err != nil {
		if errors.Is(err, portal.ErrSessionExpired) {
			return failAuth(err)
		}
		return Exitf(ExitCodeFailure, "fetch conversations: %v", err)
	}

	conversation, ok := runtime.Engine.Conversation(conversationID)
	if !ok {
		return Exitf(ExitCodeFailure, "unknown chat %d", conversationID)
	}
	if conversation.Closed() {
		fmt.Fprintf(cmd.OutOrStdout(), "Chat %d is already closed.\n", conversationID)
		return nil
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		fmt.Fprintf(cmd.OutOrStdout(), "Close chat %d (%s)? [y/N] ", conversationID, conversation.Subject)
		reader := bufio.NewReader(cmd.InOrStdin())
		answer, _ := reader.ReadString('\n')
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	if err := runtime.Engine.CloseConversation(ctx, conversationID); err != nil {
		if errors.Is(err, portal.ErrSessionExpired) {
			return failAuth(err)
		}
		return Exitf(ExitCodeFailure, "close: %v", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Closed chat %d.\n", conversationID)
	return nil
}
