package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itelinc/incuchat/internal/chat"
	"github.com/itelinc/incuchat/internal/portal"
)

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new conversation",
		Long: "Opens a conversation of the given type. Broadcast and group types\n" +
			"fan out into one conversation per recipient.",
		RunE: runCreate,
	}
	cmd.Flags().Int("type", int(chat.TypeIncubatorToIncubatee), "Chat type (1-5)")
	cmd.Flags().Int64Slice("to", nil, "Recipient user ID (repeatable)")
	cmd.Flags().String("subject", "", "Conversation subject")
	cmd.Flags().Bool("recipients", false, "List available recipients and exit")
	return cmd
}

func runCreate(cmd *cobra.Command, args []string) error {
	runtime, err := EnsureRuntime(cmd)
	if err != nil {
		return err
	}
	defer runtime.Close()

	ctx := cmd.Context()

	if list, _ := cmd.Flags().GetBool("recipients"); list {
		users, spocs, err := runtime.Client.Recipients(ctx)
		if err != nil {
			if errors.Is(err, portal.ErrSessionExpired) {
				return failAuth(err)
			}
			return Exitf(ExitCodeFailure, "fetch recipients: %v", err)
		}
		for _, u := range users {
			fmt.Fprintf(cmd.OutOrStdout(), "%-8d %s\n", u.ID, u.Name)
		}
		for _, u := range spocs {
			fmt.Fprintf(cmd.OutOrStdout(), "%-8d %s (SPOC)\n", u.ID, u.Name)
		}
		return nil
	}

	typeID, _ := cmd.Flags().GetInt("type")
	recipients, _ := cmd.Flags().GetInt64Slice("to")
	subject, _ := cmd.Flags().GetString("subject")

	created, err := runtime.Engine.CreateConversations(ctx, chat.Type(typeID), recipients, subject)
	if err != nil {
		if errors.Is(err, portal.ErrSessionExpired) {
			return failAuth(err)
		}
		return Exitf(ExitCodeFailure, "create: %v", err)
	}

	for _, c := range created {
		fmt.Fprintf(cmd.OutOrStdout(), "Created chat %d with user %d.\n", c.ID, c.To)
	}
	return nil
}
