package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/itelinc/incuchat/internal/chat"
	"github.com/itelinc/incuchat/internal/portal"
)

func newChatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "List conversations, newest first",
		RunE:  runChats,
	}
	cmd.Flags().Bool("all", false, "Include closed conversations")
	cmd.Flags().Bool("cached", false, "Render the last cached snapshot without contacting the portal")
	return cmd
}

func runChats(cmd *cobra.Command, args []string) error {
	runtime, err := EnsureRuntime(cmd)
	if err != nil {
		return err
	}
	defer runtime.Close()

	ctx := cmd.Context()
	includeClosed, _ := cmd.Flags().GetBool("all")
	cachedOnly, _ := cmd.Flags().GetBool("cached")

	if cachedOnly {
		runtime.Engine.LoadCached(ctx)
	} else if err := runtime.Engine.RefreshList(ctx); err != nil {
		if errors.Is(err, portal.ErrSessionExpired) {
			return failAuth(err)
		}
		// Stale data beats no data on the read path.
		runtime.Engine.LoadCached(ctx)
		if len(runtime.Engine.Conversations()) == 0 {
			return Exitf(ExitCodeFailure, "fetch conversations: %v", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: portal unreachable, showing cached data")
	}

	conversations := runtime.Engine.Conversations()
	session := runtime.Engine.Session()

	printed := 0
	for _, c := range conversations {
		if c.Closed() && !includeClosed {
			continue
		}
		if printed == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-6s %-28s %-22s %-20s %s\n",
				"ID", "STATE", "TYPE", "WITH", "MODIFIED", "LAST MESSAGE")
		}
		printed++
		fmt.Fprintf(cmd.OutOrStdout(), "%-8d %-6s %-28s %-22s %-20s %s\n",
			c.ID,
			stateLabel(c),
			runewidth.Truncate(c.TypeID.String(), 28, "…"),
			runewidth.Truncate(c.PartnerName(session.UserID), 22, "…"),
			c.ModifiedTime.Format("2006-01-02 15:04"),
			runewidth.Truncate(oneLine(c.LastMessage), 48, "…"),
		)
	}
	if printed == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No conversations.")
	}
	return nil
}

func stateLabel(c chat.Conversation) string {
	if c.Closed() {
		return "closed"
	}
	return "open"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
