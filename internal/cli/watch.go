package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/itelinc/incuchat/internal/chat"
	"github.com/itelinc/incuchat/internal/portal"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [chat-id]",
		Short: "Follow a conversation, printing messages as they arrive",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	runtime, err := EnsureRuntime(cmd)
	if err != nil {
		return err
	}
	defer runtime.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := runtime.Engine
	if err := engine.RefreshList(ctx); err != nil {
		if errors.Is(err, portal.ErrSessionExpired) {
			return failAuth(err)
		}
		return Exitf(ExitCodeFailure, "fetch conversations: %v", err)
	}

	var watched int64
	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return Exitf(ExitCodeFailure, "invalid chat id %q", args[0])
		}
		if err := engine.Select(ctx, id); err != nil {
			return Exitf(ExitCodeFailure, "select chat: %v", err)
		}
		watched = id
	}

	poller := chat.NewPoller(engine, chat.PollerConfig{
		ListInterval:    runtime.Config.Poll.ListInterval,
		MessageInterval: runtime.Config.Poll.MessageInterval,
	})
	if err := poller.Start(ctx); err != nil {
		return Exitf(ExitCodeFailure, "start poller: %v", err)
	}
	defer poller.Stop()

	session := engine.Session()
	tracker := chat.NewReadTracker(runtime.Client, session, engine.MessageStore())
	seen := make(map[int64]struct{})
	for _, m := range engine.Messages(watched) {
		seen[m.ID] = struct{}{}
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "Watching. Ctrl-C to stop.")
	for {
		select {
		case <-ctx.Done():
			tracker.Wait()
			return nil
		case <-engine.Updates():
		}
		if watched == 0 {
			continue
		}
		conversation, ok := engine.Conversation(watched)
		if !ok {
			continue
		}
		for _, m := range engine.Messages(watched) {
			if _, done := seen[m.ID]; done {
				continue
			}
			seen[m.ID] = struct{}{}
			direction := "←"
			if m.From == session.UserID {
				direction = "→"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
				m.CreatedTime.Format("15:04:05"), direction, m.Body)
			tracker.Observe(ctx, conversation, m)
		}
	}
}
