package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/itelinc/incuchat/internal/attachment"
	"github.com/itelinc/incuchat/internal/chat"
	"github.com/itelinc/incuchat/internal/portal"
)

func newAttachmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attachment <chat-id> <message-id>",
		Short: "Download a message attachment",
		Args:  cobra.ExactArgs(2),
		RunE:  runAttachment,
	}
	cmd.Flags().StringP("output", "o", "", "Output file (default: derived from the attachment name)")
	cmd.Flags().Bool("url", false, "Print the resolved URL instead of downloading")
	return cmd
}

func runAttachment(cmd *cobra.Command, args []string) error {
	runtime, err := EnsureRuntime(cmd)
	if err != nil {
		return err
	}
	defer runtime.Close()

	conversationID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return Exitf(ExitCodeFailure, "invalid chat id %q", args[0])
	}
	messageID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return Exitf(ExitCodeFailure, "invalid message id %q", args[1])
	}

	ctx := cmd.Context()
	messages, err := runtime.Client.Messages(ctx, conversationID)
	if err != nil {
		if errors.Is(err, portal.ErrSessionExpired) {
			return failAuth(err)
		}
		return Exitf(ExitCodeFailure, "fetch messages: %v", err)
	}

	var target *chat.Message
	for i := range messages {
		if messages[i].ID == messageID {
			target = &messages[i]
			break
		}
	}
	if target == nil {
		return Exitf(ExitCodeFailure, "message %d not found in chat %d", messageID, conversationID)
	}
	if !target.HasAttachment() {
		return Exitf(ExitCodeFailure, "message %d has no attachment", messageID)
	}

	info := attachment.Classify(target.AttachmentPath, target.AttachmentName)

	if urlOnly, _ := cmd.Flags().GetBool("url"); urlOnly {
		switch info.Kind {
		case attachment.KindRemotePath:
			url, err := runtime.Client.ResolveFileURL(ctx, info.Value)
			if err != nil {
				return Exitf(ExitCodeFailure, "resolve file url: %v", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
		default:
			fmt.Fprintln(cmd.OutOrStdout(), info.Value)
		}
		return nil
	}

	var data []byte
	switch info.Kind {
	case attachment.KindInline:
		data, err = info.Decode()
		if err != nil {
			return Exitf(ExitCodeFailure, "decode attachment: %v", err)
		}
	case attachment.KindRemotePath:
		data, err = runtime.Client.DownloadAttachment(ctx, info.Value)
		if err != nil {
			return Exitf(ExitCodeFailure, "download attachment: %v", err)
		}
	default:
		return Exitf(ExitCodeFailure, "attachment is a direct URL, use --url")
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = attachment.DownloadName(info.FileName, time.Now())
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return Exitf(ExitCodeFailure, "write %s: %v", output, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes).\n", output, len(data))
	return nil
}
