package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/teamwork/pkg/models"
)

var (
	sendFrom    string
	sendType    string
	sendPayload string

	pollTimeout  time.Duration
	pollType     string
	pollMarkRead bool
)

var mailboxCmd = &cobra.Command{
	Use:   "mailbox",
	Short: "Send, poll and acknowledge inbox messages",
}

var mailboxSendCmd = &cobra.Command{
	Use:   "send <inbox>",
	Short: "Append a message to an inbox",
	Args:  cobra.ExactArgs(1),
	RunE:  runMailboxSend,
}

var mailboxPollCmd = &cobra.Command{
	Use:   "poll <inbox>",
	Short: "Wait for unread messages",
	Long: `Block until the inbox holds at least one unread message, up to
--timeout. Prints the matching messages as JSON; on timeout prints an empty
list and still exits 0, so an orchestrator can fall back to a status
re-check. Interruptible with SIGINT/SIGTERM.`,
	Args: cobra.ExactArgs(1),
	RunE: runMailboxPoll,
}

var mailboxReadCmd = &cobra.Command{
	Use:   "read <inbox> <message-id>...",
	Short: "Mark messages as read",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runMailboxRead,
}

func init() {
	mailboxSendCmd.Flags().StringVar(&sendFrom, "from", "", "sender identity")
	mailboxSendCmd.Flags().StringVar(&sendType, "type", "", "message type tag (required)")
	mailboxSendCmd.Flags().StringVar(&sendPayload, "payload", "", "JSON payload object")
	mailboxSendCmd.MarkFlagRequired("type")

	mailboxPollCmd.Flags().DurationVar(&pollTimeout, "timeout", 30*time.Second, "maximum time to wait")
	mailboxPollCmd.Flags().StringVar(&pollType, "type", "", "only messages of this type")
	mailboxPollCmd.Flags().BoolVar(&pollMarkRead, "mark-read", false, "mark returned messages as read")

	mailboxCmd.AddCommand(mailboxSendCmd)
	mailboxCmd.AddCommand(mailboxPollCmd)
	mailboxCmd.AddCommand(mailboxReadCmd)
}

func runMailboxSend(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	var payload map[string]any
	if sendPayload != "" {
		if err := json.Unmarshal([]byte(sendPayload), &payload); err != nil {
			return fmt.Errorf("parse --payload: %w", err)
		}
	}

	from := sendFrom
	if from == "" {
		from = defaultHolderID()
	}

	msg, err := e.mailbox.Send(args[0], from, sendType, payload)
	if err != nil {
		return err
	}
	return printJSON(msg)
}

func runMailboxPoll(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signalContext()
	defer stop()

	msgs, err := e.mailbox.Poll(ctx, args[0], pollTimeout, pollType)
	if err != nil {
		return err
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}

	if pollMarkRead && len(msgs) > 0 {
		ids := make([]string, len(msgs))
		for i, m := range msgs {
			ids[i] = m.ID
		}
		if err := e.mailbox.MarkRead(args[0], ids); err != nil {
			return err
		}
	}
	return printJSON(msgs)
}

func runMailboxRead(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.mailbox.MarkRead(args[0], args[1:]); err != nil {
		return err
	}
	fmt.Printf("Marked %d messages read\n", len(args)-1)
	return nil
}
