package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newChatCmd(client *Client) *cobra.Command {
	var conversationID string

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send one message to the transform agent",
		Long:  "Send a message to the agent and print its reply. Pass --conversation to continue an earlier session; the id printed with each reply carries the context forward.",
		Example: `  lakeagent chat "what tables hold customer data?"
  lakeagent chat "build a gold revenue summary" --conversation 6f1c...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{"message": args[0]}
			if conversationID != "" {
				body["conversation_id"] = conversationID
			}

			var reply struct {
				ConversationID string `json:"conversation_id"`
				Reply          string `json:"reply"`
			}
			if err := client.JSON("POST", "/chat", nil, body, &reply); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, reply)
			}

			_, _ = fmt.Fprintln(os.Stdout, reply.Reply)
			_, _ = fmt.Fprintf(os.Stderr, "\n(conversation %s)\n", reply.ConversationID)
			return nil
		},
	}

	cmd.Flags().StringVar(&conversationID, "conversation", "", "Conversation id to continue")

	return cmd
}
