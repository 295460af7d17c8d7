package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewMessageCmd создаёт группу команд для сообщений.
func NewMessageCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Enqueue messages",
	}

	cmd.AddCommand(newMessageEnqueueCmd(clientFn, outputFn))

	return cmd
}

func newMessageEnqueueCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var recipient string

	cmd := &cobra.Command{
		Use:   "enqueue MESSAGE_ID",
		Short: "Enqueue a message into the recipient's digest jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			result, err := client.EnqueueMessage(recipient, args[0])
			if err != nil {
				return err
			}

			if len(result.Channels) == 0 {
				out.Success(fmt.Sprintf("Recipient %s has no delivery settings, message dropped", recipient))
				return nil
			}

			headers := []string{"CHANNEL", "CREATED", "ERROR"}
			rows := make([][]string, 0, len(result.Channels))
			for channel, outcome := range result.Channels {
				rows = append(rows, []string{
					channel, strconv.FormatBool(outcome.Created), outcome.Error,
				})
			}

			out.Print(headers, rows, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&recipient, "recipient", "", "Recipient id (required)")
	cmd.MarkFlagRequired("recipient")

	return cmd
}
