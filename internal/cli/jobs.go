package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewJobsCmd создаёт группу команд для наблюдения за очередью.
func NewJobsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect digest jobs",
	}

	cmd.AddCommand(newJobsListCmd(clientFn, outputFn))

	return cmd
}

func newJobsListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var channel string
	var interval string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List digest jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			jobs, err := client.ListJobs(ListJobsOpts{
				Channel:  channel,
				Interval: interval,
				Limit:    limit,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "RECIPIENT_KEY", "CHANNEL", "INTERVAL", "MESSAGES", "LEASED", "CREATED"}
			rows := make([][]string, len(jobs))
			for i, j := range jobs {
				key := j.RecipientKey
				if len(key) > 12 {
					key = key[:12]
				}
				rows[i] = []string{
					j.ID, key, j.Channel, j.Interval,
					strconv.Itoa(len(j.MessageIDs)),
					strconv.FormatBool(j.Leased), j.CreatedAt,
				}
			}

			out.Print(headers, rows, jobs)
			return nil
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "", "Filter by channel")
	cmd.Flags().StringVar(&interval, "interval", "", "Filter by interval")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of jobs")

	return cmd
}
