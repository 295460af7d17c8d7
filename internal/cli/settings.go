package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewSettingsCmd создаёт группу команд для настроек получателей.
func NewSettingsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage recipient channel settings",
	}

	cmd.AddCommand(
		newSettingsShowCmd(clientFn, outputFn),
		newSettingsSetCmd(clientFn, outputFn),
		newSettingsDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

func newSettingsShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show RECIPIENT",
		Short: "Show channel settings for a recipient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			settings, err := client.GetSettings(args[0])
			if err != nil {
				return err
			}

			headers := []string{"CHANNEL", "ENABLED", "INTERVAL"}
			rows := make([][]string, 0, len(settings.Channels))
			for channel, setting := range settings.Channels {
				rows = append(rows, []string{
					channel, strconv.FormatBool(setting.Enabled), setting.Interval,
				})
			}

			out.Print(headers, rows, settings)
			return nil
		},
	}
}

func newSettingsSetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var channels []string

	cmd := &cobra.Command{
		Use:   "set RECIPIENT",
		Short: "Replace channel settings for a recipient",
		Long: `Replace channel settings for a recipient.

Each --channel flag has the form NAME=INTERVAL or NAME=INTERVAL:off:

  digestq-cli settings set user-42 --channel email=daily --channel sms=immediate
  digestq-cli settings set user-42 --channel email=daily:off`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := SettingsRequest{Channels: make(map[string]ChannelSetting)}
			for _, spec := range channels {
				parts := strings.SplitN(spec, "=", 2)
				if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
					return fmt.Errorf("invalid channel format %q, expected NAME=INTERVAL", spec)
				}

				interval := parts[1]
				enabled := true
				if strings.HasSuffix(interval, ":off") {
					interval = strings.TrimSuffix(interval, ":off")
					enabled = false
				}

				req.Channels[parts[0]] = ChannelSetting{
					Enabled:  enabled,
					Interval: interval,
				}
			}

			settings, err := client.PutSettings(args[0], req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Settings updated for %s", args[0]))

			headers := []string{"CHANNEL", "ENABLED", "INTERVAL"}
			rows := make([][]string, 0, len(settings.Channels))
			for channel, setting := range settings.Channels {
				rows = append(rows, []string{
					channel, strconv.FormatBool(setting.Enabled), setting.Interval,
				})
			}

			out.Print(headers, rows, settings)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&channels, "channel", nil, "Channel setting as NAME=INTERVAL (repeatable)")
	cmd.MarkFlagRequired("channel")

	return cmd
}

func newSettingsDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete RECIPIENT",
		Short: "Delete all channel settings for a recipient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteSettings(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Settings deleted for %s", args[0]))
			return nil
		},
	}
}
