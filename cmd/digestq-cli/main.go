// digestq CLI — инструмент командной строки для управления настройками
// получателей, постановки сообщений и наблюдения за jobs через HTTP API.
//
// Использование:
//
//	digestq-cli [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	settings  Настройки каналов доставки получателей
//	message   Постановка сообщений в очередь
//	jobs      Наблюдение за jobs очереди
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/digestq/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "digestq-cli",
		Short:         "digestq CLI — notification digest queue tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewSettingsCmd(clientFn, outputFn),
		cli.NewMessageCmd(clientFn, outputFn),
		cli.NewJobsCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
