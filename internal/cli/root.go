package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/me/cinedex/internal/logging"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default server URL, checking CINEDEX_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("CINEDEX_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for the cinedex CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cinedex",
		Short: "Cinedex catalog client",
		Long:  "cinedex browses the movie and series catalog and manages its cache over the JSON API.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLoggerWithWriter(logging.ParseLevel(flagLogLevel), flagLogFormat, cmd.ErrOrStderr())
			client = NewClient(flagServer, logger)
			client.Token = LoadToken()
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "Cinedex server URL (or CINEDEX_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newListCmd(),
		newGetCmd(),
		newInvalidateCmd(),
	)

	return root
}
