package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gbarton/yt4kids/internal/daemonrun"
)

// newDaemonRunCommand runs the daemon in the calling process; `start` launches
// this same command detached.
func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	var opts daemonrun.Options
	cmd := &cobra.Command{
		Use:         "daemon",
		Short:       "Run the daemon in the foreground",
		Long:        "Run the queue manager, IPC socket and HTTP API in this process until interrupted.",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch strings.ToLower(strings.TrimSpace(opts.LogFormat)) {
			case "", "console", "json":
			default:
				return fmt.Errorf("--log-format must be console or json, got %q", opts.LogFormat)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts.LogLevel = ctx.resolvedLogLevel(cfg)
			return daemonrun.Run(cmd.Context(), cfg, opts)
		},
	}
	flags := cmd.Flags()
	flags.BoolVar(&opts.Diagnostic, "diagnostic", false, "Also write DEBUG JSON logs under log_dir/debug")
	flags.BoolVar(&opts.Development, "development", false, "Include source locations in log output")
	flags.StringVar(&opts.LogFormat, "log-format", "", "Override logging.format (console, json)")
	return cmd
}
