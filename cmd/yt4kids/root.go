package main

import (
	"github.com/spf13/cobra"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	groupDaemon = "daemon"
	groupQueue  = "queue"
)

func newRootCommand() *cobra.Command {
	var socketFlag, configFlag, logLevelFlag string
	ctx := newCommandContext(&socketFlag, &configFlag, &logLevelFlag)

	root := &cobra.Command{
		Use:           "yt4kids",
		Short:         "Download queue manager for curated kids' videos",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&socketFlag, "socket", "", "Path to the yt4kids daemon socket")
	flags.StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	flags.StringVar(&logLevelFlag, "log-level", "", "Override logging.level (debug, info, warn, error)")

	root.AddGroup(
		&cobra.Group{ID: groupDaemon, Title: "Daemon Commands:"},
		&cobra.Group{ID: groupQueue, Title: "Queue Commands:"},
	)
	addGrouped(root, groupDaemon, append(newDaemonCommands(ctx), newDaemonRunCommand(ctx), newLogsCommand(ctx))...)
	addGrouped(root, groupQueue, newQueueCommand(ctx))
	root.AddCommand(newTestNotifyCommand(ctx), newConfigCommand(ctx))
	return root
}

func addGrouped(root *cobra.Command, group string, cmds ...*cobra.Command) {
	for _, cmd := range cmds {
		cmd.GroupID = group
		root.AddCommand(cmd)
	}
}
