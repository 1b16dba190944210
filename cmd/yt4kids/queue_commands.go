package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gbarton/yt4kids/internal/api"
	"github.com/gbarton/yt4kids/internal/ipc"
	"github.com/gbarton/yt4kids/internal/queueaccess"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the download queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueSkipCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCompletedCommand(ctx))
	queueCmd.AddCommand(newQueueTickCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show per-state entry counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(access queueaccess.Access) error {
				stats, err := access.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, stats)
				}
				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"State", "Count"}, rows, 1))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue entries, newest request first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(access queueaccess.Access) error {
				entries, err := access.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					if entries == nil {
						entries = []api.QueueEntry{}
					}
					return writeJSON(cmd, entries)
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Title", "Author", "State", "Attempts", "Requested"},
					buildQueueListRows(entries),
					4,
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum entries to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

type queueShowPayload struct {
	Entry api.QueueEntry  `json:"entry"`
	File  *api.FileRecord `json:"file,omitempty"`
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a queue entry and its downloaded file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withQueue(func(access queueaccess.Access) error {
				entry, file, err := access.Describe(cmd.Context(), id)
				if err != nil {
					return err
				}
				if entry == nil {
					return fmt.Errorf("queue entry %s not found", id)
				}
				if asJSON {
					return writeJSON(cmd, queueShowPayload{Entry: *entry, File: file})
				}
				for _, line := range describeEntryLines(*entry, file) {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var author string
	var title string
	cmd := &cobra.Command{
		Use:   "add <video-id>",
		Short: "Request a download (re-adding resets an existing entry)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if id == "" {
				return errors.New("video id is required")
			}
			return ctx.withQueueSession(func(session queueaccess.Session) error {
				entry, err := session.Access.Add(cmd.Context(), id, strings.TrimSpace(author), strings.TrimSpace(title))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s (%s)\n", entry.ID, entry.DisplayName())
				if !session.Daemon {
					fmt.Fprintln(cmd.OutOrStdout(), "Daemon not running; the entry will be picked up on next start")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&author, "author", "", "Author (channel) id used for the storage directory")
	cmd.Flags().StringVar(&title, "title", "", "Video title used for the file name")
	return cmd
}

func newQueueSkipCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "skip <id>...",
		Short: "Toggle the skip flag of queue entries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(access queueaccess.Access) error {
				result, err := access.Skip(cmd.Context(), args)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, item := range result.Entries {
					switch item.Outcome {
					case api.SkipEntrySkipped:
						fmt.Fprintf(out, "Entry %s: skipped\n", item.ID)
					case api.SkipEntryUnskipped:
						fmt.Fprintf(out, "Entry %s: unskipped\n", item.ID)
					case api.SkipEntryNotFound:
						fmt.Fprintf(out, "Entry %s not found\n", item.ID)
					}
				}
				fmt.Fprintf(out, "Updated %d entries\n", result.UpdatedCount)
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete queue entries",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(access queueaccess.Access) error {
				result, err := access.Remove(cmd.Context(), args)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, item := range result.Entries {
					if item.Outcome == api.RemoveEntryNotFound {
						fmt.Fprintf(out, "Entry %s not found\n", item.ID)
					}
				}
				fmt.Fprintf(out, "Removed %d entries\n", result.RemovedCount)
				return nil
			})
		},
	}
}

func newQueueClearCompletedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Remove completed entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(access queueaccess.Access) error {
				removed, err := access.ClearCompleted(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d completed entries\n", removed)
				return nil
			})
		},
	}
}

func newQueueTickCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Run one download attempt now (requires the daemon)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Tick()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				fmt.Fprintln(cmd.OutOrStdout(), describeTick(*resp))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}
