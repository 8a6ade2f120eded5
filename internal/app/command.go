// Package app wires the overlay together and owns the process lifecycle.
package app

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewCommand returns the root command: spotlight [port] [parent-pid].
func NewCommand() *cobra.Command {
	var opts Options
	cmd := &cobra.Command{
		Use:   "spotlight [port] [parent-pid]",
		Short: "Floating launcher window driven by a local server",
		Long: "Shows a floating query window on request from the server listening on\n" +
			"the given port. Exits when the parent process exits.",
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := parseArgs(args, &opts); err != nil {
				return err
			}
			return Run(opts)
		},
	}
	cmd.Flags().StringVar(&opts.Host, "host", "", "server host (overrides config)")
	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "debug logging to stderr")
	cmd.Flags().StringVar(&opts.ConfigDir, "config-dir", "", "directory for config, logs and cache")
	return cmd
}

// parseArgs fills the positional port and parent pid.
func parseArgs(args []string, opts *Options) error {
	if len(args) > 0 {
		port, err := strconv.Atoi(args[0])
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid port %q", args[0])
		}
		opts.Port = port
	}
	if len(args) > 1 {
		pid, err := strconv.Atoi(args[1])
		if err != nil || pid < 0 {
			return fmt.Errorf("invalid parent pid %q", args[1])
		}
		opts.ParentPID = pid
	}
	return nil
}
