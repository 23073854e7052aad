package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mschulkind/layman/internal/config"
	"github.com/mschulkind/layman/internal/control/client"
)

var (
	success = color.New(color.FgGreen).FprintfFunc()
	failure = color.New(color.FgRed).FprintfFunc()
)

func main() {
	var (
		socket  string
		timeout time.Duration
	)

	rootCmd := &cobra.Command{
		Use:           "laymanctl",
		Short:         "Control a running layman daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&socket, "socket", "", "path to layman control socket")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "control request timeout")

	newClient := func() (*client.Client, context.Context, context.CancelFunc, error) {
		cli, err := client.New(socket)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create client: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		return cli, ctx, cancel, nil
	}

	sendResult := func(command string) error {
		cli, ctx, cancel, err := newClient()
		if err != nil {
			return err
		}
		defer cancel()
		result, err := cli.Command(ctx, command)
		if err != nil {
			return err
		}
		fmt.Println(result)
		return nil
	}

	sendCmd := &cobra.Command{
		Use:   "send <command>...",
		Short: "Send a raw layman command",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendResult(strings.Join(args, " "))
		},
	}

	reloadCmd := &cobra.Command{
		Use:   "reload",
		Short: "Reload the daemon's configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendResult("reload")
		},
	}

	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Dump the daemon's internal state as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendResult("dump")
		},
	}

	layoutCmd := &cobra.Command{
		Use:   "layout",
		Short: "Manage the focused workspace's layout",
	}
	layoutSetCmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Set the focused workspace's layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendResult("layout set " + args[0])
		},
	}
	layoutMaximizeCmd := &cobra.Command{
		Use:   "maximize",
		Short: "Toggle maximize on the focused workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendResult("layout maximize")
		},
	}
	layoutCmd.AddCommand(layoutSetCmd, layoutMaximizeCmd)

	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the daemon is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, ctx, cancel, err := newClient()
			if err != nil {
				return err
			}
			defer cancel()
			if err := cli.Ping(ctx); err != nil {
				return err
			}
			success(os.Stdout, "layman is running\n")
			return nil
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Validate a configuration file without a running daemon",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath()
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := config.Load(path); err != nil {
				return err
			}
			success(os.Stdout, "configuration OK: %s\n", path)
			return nil
		},
	}

	rootCmd.AddCommand(sendCmd, reloadCmd, dumpCmd, layoutCmd, pingCmd, checkCmd)

	if err := rootCmd.Execute(); err != nil {
		failure(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
