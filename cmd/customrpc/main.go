package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	goruntime "runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Dadangdut33/discord-customrpc-manager/internal/command"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/config"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/eventlog"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/instance"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/paths"
	"github.com/Dadangdut33/discord-customrpc-manager/internal/router"
)

var (
	// Build info (set via ldflags).
	Version = "dev"
	Build   = "unknown"
)

var (
	// Root flags, translated 1:1 into command actions.
	flagProfile      string
	flagConnect      bool
	flagDisconnect   bool
	flagQuit         bool
	flagListProfiles bool
	flagLoadProfile  string
	flagDebug        bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "customrpc",
		Short: "Manage a custom Discord Rich Presence",
		Long: `Customrpc publishes a configurable Rich Presence to the local Discord
client. The first invocation becomes the long-running agent; later
invocations forward their command to it and print the reply.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
	}

	rootCmd.Flags().StringVarP(&flagProfile, "profile", "p", "", "Profile to publish when connecting")
	rootCmd.Flags().BoolVarP(&flagConnect, "connect", "c", false, "Connect to Discord and publish the selected profile")
	rootCmd.Flags().BoolVarP(&flagDisconnect, "disconnect", "d", false, "Disconnect and clear the published presence")
	rootCmd.Flags().BoolVarP(&flagQuit, "quit", "q", false, "Stop the running agent")
	rootCmd.Flags().BoolVarP(&flagListProfiles, "list-profiles", "l", false, "List the stored profiles")
	rootCmd.Flags().StringVar(&flagLoadProfile, "load-profile", "", "Set the default profile for future connects")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Debug logging")

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("customrpc v{{.Version}} (build: " + Build + ", " + goruntime.Version() + ")\n")

	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(profileCmd())
	rootCmd.AddCommand(mcpCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	stateDir, err := paths.StateDir()
	if err != nil {
		return err
	}

	intent, err := intentFromFlags()
	if err != nil {
		return err
	}

	logger := newLogger(stateDir)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := router.New(stateDir, router.WithLogger(logger))
	return r.Run(ctx, intent)
}

// intentFromFlags maps the flag surface onto one command action. A bare
// --profile implies --connect; combining actions is rejected.
func intentFromFlags() (command.Command, error) {
	var intent command.Command
	actions := 0

	if flagConnect || (flagProfile != "" && !flagDisconnect && !flagQuit && !flagListProfiles && flagLoadProfile == "") {
		intent = command.Command{Action: command.ActionConnect, Profile: flagProfile}
		actions++
	}
	if flagDisconnect {
		intent = command.Command{Action: command.ActionDisconnect}
		actions++
	}
	if flagQuit {
		intent = command.Command{Action: command.ActionQuit}
		actions++
	}
	if flagListProfiles {
		intent = command.Command{Action: command.ActionListProfiles}
		actions++
	}
	if flagLoadProfile != "" {
		intent = command.Command{Action: command.ActionLoadProfile, Profile: flagLoadProfile}
		actions++
	}

	if actions > 1 {
		return command.Command{}, fmt.Errorf("choose one of --connect, --disconnect, --quit, --list-profiles, --load-profile")
	}
	return intent, nil
}

// newLogger builds the process logger, honoring --debug over the configured
// level.
func newLogger(stateDir string) *slog.Logger {
	level := slog.LevelInfo
	if cfg, err := config.Load(paths.ConfigPath(stateDir)); err == nil {
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	if flagDebug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the agent is running and the latest presence event",
		RunE: func(cmd *cobra.Command, args []string) error {
			stateDir, err := paths.StateDir()
			if err != nil {
				return err
			}

			pid, ok := instance.ReadOwnerPID(paths.LockPath(stateDir))
			running := ok && instance.IsProcessRunning(pid)

			if running {
				port, _ := instance.ReadPortFile(paths.PortPath(stateDir))
				fmt.Printf("%sagent running (pid %d, port %d)\n", statusDot(true), pid, port)
			} else {
				fmt.Printf("%sagent not running\n", statusDot(false))
			}

			log, err := eventlog.OpenReadOnly(paths.EventsDBPath(stateDir))
			if err != nil {
				return nil
			}
			defer func() { _ = log.Close() }()

			events, err := log.Recent(1)
			if err != nil || len(events) == 0 {
				return nil
			}
			e := events[0]
			if e.Detail != "" {
				fmt.Printf("last event: %s (%s) at %s\n", e.Kind, e.Detail, e.At.Format(time.RFC3339))
			} else {
				fmt.Printf("last event: %s at %s\n", e.Kind, e.At.Format(time.RFC3339))
			}
			return nil
		},
	}
}

// statusDot decorates interactive output with a colored indicator; piped
// output stays plain.
func statusDot(running bool) string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return ""
	}
	if running {
		return "\x1b[32m●\x1b[0m "
	}
	return "\x1b[31m●\x1b[0m "
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent presence events",
		RunE: func(cmd *cobra.Command, args []string) error {
			stateDir, err := paths.StateDir()
			if err != nil {
				return err
			}

			log, err := eventlog.OpenReadOnly(paths.EventsDBPath(stateDir))
			if err != nil {
				fmt.Println("No events recorded.")
				return nil
			}
			defer func() { _ = log.Close() }()

			events, err := log.Recent(limit)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println("No events recorded.")
				return nil
			}
			for _, e := range events {
				fmt.Printf("%s  %-12s %s\n", e.At.Format("2006-01-02 15:04:05"), e.Kind, e.Detail)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of events to show")
	return cmd
}
