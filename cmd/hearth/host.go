package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/hearth/internal/config"
	"github.com/zulandar/hearth/internal/host/backup"
	"github.com/zulandar/hearth/internal/host/bridge"
	"github.com/zulandar/hearth/internal/host/dashboard"
	"github.com/zulandar/hearth/internal/host/notify"
	"github.com/zulandar/hearth/internal/host/notify/discord"
	"github.com/zulandar/hearth/internal/host/notify/slack"
	"github.com/zulandar/hearth/internal/host/store"
	"golang.org/x/term"
)

const backupInterval = time.Hour

func newHostCmd() *cobra.Command {
	var (
		configPath  string
		promptToken bool
	)

	cmd := &cobra.Command{
		Use:   "host",
		Short: "Run the host process",
		Long:  "Listens for the runtime, persists its state, pushes day rollovers, relays notifications, and serves the dashboard.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHost(cmd, configPath, promptToken)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "hearth.yaml", "path to Hearth config file")
	cmd.Flags().BoolVar(&promptToken, "prompt-token", false, "prompt for the backup token instead of reading config")
	return cmd
}

// promptBackupToken reads the GitHub token from the terminal without
// echoing it. Refuses to prompt when stdin is not a terminal.
func promptBackupToken(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal; put the token in the config instead")
	}
	fmt.Fprint(cmd.OutOrStdout(), "Backup token: ")
	token, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return string(token), nil
}

// buildNotifier assembles chat adapters from config. Empty sections are
// skipped; no adapters means a no-op notifier.
func buildNotifier(cfg *config.Config) (*notify.Notifier, error) {
	var adapters []notify.Adapter
	if cfg.Notify.Slack.BotToken != "" {
		a, err := slack.New(slack.AdapterOpts{
			BotToken:  cfg.Notify.Slack.BotToken,
			ChannelID: cfg.Notify.Slack.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	if cfg.Notify.Discord.Token != "" {
		a, err := discord.New(discord.AdapterOpts{
			BotToken:  cfg.Notify.Discord.Token,
			ChannelID: cfg.Notify.Discord.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	return notify.New(adapters...), nil
}

func runHost(cmd *cobra.Command, configPath string, promptToken bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	st, err := store.Open(cfg.Host.Driver, cfg.Host.DSN)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Store open (%s)\n", cfg.Host.Driver)

	notifier, err := buildNotifier(cfg)
	if err != nil {
		return err
	}
	defer notifier.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token := cfg.Backup.Token
	if promptToken {
		token, err = promptBackupToken(cmd)
		if err != nil {
			return err
		}
	}
	bk, err := backup.New(backup.Opts{
		Store:  st,
		Owner:  cfg.Backup.Owner,
		Repo:   cfg.Backup.Repo,
		Branch: cfg.Backup.Branch,
		Path:   cfg.Backup.Path,
		Token:  token,
	})
	if err != nil {
		return err
	}
	if bk != nil {
		go bk.RunEvery(ctx, backupInterval)
		fmt.Fprintf(out, "Backups to %s/%s every %s\n", cfg.Backup.Owner, cfg.Backup.Repo, backupInterval)
	}

	if cfg.Host.DashboardAddr != "" {
		go func() {
			if err := dashboard.Start(ctx, dashboard.StartOpts{
				Store: st,
				Addr:  cfg.Host.DashboardAddr,
				Out:   out,
			}); err != nil {
				log.Printf("host: dashboard: %v", err)
			}
		}()
	}

	br, err := bridge.New(bridge.Opts{
		Store:      st,
		Notifier:   notifier,
		DayCron:    cfg.Host.DayCron,
		MaxLineLen: cfg.Link.MaxLineLen,
	})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Link.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Link.Address, err)
	}
	defer ln.Close()
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	fmt.Fprintf(out, "Host listening on %s\n", cfg.Link.Address)

	// One runtime at a time; a reconnecting runtime just gets the next
	// accept.
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(out, "Host stopped.")
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		fmt.Fprintf(out, "Runtime connected from %s\n", conn.RemoteAddr())
		if err := serveConn(br, conn); err != nil {
			log.Printf("host: serve: %v", err)
		}
		fmt.Fprintln(out, "Runtime disconnected")
	}
}

func serveConn(br *bridge.Bridge, conn net.Conn) error {
	defer conn.Close()
	return br.Serve(conn)
}
