package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/hearth/internal/agents"
	"github.com/zulandar/hearth/internal/config"
	"github.com/zulandar/hearth/internal/hearthd"
	"github.com/zulandar/hearth/internal/supervisor"
)

func newRunCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the agent runtime",
		Long:  "Dials the host link and drives the cooperative tick loop with the standard roster: guardian, cocreator, orchestrator.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuntime(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "hearth.yaml", "path to Hearth config file")
	return cmd
}

// loadConfig reads the config file, falling back to defaults when the
// default path does not exist.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && path == "hearth.yaml" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func runRuntime(cmd *cobra.Command, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	link, err := net.Dial("tcp", cfg.Link.Address)
	if err != nil {
		return fmt.Errorf("dial host at %s: %w", cfg.Link.Address, err)
	}
	defer link.Close()

	d, err := hearthd.New(hearthd.Opts{
		Config: cfg,
		Link:   link,
		Agents: []supervisor.Agent{
			agents.NewGuardian(agents.GuardianOpts{}),
			agents.NewCoCreator(agents.CoCreatorOpts{}),
		},
		Out: cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}

	// The orchestrator watches the supervisor itself, so it registers
	// after the daemon wires one up.
	orch, err := agents.NewOrchestrator(agents.OrchestratorOpts{Snapshotter: d.Supervisor()})
	if err != nil {
		return err
	}
	if _, err := d.Supervisor().Register(orch); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return d.Run(ctx)
}
