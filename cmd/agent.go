package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nenorae/PIFACE/internal/agent"
	"github.com/Nenorae/PIFACE/internal/config"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run the classroom camera agent",
	Long: `Run the classroom camera agent.
The agent polls the attendance server for an open session and, while one
is open, submits frames spooled into FRAME_DIR by the camera process.
Frames that fail to upload stay spooled and are retried on the next tick.`,
	RunE: runAgent,
}

func init() {
	rootCmd.AddCommand(agentCmd)
}

func runAgent(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Agent.FrameDir == "" {
		return errors.New("FRAME_DIR environment variable is required")
	}

	client := agent.NewClient(cfg.Agent.ServerURL)
	source := agent.NewDirectorySource(cfg.Agent.FrameDir)
	a := agent.New(client, source, time.Duration(cfg.Agent.PollInterval)*time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Agent watching %s, polling every %ds\n", cfg.Agent.FrameDir, cfg.Agent.PollInterval)
	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Println("Agent stopped")
	return nil
}
