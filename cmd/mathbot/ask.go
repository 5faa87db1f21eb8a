package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hassan123789/mathbot/internal/agent"
	"github.com/hassan123789/mathbot/internal/config"
	"github.com/hassan123789/mathbot/internal/di"
	"github.com/hassan123789/mathbot/internal/logging"
)

func newAskCmd() *cobra.Command {
	var (
		apiKey string
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the assistant one question and print its answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := zap.NewNop()
			if cfg.IsDevelopment() {
				if logger, err = logging.New(cfg.Environment, cfg.LogLevel); err != nil {
					return err
				}
			}

			a, err := di.NewContainer(cfg, logger).NewAgent(apiKey)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			var opts []agent.RunOption
			if !quiet {
				opts = append(opts, agent.WithStepHandler(func(step agent.Step) {
					printStep(out, step)
				}))
			}

			resp, err := a.Run(ctx, strings.Join(args, " "), opts...)
			if err != nil {
				return fmt.Errorf("agent run: %w", err)
			}
			fmt.Fprintln(out, resp.Output)
			return nil
		},
	}
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Groq API key (defaults to GROQ_API_KEY)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the final answer")
	return cmd
}

func printStep(w io.Writer, step agent.Step) {
	switch step.Type {
	case agent.StepTypeAction:
		fmt.Fprintf(w, "> %s(%s)\n", step.ToolName, step.ToolInput)
	case agent.StepTypeObservation:
		fmt.Fprintf(w, "< %s\n", step.ToolOutput)
	default:
		if step.Content != "" {
			fmt.Fprintf(w, "~ %s\n", step.Content)
		}
	}
}
