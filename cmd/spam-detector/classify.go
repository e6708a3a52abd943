package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/spam-guardian/internal/adapters/cli"
	"github.com/mikey/spam-guardian/internal/core"
	"github.com/mikey/spam-guardian/internal/di"
)

func classifyCmd() *cobra.Command {
	var inputFile string

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify email content read from a file or stdin",
		Long: `Classify email content read from a file or stdin.

Examples:
  spam-detector classify --file message.txt
  echo "WIN FREE MONEY NOW" | spam-detector classify --no-delay`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClassify(cmd, inputFile)
		},
	}

	cmd.Flags().StringVarP(&inputFile, "file", "f", "", "input file (stdin if not specified)")
	cmd.Flags().BoolVar(&flags.NoDelay, "no-delay", false, "skip the pauses between pipeline stages")

	return cmd
}

func runClassify(cmd *cobra.Command, inputFile string) error {
	content, err := readInput(cmd.InOrStdin(), inputFile)
	if err != nil {
		return err
	}

	container, err := di.BuildCLIContainer(flags, cli.NewRenderer(cmd.OutOrStdout()))
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}

	return container.Invoke(func(
		logger *zap.Logger,
		pipeline *core.Pipeline,
		llmClient core.LLMClient,
		renderer *cli.Renderer,
	) error {
		defer logger.Sync()
		defer closeClient(logger, llmClient)

		sess, err := pipeline.Run(cmd.Context(), content, renderer.Trace())
		if errors.Is(err, core.ErrEmptyInput) {
			return errors.New("no email content to classify")
		}
		renderer.Session(sess)
		if err != nil {
			logger.Debug("Classification failed", zap.Error(err))
			return errors.New(sess.Error)
		}
		return nil
	})
}

func readInput(stdin io.Reader, path string) (string, error) {
	if path == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read input file: %w", err)
	}
	return string(data), nil
}

func closeClient(logger *zap.Logger, llmClient core.LLMClient) {
	if closer, ok := llmClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}
}
