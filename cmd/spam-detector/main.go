package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mikey/spam-guardian/internal/di"
)

var (
	flags   = &di.CLIFlags{}
	rootCmd = &cobra.Command{
		Use:   "spam-detector",
		Short: "Classify email content with an LLM from the terminal",
		Long: `spam-detector runs email text through the same validation, preprocessing,
feature extraction and inference pipeline as the web UI and prints a live
trace followed by the verdict.`,
		SilenceUsage: true,
	}
)

func init() {
	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.ConfigFile, "config", "", "path to a config file")
	pf.StringVar(&flags.Provider, "provider", "", "LLM provider (gemini, openai, bedrock)")
	pf.IntVar(&flags.MaxTokens, "max-tokens", 0, "maximum tokens for the LLM response")
	pf.Float64Var(&flags.Temperature, "temperature", 0, "temperature for LLM generation")
	pf.Float64Var(&flags.TopP, "top-p", 0, "top-p for LLM generation")
	pf.IntVar(&flags.MaxBodySize, "max-body-size", 0, "maximum email size sent to the LLM (0 = unlimited)")
	pf.StringVar(&flags.BedrockRegion, "bedrock-region", "", "AWS region for Bedrock")
	pf.StringVar(&flags.BedrockModelID, "bedrock-model", "", "Bedrock model ID")
	pf.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	pf.StringVar(&flags.GeminiModelName, "gemini-model", "", "Gemini model name")
	pf.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	pf.StringVar(&flags.OpenAIModelName, "openai-model", "", "OpenAI model name")
	pf.StringVar(&flags.OpenAIBaseURL, "openai-base-url", "", "base URL of an OpenAI-compatible endpoint")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "enable verbose logging")
	pf.BoolVar(&flags.JSONLog, "json-log", false, "output logs in JSON format")

	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(metricsCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
