package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/visionbi/strand/pkg/config"
	"github.com/visionbi/strand/pkg/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "strand",
	Short: "Streaming chat client for the VisionBI backend",
	Long: `strand talks to a VisionBI chat backend: it sends one prompt into a
project conversation and streams the assistant's reply to stdout as it is
generated.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := viper.GetString("prompt")
		if prompt == "" && len(args) > 0 {
			prompt = args[0]
		}
		if prompt == "" {
			return fmt.Errorf("a prompt is required (positional argument or --prompt)")
		}
		return runPrompt(cmd.Context(), prompt)
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initConfig() {
	if err := config.Init(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is .strand/settings.yaml)")

	rootCmd.PersistentFlags().StringP("server", "s", "http://localhost:8000", "backend base URL")
	viper.BindPFlag("server.url", rootCmd.PersistentFlags().Lookup("server"))

	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.Flags().StringP("prompt", "p", "", "prompt to send")
	viper.BindPFlag("prompt", rootCmd.Flags().Lookup("prompt"))

	rootCmd.Flags().String("project", "Default", "project name to chat in (created if missing)")
	viper.BindPFlag("project", rootCmd.Flags().Lookup("project"))

	rootCmd.Flags().Int64("conversation", 0, "existing conversation id (a new one is created when unset)")
	viper.BindPFlag("conversation", rootCmd.Flags().Lookup("conversation"))

	rootCmd.Flags().Float64("temperature", 0, "sampling temperature (0 uses the project default)")
	viper.BindPFlag("chat.temperature", rootCmd.Flags().Lookup("temperature"))

	rootCmd.Flags().Int("max-tokens", 0, "generation token limit (0 uses the project default)")
	viper.BindPFlag("chat.max_tokens", rootCmd.Flags().Lookup("max-tokens"))

	rootCmd.Flags().Bool("rag", false, "enable retrieval for this turn")
	viper.BindPFlag("chat.use_rag", rootCmd.Flags().Lookup("rag"))
}
