package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bobarin/voicebridge/internal/config"
)

var (
	cfgFile string

	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "voicebridge",
	Short: "Resemble AI voice tools over MCP and HTTP",
	Long: `voicebridge exposes Resemble AI voice operations (list voices, list and
create projects, generate speech) as tools for AI assistants.

Serve tools to an MCP client over stdin/stdout:
  RESEMBLE_API_KEY=... voicebridge stdio

Serve the REST API and MCP over HTTP:
  RESEMBLE_API_KEY=... voicebridge serve --port 8080`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("voicebridge %s\n", Version)
		fmt.Printf("  Commit:     %s\n", Commit)
		fmt.Printf("  Build Date: %s\n", BuildDate)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./voicebridge.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format (json, text)")
	rootCmd.PersistentFlags().String("resemble-url", "https://app.resemble.ai", "Resemble API base URL")
	rootCmd.PersistentFlags().String("synth-url", "https://f.cluster.resemble.ai", "Resemble synthesis base URL")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Resemble request timeout (0 = config default)")
	rootCmd.PersistentFlags().String("database-url", "", "Postgres URL for the call log (empty = disabled)")
	rootCmd.PersistentFlags().String("redis-url", "", "Redis URL for the call log (empty = disabled)")

	bindFlags(viper.GetViper(), rootCmd, []flagBinding{
		{config.KeyLogLevel, "log-level"},
		{config.KeyLogFormat, "log-format"},
		{config.KeyResembleAPIURL, "resemble-url"},
		{config.KeyResembleSynthURL, "synth-url"},
		{config.KeyResembleTimeout, "timeout"},
		{config.KeyDatabaseURL, "database-url"},
		{config.KeyRedisURL, "redis-url"},
	})

	rootCmd.AddCommand(serveCmd, stdioCmd, callsCmd, versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.SetConfigName("voicebridge")
		viper.SetConfigType("yaml")
	}

	// stdout may carry MCP traffic, so diagnostics go to stderr
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig resolves flags, environment and config file through the
// shared viper instance.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
