// Package commands implements the CLI commands for textprep.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Montasar-Dridi/job-recommender-system/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "textprep",
	Short: "Clean and normalize resume and job posting text",
	Long: `Textprep prepares extracted document text for the job recommender.

It strips boilerplate lines (page numbers, separator runs), then asks a
pretrained language model to lemmatize the text and recognize named
entities. The output is a normalized lemma string plus the entity list.

Examples:
  # Clean text only (no model needed)
  textprep clean resume.txt

  # Normalize text and extract entities with the default model
  textprep preprocess resume.txt job.txt --format jsonl

  # Use a local Ollama model
  cat resume.txt | textprep preprocess --provider ollama --llm-model llama3.2

  # List the models the registry knows
  textprep models`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default $HOME/.textprep.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.BoolP("quiet", "q", false, "only log errors")
	flags.Bool("log-json", false, "log as JSON")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.Bool("compact", false, "write JSON on one line instead of indented")

	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("log_json", flags.Lookup("log-json"))
	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("compact", flags.Lookup("compact"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".textprep")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("TEXTPREP")
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	err := logger.Init(logger.Options{
		Debug:  viper.GetBool("debug"),
		Quiet:  viper.GetBool("quiet"),
		Level:  viper.GetString("log_level"),
		JSON:   viper.GetBool("log_json"),
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug("config loaded", "path", used)
	}
	return nil
}

// Execute runs the root command. Command errors are returned, not logged,
// and reported here once.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logError("%v", err)
	}
	return err
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: "+format+"\n", args...)
}
