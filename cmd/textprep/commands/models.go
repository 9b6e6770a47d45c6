package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Montasar-Dridi/job-recommender-system/internal/output"
	"github.com/Montasar-Dridi/job-recommender-system/pkg/model/registry"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models the registry knows",
	Long: `List built-in models and those from a model index file.

Index entries shadow built-in models of the same name. An empty provider
means the provider is detected from the environment at load time.`,
	Args: cobra.NoArgs,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)

	flags := modelsCmd.Flags()
	flags.String("index", "", "model index file (JSON or YAML)")
	flags.String("format", "text", "output format: text, json, jsonl, yaml")
	flags.String("language", "", "only list models for this language")
}

func runModels(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("index")
	if path == "" {
		path = indexPath()
	}

	reg, err := registry.Default(path)
	if err != nil {
		return err
	}

	var opts []registry.ListOption
	if lang, _ := cmd.Flags().GetString("language"); lang != "" {
		opts = append(opts, registry.WithLanguage(lang))
	}

	models, err := reg.List(cmd.Context(), opts...)
	if err != nil {
		return err
	}

	formatStr, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	if format == output.FormatText {
		return printModelTable(cmd, models)
	}
	return writeRecords(cmd, "", format, len(models), func(i int) any { return models[i] })
}

func printModelTable(cmd *cobra.Command, models []registry.ModelInfo) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLANG\tPROVIDER\tMODEL\tDESCRIPTION")
	for _, m := range models {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			m.Name, m.Language, orDash(m.Provider), orDash(m.Model), m.Description)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(models) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no models found")
	}
	return nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
