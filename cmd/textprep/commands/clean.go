package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Montasar-Dridi/job-recommender-system/internal/logger"
	"github.com/Montasar-Dridi/job-recommender-system/internal/output"
	"github.com/Montasar-Dridi/job-recommender-system/pkg/cleaner"
)

// cleanRecord is one cleaned input.
type cleanRecord struct {
	Source  string `json:"source" yaml:"source"`
	Cleaned string `json:"cleaned" yaml:"cleaned"`
}

// Line implements output.Liner.
func (r cleanRecord) Line() string { return r.Cleaned }

var cleanCmd = &cobra.Command{
	Use:   "clean [files...]",
	Short: "Strip page numbers and separator lines from text",
	Long: `Clean text without loading a model.

Lines that are only a page number ("Page 3", "12") are dropped, runs of
dashes or underscores are removed, and the result is collapsed to a single
line. Reads stdin when no file (or "-") is given.

Examples:
  textprep clean resume.txt
  textprep clean resume.pdf.txt --drop-line '^\s*confidential\s*$'
  cat job.txt | textprep clean --format json`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	flags := cleanCmd.Flags()
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("format", "text", "output format: text, json, jsonl, yaml")
	addCleanerFlags(flags)
}

// addCleanerFlags registers the flags read by textCleaner.
func addCleanerFlags(flags *pflag.FlagSet) {
	flags.StringArray("drop-line", nil, "also drop lines matching this regexp (case-insensitive, repeatable)")
}

// textCleaner builds the cleaner selected by the command's flags: the
// boilerplate cleaner, preceded by a line filter when --drop-line is set.
func textCleaner(cmd *cobra.Command) (cleaner.Cleaner, error) {
	patterns, _ := cmd.Flags().GetStringArray("drop-line")
	if len(patterns) == 0 {
		return cleaner.NewBoilerplate(), nil
	}
	filter, err := cleaner.NewLineFilter(patterns...)
	if err != nil {
		return nil, err
	}
	return cleaner.NewChain(filter, cleaner.NewBoilerplate()), nil
}

func runClean(cmd *cobra.Command, args []string) error {
	formatStr, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	cl, err := textCleaner(cmd)
	if err != nil {
		return err
	}

	inputs, err := readInputs(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cleaned := make([]string, len(inputs))
	for i, in := range inputs {
		if cleaned[i], err = cl.Clean(in.Text); err != nil {
			return fmt.Errorf("%s: %w", in.Source, err)
		}
		logger.Debug("input cleaned",
			"source", in.Source,
			"cleaner", cl.Name(),
			"input_size", len(in.Text),
			"output_size", len(cleaned[i]))
	}

	outPath, _ := cmd.Flags().GetString("output")
	return writeRecords(cmd, outPath, format, len(inputs), func(i int) any {
		return cleanRecord{Source: inputs[i].Source, Cleaned: cleaned[i]}
	})
}

// writeRecords writes n records produced by record to outPath (stdout when
// empty) in the given format.
func writeRecords(cmd *cobra.Command, outPath string, format output.Format, n int, record func(i int) any) (retErr error) {
	dest := cmd.OutOrStdout()
	if outPath != "" && outPath != "-" {
		f, err := output.Open(outPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := f.Close(); err != nil && retErr == nil {
				retErr = err
			}
		}()
		dest = f
	}

	w, err := output.NewWriter(dest, format, output.WithPretty(!viper.GetBool("compact")))
	if err != nil {
		return err
	}
	records := make([]any, n)
	for i := range records {
		records[i] = record(i)
	}
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return w.Close()
}
