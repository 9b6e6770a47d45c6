package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Montasar-Dridi/job-recommender-system/internal/logger"
	"github.com/Montasar-Dridi/job-recommender-system/internal/output"
	"github.com/Montasar-Dridi/job-recommender-system/pkg/annotator"
	"github.com/Montasar-Dridi/job-recommender-system/pkg/cleaner"
	"github.com/Montasar-Dridi/job-recommender-system/pkg/llm"
	"github.com/Montasar-Dridi/job-recommender-system/pkg/model/registry"
	"github.com/Montasar-Dridi/job-recommender-system/pkg/textprep"
)

// preprocessRecord is one preprocessed input.
type preprocessRecord struct {
	Source     string             `json:"source" yaml:"source"`
	Normalized string             `json:"normalized" yaml:"normalized"`
	Entities   []annotator.Entity `json:"entities" yaml:"entities"`
}

// Line implements output.Liner.
func (r preprocessRecord) Line() string { return r.Normalized }

var preprocessCmd = &cobra.Command{
	Use:   "preprocess [files...]",
	Short: "Normalize text and extract named entities",
	Long: `Clean text, lemmatize it, and recognize named entities.

The model is loaded before any input is read; if it cannot be loaded the
command fails immediately. Reads stdin when no file (or "-") is given.

Output records carry the source, the normalized lemma string (stop words
and punctuation removed) and the entities with their labels.

Examples:
  textprep preprocess resume.txt
  textprep preprocess *.txt --format jsonl --concurrency 4
  textprep preprocess job.txt --model en_core_web_lg
  textprep preprocess job.txt --provider openai --llm-model gpt-4o`,
	RunE: runPreprocess,
}

func init() {
	rootCmd.AddCommand(preprocessCmd)

	flags := preprocessCmd.Flags()

	// Model settings
	flags.StringP("model", "m", "", "model name from the registry (default: the registry's English model for --provider, else "+registry.DefaultModelName+")")
	flags.String("index", "", "model index file (JSON or YAML) layered over the built-in models")
	flags.StringP("provider", "p", "", "override provider: anthropic, openai, ollama (auto-detects from env vars)")
	flags.String("llm-model", "", "override the provider-side model name")
	flags.StringP("api-key", "k", "", "API key (or use the provider's env var)")
	flags.String("base-url", "", "custom API base URL")
	flags.StringSlice("fallback", nil, "providers to fail over to, in order")

	// Output settings
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("format", "json", "output format: json, jsonl, yaml, text")

	// Cleaning settings
	addCleanerFlags(flags)
	flags.Bool("no-clean", false, "skip cleaning (input is already clean)")

	// Processing settings
	flags.IntP("concurrency", "c", 1, "inputs processed concurrently")
	flags.String("max-input-size", "0", "reject inputs larger than this after cleaning (e.g., 100KB, 1MB, 0=unlimited)")
	flags.String("chunk-size", "1KB", "max text sent in one model call; longer text is split at sentence boundaries (0=no split)")
	flags.String("language", "en", "language used to pick a model when --model is not set")
	flags.Int("transport-retries", 0, "HTTP retries inside the provider SDK (0=provider default)")
	flags.Duration("timeout", 120*time.Second, "model request timeout")
	flags.Int("max-retries", 1, "max annotation retries (rate limits and invalid responses)")

	_ = viper.BindPFlag("model", flags.Lookup("model"))
	_ = viper.BindPFlag("registry_index", flags.Lookup("index"))
	_ = viper.BindPFlag("provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("llm_model", flags.Lookup("llm-model"))
	_ = viper.BindPFlag("api_key", flags.Lookup("api-key"))
	_ = viper.BindPFlag("base_url", flags.Lookup("base-url"))
	_ = viper.BindPFlag("fallback_order", flags.Lookup("fallback"))
	_ = viper.BindPFlag("concurrency", flags.Lookup("concurrency"))
	_ = viper.BindPFlag("max_input_size", flags.Lookup("max-input-size"))
	_ = viper.BindPFlag("chunk_size", flags.Lookup("chunk-size"))
	_ = viper.BindPFlag("language", flags.Lookup("language"))
	_ = viper.BindPFlag("transport_retries", flags.Lookup("transport-retries"))
	_ = viper.BindPFlag("timeout", flags.Lookup("timeout"))
	_ = viper.BindPFlag("max_retries", flags.Lookup("max-retries"))
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	formatStr, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	maxInputSize, err := parseSize(viper.GetString("max_input_size"))
	if err != nil {
		return fmt.Errorf("invalid max-input-size: %w", err)
	}
	chunkSize, err := parseSize(viper.GetString("chunk_size"))
	if err != nil {
		return fmt.Errorf("invalid chunk-size: %w", err)
	}

	cl, err := textCleaner(cmd)
	if err != nil {
		return err
	}
	if noClean, _ := cmd.Flags().GetBool("no-clean"); noClean {
		cl = cleaner.NewNoop()
	}

	reg, err := registry.Default(indexPath())
	if err != nil {
		return fmt.Errorf("load model index: %w", err)
	}

	// Without --model, an explicit --provider lets the registry pick the
	// model; otherwise the default model is used.
	modelName := viper.GetString("model")
	if modelName == "" && viper.GetString("provider") == "" {
		modelName = registry.DefaultModelName
	}
	provider, err := resolveProvider(ctx, reg, modelName)
	if err != nil {
		return err
	}

	opts := []textprep.LoadOption{
		textprep.WithRegistry(reg),
		textprep.WithProvider(provider),
		textprep.WithAPIKey(viper.GetString("api_key")),
		textprep.WithMaxContentSize(maxInputSize),
		textprep.WithMaxChunkSize(chunkSize),
		textprep.WithLanguage(viper.GetString("language")),
		textprep.WithTransportRetries(viper.GetInt("transport_retries")),
		textprep.WithTimeout(viper.GetDuration("timeout")),
		textprep.WithMaxRetries(viper.GetInt("max_retries")),
		textprep.WithFallback(viper.GetStringSlice("fallback_order")...),
		textprep.WithObserver(debugObserver()),
		textprep.WithTextCleaner(cl),
	}
	opts = append(opts, providerOptions(provider)...)

	logger.Debug("loading model", "model", modelName, "provider", provider)
	err = textprep.Init(ctx, modelName, opts...)
	defer func() { _ = textprep.Close() }()
	if err != nil {
		return err
	}

	p := textprep.Default()
	logger.Info("model loaded", "model", p.Model(), "annotator", p.Annotator().Name())

	inputs, err := readInputs(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	texts := make([]string, len(inputs))
	for i, in := range inputs {
		texts[i] = in.Text
	}

	start := time.Now()
	results, err := p.PreprocessMany(ctx, texts, viper.GetInt("concurrency"))
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "preprocessing complete", "inputs", len(inputs), "duration", time.Since(start))

	outPath, _ := cmd.Flags().GetString("output")
	return writeRecords(cmd, outPath, format, len(results), func(i int) any {
		return preprocessRecord{
			Source:     inputs[i].Source,
			Normalized: results[i].Normalized,
			Entities:   results[i].Entities,
		}
	})
}

// indexPath returns the configured model index, or the default index
// location when a file exists there.
func indexPath() string {
	if p := viper.GetString("registry_index"); p != "" {
		return p
	}
	if p := registry.DefaultIndexPath(); fileExists(p) {
		return p
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// resolveProvider picks the provider serving modelName: the configured
// override, then the registry entry, then the environment.
func resolveProvider(ctx context.Context, reg registry.Registry, modelName string) (string, error) {
	if p := viper.GetString("provider"); p != "" {
		if !llm.IsRegistered(p) {
			return "", fmt.Errorf("unknown provider: %s (use %s)", p, strings.Join(llm.AvailableProviders(), ", "))
		}
		return p, nil
	}

	info, err := reg.Get(ctx, modelName)
	if err != nil {
		return "", fmt.Errorf("load model %q: %w", modelName, err)
	}
	if info.Provider != "" {
		return info.Provider, nil
	}

	detected, _ := llm.DetectProvider()
	return detected, nil
}

// providerOptions applies providers.<name>.* settings; explicit flags win.
func providerOptions(provider string) []textprep.LoadOption {
	key := func(field string) string { return "providers." + provider + "." + field }

	var opts []textprep.LoadOption
	if m := firstNonEmpty(viper.GetString("llm_model"), viper.GetString(key("model"))); m != "" {
		opts = append(opts, textprep.WithModel(m))
	}
	if u := firstNonEmpty(viper.GetString("base_url"), viper.GetString(key("base_url"))); u != "" {
		opts = append(opts, textprep.WithBaseURL(u))
	}
	if viper.IsSet(key("temperature")) {
		opts = append(opts, textprep.WithTemperature(viper.GetFloat64(key("temperature"))))
	}
	if n := viper.GetInt(key("max_tokens")); n > 0 {
		opts = append(opts, textprep.WithMaxTokens(n))
	}
	return opts
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseSize parses a humanized byte size; empty or "0" means unlimited.
func parseSize(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if n > uint64(^uint(0)>>1) {
		return 0, errors.New("size too large")
	}
	return int(n), nil
}

// debugObserver logs every model call at debug level.
func debugObserver() llm.LLMObserver {
	return llm.ObserverFunc(func(ctx context.Context, e llm.LLMCallEvent) {
		if !logger.Enabled(ctx, slog.LevelDebug) {
			return
		}
		args := []any{
			"provider", e.Provider,
			"model", e.Model,
			"attempt", e.Attempt+1,
			"input_size", e.InputSize,
			"duration", e.Duration,
		}
		if e.Response != nil {
			args = append(args,
				"input_tokens", e.Response.InputTokens,
				"output_tokens", e.Response.OutputTokens,
				"response_size", humanize.Bytes(uint64(e.Response.ContentSize)),
				"finish_reason", e.Response.FinishReason)
		}
		if e.Error != nil {
			args = append(args, "error", e.Error)
		}
		logger.DebugContext(ctx, "model call", args...)
	})
}
