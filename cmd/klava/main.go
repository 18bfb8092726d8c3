// Package main provides the CLI entrypoint for klava.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/klava/internal/config"
	"github.com/verte-zerg/klava/internal/engine"
	"github.com/verte-zerg/klava/internal/generator"
	"github.com/verte-zerg/klava/internal/logging"
	"github.com/verte-zerg/klava/internal/model"
	"github.com/verte-zerg/klava/internal/stats"
	"github.com/verte-zerg/klava/internal/store"
	"github.com/verte-zerg/klava/internal/tui"
	"github.com/verte-zerg/klava/internal/wordlist"
)

const (
	defaultLang        = "ru"
	defaultMode        = string(model.ModeWords)
	defaultSource      = wordlist.SourceStatic
	defaultWeakTop     = 8
	defaultWeakFactor  = 2.0
	defaultWeakWindow  = 20
	defaultCurveWindow = 20
	defaultLogLevel    = "info"
	vocabularyTimeout  = 20 * time.Second
)

// practiceFlags holds the settings shared by the practice and serve commands.
type practiceFlags struct {
	lang       string
	mode       string
	goal       int
	source     string
	url        string
	wordList   string
	focusWeak  bool
	weakTop    int
	weakFactor float64
	weakWindow int
}

var (
	practice practiceFlags
	logLevel string

	validate = validator.New(validator.WithRequiredStructEnabled())
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "klava",
		Short:         "Typing speed trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	addPracticeFlags(rootCmd, &practice)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLangsCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newWordlistCmd())

	return rootCmd
}

func addPracticeFlags(cmd *cobra.Command, f *practiceFlags) {
	cmd.Flags().StringVar(&f.lang, "lang", defaultLang, "language code")
	cmd.Flags().StringVar(&f.mode, "mode", defaultMode, "session mode (words, time)")
	cmd.Flags().IntVar(&f.goal, "goal", 0, "words in word mode, seconds in time mode (default: 25 words / 30s)")
	cmd.Flags().StringVar(&f.source, "source", defaultSource, "word source (static, file, remote)")
	cmd.Flags().StringVar(&f.url, "url", "", "remote word source URL")
	cmd.Flags().StringVar(&f.wordList, "wordlist", "", "word list file for the file source")
	cmd.Flags().BoolVar(&f.focusWeak, "focus-weak", false, "bias practice toward weak characters")
	cmd.Flags().IntVar(&f.weakTop, "weak-top", defaultWeakTop, "number of weak characters to focus on")
	cmd.Flags().Float64Var(&f.weakFactor, "weak-factor", defaultWeakFactor, "weight factor for weak characters")
	cmd.Flags().IntVar(&f.weakWindow, "weak-window", defaultWeakWindow, "number of recent sessions to compute weak chars")
}

// resolvePracticeConfig layers the config file under explicitly set flags
// and validates the result.
func resolvePracticeConfig(cmd *cobra.Command, f practiceFlags, fileCfg config.FileConfig) (model.Config, error) {
	p := fileCfg.Practice
	applyStringConfig(cmd, "lang", &f.lang, p.Lang)
	applyStringConfig(cmd, "mode", &f.mode, p.Mode)
	applyIntConfig(cmd, "goal", &f.goal, p.Goal)
	applyStringConfig(cmd, "source", &f.source, p.Source)
	applyStringConfig(cmd, "url", &f.url, p.URL)
	applyBoolConfig(cmd, "focus-weak", &f.focusWeak, p.FocusWeak)
	applyIntConfig(cmd, "weak-top", &f.weakTop, p.WeakTop)
	applyFloatConfig(cmd, "weak-factor", &f.weakFactor, p.WeakFactor)
	applyIntConfig(cmd, "weak-window", &f.weakWindow, p.WeakWindow)

	cfg := model.Config{
		Lang:       strings.ToLower(strings.TrimSpace(f.lang)),
		Mode:       model.Mode(f.mode),
		Goal:       f.goal,
		Source:     f.source,
		SourceURL:  f.url,
		WordList:   f.wordList,
		FocusWeak:  f.focusWeak,
		WeakTop:    f.weakTop,
		WeakFactor: f.weakFactor,
		WeakWindow: f.weakWindow,
	}
	if cfg.Goal == 0 {
		cfg.Goal = model.DefaultGoal(cfg.Mode)
	}
	if cfg.Source == wordlist.SourceFile && cfg.WordList == "" {
		cfg.WordList = config.DefaultWordListPath(cfg.Lang)
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := resolvePracticeConfig(cmd, practice, fileCfg)
	if err != nil {
		return err
	}

	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	logger, closeLog, err := logging.OpenFile(config.DefaultLogPath(), logging.Options{Level: logLevel})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeLog(); cerr != nil {
			// Best-effort close for the log file.
			_ = cerr
		}
	}()
	slog.SetDefault(logger)

	words, err := loadVocabulary(cfg, logger)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Error("failed to close db", "error", cerr)
		}
	}()

	var opts []engine.Option
	if cfg.FocusWeak {
		weakSet, err := loadWeakSet(context.Background(), st, cfg)
		if err != nil {
			logger.Error("failed to load weak chars", "error", err)
		} else if len(weakSet) == 0 {
			logger.Info("no stats available for weak-char focus yet; using normal generator")
		} else {
			opts = append(opts, engine.WithWeakFocus(weakSet, cfg.WeakFactor))
		}
	}

	eng, err := engine.New(generator.New(), words, cfg.Mode, cfg.Goal, opts...)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	m := tui.NewModel(cfg, st, eng, logger)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func loadVocabulary(cfg model.Config, logger *slog.Logger) ([]string, error) {
	src, err := wordlist.NewSource(cfg.Source, cfg.Lang, cfg.WordList, cfg.SourceURL)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), vocabularyTimeout)
	defer cancel()
	return wordlist.Load(ctx, src, logger), nil
}

func loadWeakSet(ctx context.Context, st *store.Store, cfg model.Config) (map[rune]struct{}, error) {
	aggs, err := st.GetWeakChars(ctx, cfg.WeakWindow, cfg.Lang)
	if err != nil {
		return nil, err
	}
	return stats.SelectWeakChars(aggs, cfg.WeakTop), nil
}

var flagNames = map[string]string{
	"Lang":       "lang",
	"Mode":       "mode",
	"Goal":       "goal",
	"Source":     "source",
	"SourceURL":  "url",
	"WordList":   "wordlist",
	"WeakTop":    "weak-top",
	"WeakFactor": "weak-factor",
	"WeakWindow": "weak-window",
}

func validateConfig(cfg model.Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name, ok := flagNames[fe.Field()]
		if !ok {
			name = strings.ToLower(fe.Field())
		}
		msgs = append(msgs, fmt.Sprintf("invalid --%s %v: failed %q", name, fe.Value(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "\n"))
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
