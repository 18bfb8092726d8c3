package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/klava/internal/config"
	"github.com/verte-zerg/klava/internal/wordlist"
)

var (
	wordlistLang  string
	wordlistURL   string
	wordlistForce bool
)

func newWordlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wordlist",
		Short: "Download and cache a word list",
		Args:  cobra.NoArgs,
		RunE:  runWordlistCmd,
	}
	cmd.Flags().StringVar(&wordlistLang, "lang", defaultLang, "language code")
	cmd.Flags().StringVar(&wordlistURL, "url", wordlist.DefaultRemoteURL, "JSON word array URL")
	cmd.Flags().BoolVar(&wordlistForce, "force", false, "overwrite existing files")
	return cmd
}

func runWordlistCmd(cmd *cobra.Command, _ []string) error {
	lang := strings.ToLower(strings.TrimSpace(wordlistLang))
	if lang == "" {
		return fmt.Errorf("--lang must not be empty")
	}
	outPath := config.DefaultWordListPath(lang)
	if !wordlistForce {
		if _, err := os.Stat(outPath); err == nil {
			return fmt.Errorf("word list already exists: %s (use --force to overwrite)", outPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat word list: %w", err)
		}
	}

	logErrf("Fetching %s...\n", wordlistURL)
	ctx, cancel := context.WithTimeout(context.Background(), vocabularyTimeout)
	defer cancel()
	words, err := wordlist.RemoteSource{URL: wordlistURL, Lang: lang}.Vocabulary(ctx)
	if err != nil {
		return err
	}
	if err := wordlist.SaveWords(outPath, words); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d words)\n", outPath, len(words)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newLangsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List available vocabularies",
		Args:  cobra.NoArgs,
		RunE:  runLangsCmd,
	}
}

func runLangsCmd(cmd *cobra.Command, _ []string) error {
	cached, err := wordlist.ListLangs(config.DefaultWordListDir())
	if err != nil {
		return err
	}
	builtin := wordlist.BuiltinLangs()
	langs := slices.Concat(builtin, cached)
	slices.Sort(langs)
	langs = slices.Compact(langs)

	for _, lang := range langs {
		var tags []string
		if slices.Contains(builtin, lang) {
			tags = append(tags, "built-in")
		}
		if slices.Contains(cached, lang) {
			tags = append(tags, "cached")
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", lang, strings.Join(tags, ", ")); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if len(cached) == 0 {
		logErrf("No cached word lists. Download with: klava wordlist --lang <code>\n")
	}
	return nil
}
