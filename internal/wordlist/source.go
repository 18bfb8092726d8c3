package wordlist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// DefaultRemoteURL is the Russian dictionary fetched by the remote source.
const DefaultRemoteURL = "https://raw.githubusercontent.com/solovets/russian-words/refs/heads/master/words.json"

// Source kinds accepted in configuration.
const (
	SourceStatic = "static"
	SourceFile   = "file"
	SourceRemote = "remote"
)

const maxRemoteBytes = 64 << 20

// Source supplies candidate words for session generation.
type Source interface {
	Vocabulary(ctx context.Context) ([]string, error)
}

// StaticSource serves the built-in vocabulary.
type StaticSource struct {
	Lang string
}

// Vocabulary implements Source.
func (s StaticSource) Vocabulary(context.Context) ([]string, error) {
	words, ok := Builtin(s.Lang)
	if !ok {
		return nil, fmt.Errorf("no built-in vocabulary for %q", s.Lang)
	}
	return words, nil
}

// FileSource reads a word list from disk and applies the language filter.
type FileSource struct {
	Path string
	Lang string
}

// Vocabulary implements Source.
func (s FileSource) Vocabulary(context.Context) ([]string, error) {
	words, err := LoadWords(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load word list %s: %w", s.Path, err)
	}
	filter := FilterForLang(s.Lang)
	kept := words[:0]
	for _, word := range words {
		if filter(word) {
			kept = append(kept, word)
		}
	}
	if len(kept) == 0 {
		return nil, ErrEmptyList
	}
	return kept, nil
}

// RemoteSource fetches a JSON array of words over HTTP.
type RemoteSource struct {
	URL    string
	Lang   string
	Client *http.Client
}

// Vocabulary implements Source.
func (s RemoteSource) Vocabulary(ctx context.Context) ([]string, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch vocabulary: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort close for response body.
			_ = cerr
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch vocabulary: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}
	var raw []string
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode vocabulary: %w", err)
	}
	words := FilterVocabulary(raw, s.Lang)
	if len(words) == 0 {
		return nil, ErrEmptyList
	}
	return words, nil
}

// NewSource picks a source by kind. An empty kind means static.
func NewSource(kind, lang, path, url string) (Source, error) {
	switch kind {
	case "", SourceStatic:
		return StaticSource{Lang: lang}, nil
	case SourceFile:
		if path == "" {
			return nil, errors.New("file source needs a path")
		}
		return FileSource{Path: path, Lang: lang}, nil
	case SourceRemote:
		if url == "" {
			url = DefaultRemoteURL
		}
		return RemoteSource{URL: url, Lang: lang}, nil
	default:
		return nil, fmt.Errorf("unknown word source %q", kind)
	}
}

// Load returns the source's vocabulary, substituting the fallback list when
// the source fails. The failure is only logged.
func Load(ctx context.Context, src Source, logger *slog.Logger) []string {
	words, err := src.Vocabulary(ctx)
	if err == nil && len(words) > 0 {
		return words
	}
	if err == nil {
		err = ErrEmptyList
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("vocabulary unavailable, using fallback", "source", fmt.Sprintf("%T", src), "error", err)
	return Fallback()
}
