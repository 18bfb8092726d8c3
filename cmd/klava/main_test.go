package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/klava/internal/config"
	"github.com/verte-zerg/klava/internal/model"
)

func newTestCmd(f *practiceFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	addPracticeFlags(cmd, f)
	return cmd
}

func ptr[T any](v T) *T {
	return &v
}

func TestResolvePracticeConfigDefaults(t *testing.T) {
	var f practiceFlags
	cmd := newTestCmd(&f)

	cfg, err := resolvePracticeConfig(cmd, f, config.FileConfig{})
	if err != nil {
		t.Fatalf("resolvePracticeConfig failed: %v", err)
	}
	if cfg.Lang != "ru" || cfg.Mode != model.ModeWords || cfg.Goal != 25 || cfg.Source != "static" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestResolvePracticeConfigFileUnderFlags(t *testing.T) {
	var f practiceFlags
	cmd := newTestCmd(&f)
	if err := cmd.Flags().Set("goal", "60"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	fileCfg := config.FileConfig{Practice: config.PracticeConfig{
		Mode:      ptr("time"),
		Goal:      ptr(15),
		FocusWeak: ptr(true),
	}}

	cfg, err := resolvePracticeConfig(cmd, f, fileCfg)
	if err != nil {
		t.Fatalf("resolvePracticeConfig failed: %v", err)
	}
	if cfg.Mode != model.ModeTime {
		t.Fatalf("expected mode from file, got %s", cfg.Mode)
	}
	if cfg.Goal != 60 {
		t.Fatalf("expected flag to override file goal, got %d", cfg.Goal)
	}
	if !cfg.FocusWeak {
		t.Fatalf("expected focus-weak from file")
	}
}

func TestResolvePracticeConfigTimeDefaultGoal(t *testing.T) {
	var f practiceFlags
	cmd := newTestCmd(&f)
	if err := cmd.Flags().Set("mode", "time"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	cfg, err := resolvePracticeConfig(cmd, f, config.FileConfig{})
	if err != nil {
		t.Fatalf("resolvePracticeConfig failed: %v", err)
	}
	if cfg.Goal != 30 {
		t.Fatalf("expected 30s default, got %d", cfg.Goal)
	}
}

func TestResolvePracticeConfigFileSourcePath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var f practiceFlags
	cmd := newTestCmd(&f)
	if err := cmd.Flags().Set("source", "file"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	cfg, err := resolvePracticeConfig(cmd, f, config.FileConfig{})
	if err != nil {
		t.Fatalf("resolvePracticeConfig failed: %v", err)
	}
	if filepath.Base(cfg.WordList) != "ru.txt" {
		t.Fatalf("expected default word list path, got %s", cfg.WordList)
	}
}

func TestResolvePracticeConfigRejectsInvalid(t *testing.T) {
	cases := []struct {
		flag  string
		value string
		want  string
	}{
		{"mode", "hours", "--mode"},
		{"goal", "-5", "--goal"},
		{"source", "ftp", "--source"},
		{"url", "not a url", "--url"},
		{"weak-top", "-1", "--weak-top"},
	}
	for _, tc := range cases {
		var f practiceFlags
		cmd := newTestCmd(&f)
		if err := cmd.Flags().Set(tc.flag, tc.value); err != nil {
			t.Fatalf("set flag: %v", err)
		}
		_, err := resolvePracticeConfig(cmd, f, config.FileConfig{})
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("expected %s error, got %v", tc.want, err)
		}
	}
}
