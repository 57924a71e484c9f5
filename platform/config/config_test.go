package config

import (
	"testing"
	"time"
)

func TestLoadParsesIntervalOverrides(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "2m")
	t.Setenv("TOUCH_POINT_INTERVAL", "45s")
	t.Setenv("TOUCH_POINT_BATCH_SIZE", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.PollInterval != 2*time.Minute {
		t.Fatalf("expected 2m poll interval, got %v", cfg.PollInterval)
	}
	if cfg.TouchPointInterval != 45*time.Second {
		t.Fatalf("expected 45s touch point interval, got %v", cfg.TouchPointInterval)
	}
	if cfg.TouchPointBatchSize != 25 {
		t.Fatalf("expected batch size 25, got %d", cfg.TouchPointBatchSize)
	}
}

func TestLoadFallsBackOnMalformedValues(t *testing.T) {
	// A zero interval would panic time.NewTicker in the poller and processor
	// loops, so garbage must land on the documented defaults instead.
	t.Setenv("POLL_INTERVAL", "every-so-often")
	t.Setenv("TOUCH_POINT_INTERVAL", "10")
	t.Setenv("SMTP_PORT", "five-eighty-seven")
	t.Setenv("TOUCH_POINT_BATCH_SIZE", "lots")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.PollInterval != 30*time.Second {
		t.Fatalf("expected default 30s poll interval, got %v", cfg.PollInterval)
	}
	if cfg.TouchPointInterval != 10*time.Second {
		t.Fatalf("expected default 10s touch point interval, got %v", cfg.TouchPointInterval)
	}
	if cfg.SMTPPort != 587 {
		t.Fatalf("expected default smtp port 587, got %d", cfg.SMTPPort)
	}
	if cfg.TouchPointBatchSize != 50 {
		t.Fatalf("expected default batch size 50, got %d", cfg.TouchPointBatchSize)
	}
}

func TestLoadLowercasesEmailWhitelist(t *testing.T) {
	t.Setenv("LEAD_EMAIL_WHITELIST", "Ada@Example.COM, ops@example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.EmailWhitelist) != 2 || cfg.EmailWhitelist[0] != "ada@example.com" {
		t.Fatalf("expected lowercased whitelist, got %v", cfg.EmailWhitelist)
	}
}
