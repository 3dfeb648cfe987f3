package config_test

import (
	"testing"

	"github.com/zamorski/podarunky-bot/internal/config"
)

func TestLoad_MissingTokenIsFatal(t *testing.T) {
	_, err := config.Load("config-does-not-exist.yaml")
	if err == nil {
		t.Fatal("expected validation error when token and admin list are absent")
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("BOT_TELEGRAM_TOKEN", "123:abc")
	t.Setenv("BOT_TELEGRAM_ADMIN_IDS", "42,99")

	cfg, err := config.Load("config-does-not-exist.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("expected token from environment, got %q", cfg.Telegram.Token)
	}
	if len(cfg.Telegram.AdminIDs) != 2 || cfg.Telegram.AdminIDs[0] != 42 || cfg.Telegram.AdminIDs[1] != 99 {
		t.Errorf("unexpected admin ids: %v", cfg.Telegram.AdminIDs)
	}
	if cfg.Telegram.PrimaryAdminID != 42 {
		t.Errorf("expected primary admin to default to first admin, got %d", cfg.Telegram.PrimaryAdminID)
	}
	if !cfg.Telegram.IsAdmin(99) {
		t.Error("expected 99 to be recognized as admin")
	}
	if cfg.Telegram.IsAdmin(7) {
		t.Error("expected 7 not to be recognized as admin")
	}
}

func TestParseAdminIDs(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []int64
		wantErr bool
	}{
		{name: "comma separated", raw: "1,2,3", want: []int64{1, 2, 3}},
		{name: "space separated", raw: "10 20", want: []int64{10, 20}},
		{name: "empty", raw: "", want: []int64{}},
		{name: "garbage", raw: "1,abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := config.ParseAdminIDs(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}
