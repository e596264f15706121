package bootstrap

import (
	"strings"
	"testing"

	"github.com/dalemusser/waffle/config"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "sqlite ok", mutate: func(*AppConfig) {}},
		{name: "mongo ok", mutate: func(c *AppConfig) {
			c.StoreDriver = "mongo"
			c.MongoURI = "mongodb://localhost:27017"
			c.MongoDatabase = "cmsdesk"
		}},
		{name: "unknown driver", mutate: func(c *AppConfig) { c.StoreDriver = "postgres" }, wantErr: "unknown store_driver"},
		{name: "mongo without database", mutate: func(c *AppConfig) {
			c.StoreDriver = "mongo"
			c.MongoURI = "mongodb://localhost:27017"
			c.MongoDatabase = ""
		}, wantErr: "mongo_database"},
		{name: "missing dsn", mutate: func(c *AppConfig) { c.SQLiteDSN = " " }, wantErr: "sqlite_dsn"},
		{name: "missing session key", mutate: func(c *AppConfig) { c.SessionKey = "" }, wantErr: "session_key"},
		{name: "zero send buffer", mutate: func(c *AppConfig) { c.SocketSendBuffer = 0 }, wantErr: "socket_send_buffer"},
		{name: "zero history limit", mutate: func(c *AppConfig) { c.HistoryLimit = 0 }, wantErr: "history_limit"},
		{name: "discord without token", mutate: func(c *AppConfig) { c.DiscordEnabled = true }, wantErr: "discord_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testAppConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{Env: "dev"}, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" pending , in progress,,resolved ")
	want := []string{"pending", "in progress", "resolved"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d: expected %q, got %q", i, want[i], got[i])
		}
	}
	if splitList("") != nil {
		t.Error("expected nil for blank input")
	}
}
