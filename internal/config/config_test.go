package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_PORT", "LOG_LEVEL", "ALLOCATION_API_BASE_URL", "ALLOCATION_API_TOKEN", "ALLOCATION_API_TIMEOUT",
		"ALLOCATION_DATA_PATH", "ALLOCATION_SAVE_PATH", "ALLOCATION_SOLVE_PATH", "ALLOCATION_VALIDATE_PATH",
		"GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_EXPORT_ID", "GOOGLE_SHEET_EXPORT_RANGE",
		"RELOAD_CRON_SCHEDULE", "EXPORT_CRON_SCHEDULE", "TIMEZONE", "MONGODB_URI", "MONGODB_DB_NAME",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALLOCATION_API_BASE_URL", "http://upstream.local")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != "8080" || cfg.Logging.Level != "info" {
		t.Errorf("unexpected server/logging defaults %+v %+v", cfg.Server, cfg.Logging)
	}
	if cfg.AllocationAPI.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %s", cfg.AllocationAPI.Timeout)
	}
	if cfg.AllocationAPI.DataPath != "/api/allocation_data" || cfg.AllocationAPI.SavePath != "/api/save_allocations" {
		t.Errorf("unexpected paths %+v", cfg.AllocationAPI)
	}
	if cfg.Sheets.Enabled() {
		t.Errorf("sheets export should be disabled by default")
	}
	if cfg.Scheduler.ReloadSchedule != "*/15 * * * *" || cfg.Scheduler.Timezone != "Europe/Paris" {
		t.Errorf("unexpected scheduler defaults %+v", cfg.Scheduler)
	}
	if cfg.MongoDB.URI != "" {
		t.Errorf("mongo should be disabled by default")
	}
}

func TestLoad_FromEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	content := "ALLOCATION_API_BASE_URL=http://from-file\nALLOCATION_API_TIMEOUT=5s\nAPP_PORT=9090\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	// godotenv does not override variables that are already set, even when empty.
	for _, key := range []string{"ALLOCATION_API_BASE_URL", "ALLOCATION_API_TIMEOUT", "APP_PORT"} {
		os.Unsetenv(key)
	}
	t.Cleanup(func() {
		for _, key := range []string{"ALLOCATION_API_BASE_URL", "ALLOCATION_API_TIMEOUT", "APP_PORT"} {
			os.Unsetenv(key)
		}
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AllocationAPI.BaseURL != "http://from-file" || cfg.AllocationAPI.Timeout != 5*time.Second || cfg.Server.Port != "9090" {
		t.Fatalf("env file not applied: %+v %+v", cfg.AllocationAPI, cfg.Server)
	}
}

func TestLoad_InvalidTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALLOCATION_API_BASE_URL", "http://upstream.local")
	t.Setenv("ALLOCATION_API_TIMEOUT", "soon")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected an error for an unparsable timeout")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:        ServerConfig{Port: "8080"},
			AllocationAPI: AllocationAPIConfig{BaseURL: "http://x", Timeout: time.Second, DataPath: "/d", SavePath: "/s", SolvePath: "/a", ValidatePath: "/v"},
			Scheduler:     SchedulerConfig{Timezone: "UTC"},
		}
	}

	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing base url", func(c *Config) { c.AllocationAPI.BaseURL = "" }, true},
		{"zero timeout", func(c *Config) { c.AllocationAPI.Timeout = 0 }, true},
		{"sheet without credentials", func(c *Config) { c.Sheets.SpreadsheetID = "sheet" }, true},
		{"sheet with credentials", func(c *Config) { c.Sheets = SheetsConfig{SpreadsheetID: "sheet", CredentialsPath: "creds.json"} }, false},
		{"export schedule without sheet", func(c *Config) { c.Scheduler.ExportSchedule = "0 * * * *" }, true},
		{"mongo without db name", func(c *Config) { c.MongoDB.URI = "mongodb://localhost" }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("expected error=%v, got %v", tc.wantErr, err)
			}
		})
	}
}
