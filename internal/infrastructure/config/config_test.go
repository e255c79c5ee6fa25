package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testJWTSecret = "test-secret-key-at-least-32-chars!"

// writeConfigFile drops YAML content into a temp file and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

// validConfig returns a config that passes Validate. Tests mutate a copy
// to probe individual rules.
func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "/data/mizan.db"},
		MQTT:     MQTTConfig{QoS: 1},
		API:      APIConfig{Port: 8080},
		Security: SecurityConfig{JWT: JWTConfig{Secret: testJWTSecret}},
		Signage:  SignageConfig{OfflineAfterSeconds: 120, SlideLimit: 10},
	}
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfigFile(t, `
app:
  name: "Mizan Test"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8080
security:
  jwt:
    secret: "`+testJWTSecret+`"
signage:
  offline_after_seconds: 120
  slide_limit: 10
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.App.Name != "Mizan Test" {
		t.Errorf("App.Name = %q, want %q", cfg.App.Name, "Mizan Test")
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}
	if cfg.Signage.OfflineAfterSeconds != 120 {
		t.Errorf("Signage.OfflineAfterSeconds = %d, want 120", cfg.Signage.OfflineAfterSeconds)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "invalid: [yaml: content")

	if _, err := Load(path); err == nil {
		t.Error("Load() should fail for malformed YAML")
	}
}

func TestLoadRunsValidation(t *testing.T) {
	// No JWT secret anywhere, so Load must reject it.
	path := writeConfigFile(t, `
database:
  path: "/tmp/test.db"
api:
  port: 8080
`)

	if _, err := Load(path); err == nil {
		t.Error("Load() should fail validation without a JWT secret")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(*Config) {}, false},
		{"missing database path", func(c *Config) { c.Database.Path = "" }, true},
		{"invalid QoS", func(c *Config) { c.MQTT.QoS = 3 }, true},
		{"port zero", func(c *Config) { c.API.Port = 0 }, true},
		{"port above range", func(c *Config) { c.API.Port = 70000 }, true},
		{"missing JWT secret", func(c *Config) { c.Security.JWT.Secret = "" }, true},
		{"JWT secret too short", func(c *Config) { c.Security.JWT.Secret = "short" }, true},
		{"zero offline window", func(c *Config) { c.Signage.OfflineAfterSeconds = 0 }, true},
		{"influxdb enabled without token", func(c *Config) { c.InfluxDB.Enabled = true }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTimeoutAccessors(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{Read: 30, Write: 45, Idle: 60},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %vs, want 30s", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %vs, want 45s", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %vs, want 60s", got)
	}
}

func TestOfflineWindow(t *testing.T) {
	cfg := &Config{Signage: SignageConfig{OfflineAfterSeconds: 120}}
	if got := cfg.OfflineWindow().Seconds(); got != 120 {
		t.Errorf("OfflineWindow() = %vs, want 120s", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	for key, value := range map[string]string{
		"MIZAN_DATABASE_PATH":  "/custom/path.db",
		"MIZAN_MQTT_HOST":      "mqtt.example.com",
		"MIZAN_MQTT_USERNAME":  "testuser",
		"MIZAN_MQTT_PASSWORD":  "testpass",
		"MIZAN_API_HOST":       "192.168.1.1",
		"MIZAN_INFLUXDB_TOKEN": "secret-token",
		"MIZAN_JWT_SECRET":     "jwt-secret",
	} {
		t.Setenv(key, value)
	}

	cfg := defaultConfig()
	applyEnvOverrides(cfg)

	checks := []struct {
		name string
		got  string
		want string
	}{
		{"Database.Path", cfg.Database.Path, "/custom/path.db"},
		{"MQTT.Broker.Host", cfg.MQTT.Broker.Host, "mqtt.example.com"},
		{"MQTT.Auth.Username", cfg.MQTT.Auth.Username, "testuser"},
		{"MQTT.Auth.Password", cfg.MQTT.Auth.Password, "testpass"},
		{"API.Host", cfg.API.Host, "192.168.1.1"},
		{"InfluxDB.Token", cfg.InfluxDB.Token, "secret-token"},
		{"Security.JWT.Secret", cfg.Security.JWT.Secret, "jwt-secret"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Path == "" {
		t.Error("default Database.Path is empty")
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("default MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("default API.Port = %d, want 8080", cfg.API.Port)
	}
	if cfg.Signage.SlideLimit != 10 {
		t.Errorf("default Signage.SlideLimit = %d, want 10", cfg.Signage.SlideLimit)
	}
}
