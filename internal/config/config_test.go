package config

import (
	"os"
	"reflect"
	"testing"
)

// testOptions mirrors the daemon's Options struct shape.
type testOptions struct {
	Config string `help:"Config file path"`

	StringField string `toml:"test.string_field" env:"STRING_FIELD"`
	BoolField   bool   `toml:"test.bool_field" env:"BOOL_FIELD"`
	IntField    int    `toml:"test.int_field" env:"INT_FIELD"`

	NestedString string `toml:"nested.value" env:"NESTED_VALUE"`
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config_*.toml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func TestLoadConfigFromTOML(t *testing.T) {
	path := writeTempConfig(t, `
[test]
string_field = "hello world"
bool_field = true
int_field = 42

[nested]
value = "nested value"
`)

	opts := &testOptions{Config: path}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.StringField != "hello world" {
		t.Errorf("StringField = %q, want %q", opts.StringField, "hello world")
	}
	if !opts.BoolField {
		t.Errorf("BoolField = %v, want true", opts.BoolField)
	}
	if opts.IntField != 42 {
		t.Errorf("IntField = %d, want 42", opts.IntField)
	}
	if opts.NestedString != "nested value" {
		t.Errorf("NestedString = %q, want %q", opts.NestedString, "nested value")
	}
}

func TestLoadConfigFromEnvVars(t *testing.T) {
	t.Setenv("ITE5570D_STRING_FIELD", "env string")
	t.Setenv("ITE5570D_BOOL_FIELD", "false")
	t.Setenv("ITE5570D_INT_FIELD", "123")

	opts := &testOptions{}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.StringField != "env string" {
		t.Errorf("StringField = %q, want %q", opts.StringField, "env string")
	}
	if opts.BoolField {
		t.Errorf("BoolField = %v, want false", opts.BoolField)
	}
	if opts.IntField != 123 {
		t.Errorf("IntField = %d, want 123", opts.IntField)
	}
}

func TestLoadConfigEnvOverridesToml(t *testing.T) {
	path := writeTempConfig(t, `
[test]
string_field = "toml value"
bool_field = true
int_field = 100
`)

	t.Setenv("ITE5570D_STRING_FIELD", "env override")
	t.Setenv("ITE5570D_BOOL_FIELD", "false")

	opts := &testOptions{Config: path}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.StringField != "env override" {
		t.Errorf("StringField = %q, want env override", opts.StringField)
	}
	if opts.BoolField {
		t.Errorf("BoolField = %v, want false (env override)", opts.BoolField)
	}
	if opts.IntField != 100 {
		t.Errorf("IntField = %d, want 100 (from TOML)", opts.IntField)
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"level1": map[string]any{
			"level2": map[string]any{
				"value": "nested_value",
			},
			"simple": "simple_value",
		},
		"root": "root_value",
	}

	tests := []struct {
		path     string
		expected any
	}{
		{"root", "root_value"},
		{"level1.simple", "simple_value"},
		{"level1.level2.value", "nested_value"},
		{"nonexistent", nil},
		{"level1.nonexistent", nil},
	}

	for _, tt := range tests {
		result := getNestedValue(data, tt.path)
		if result != tt.expected {
			t.Errorf("getNestedValue(%q) = %v, want %v", tt.path, result, tt.expected)
		}
	}
}

func TestSetFieldValue(t *testing.T) {
	type target struct {
		StringField string
		BoolField   bool
		IntField    int
	}

	s := &target{}
	v := reflect.ValueOf(s).Elem()

	setFieldValue(v.FieldByName("StringField"), "test string")
	if s.StringField != "test string" {
		t.Errorf("StringField = %q, want %q", s.StringField, "test string")
	}

	setFieldValue(v.FieldByName("BoolField"), true)
	if !s.BoolField {
		t.Errorf("BoolField = %v, want true", s.BoolField)
	}

	setFieldValue(v.FieldByName("IntField"), int64(42))
	if s.IntField != 42 {
		t.Errorf("IntField = %d, want 42", s.IntField)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	opts := &testOptions{Config: "nonexistent_file.toml"}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig should not fail for missing file: %v", err)
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	path := writeTempConfig(t, `
[test
invalid toml syntax
`)

	opts := &testOptions{Config: path}
	if err := LoadConfig(opts, nil); err == nil {
		t.Fatal("LoadConfig should fail for invalid TOML")
	}
}

func TestLoadLoggingModuleLevels(t *testing.T) {
	path := writeTempConfig(t, `
[logging]
level = "info"
format = "text"
daemon = "debug"
device = "warn"
`)

	cfg := LoadLoggingConfig(path)
	if cfg.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Level)
	}
	if cfg.Format != "text" {
		t.Errorf("Format = %q, want text", cfg.Format)
	}
	if cfg.Modules["daemon"] != "debug" {
		t.Errorf("Modules[daemon] = %q, want debug", cfg.Modules["daemon"])
	}
	if cfg.Modules["device"] != "warn" {
		t.Errorf("Modules[device] = %q, want warn", cfg.Modules["device"])
	}
}
