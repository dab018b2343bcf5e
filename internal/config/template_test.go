package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const starterTemplate = "../../configs/starter.hcl.tmpl"

func TestProcessVarTags(t *testing.T) {
	content := `host = {{var "host" "localhost" false}}
port = {{var "port" 8080 false}}
debug = {{var "debug" false false}}
origins = [{{var "origins" "a,b" false}}]
secret = {{var "secret" "" true}}
token = {{var "token" "" true}}`

	result, missing := processVarTags(content, map[string]interface{}{
		"host":    "0.0.0.0",
		"origins": []string{"https://one.example.com", " https://two.example.com "},
	})

	assert.Equal(t, []string{"secret", "token"}, missing)
	assert.Equal(t, `host = "0.0.0.0"
port = 8080
debug = false
origins = ["https://one.example.com", "https://two.example.com"]
secret = ""
token = ""`, result)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		value interface{}
		want  string
	}{
		{value: "plain", want: `"plain"`},
		{value: `with "quotes"`, want: `"with \"quotes\""`},
		{value: "a, b,,c", want: `"a", "b", "c"`},
		{value: 42, want: "42"},
		{value: 1.5, want: "1.5"},
		{value: true, want: "true"},
		{value: []string{"x"}, want: `"x"`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatValue(tt.value))
	}
}

func TestRenderTemplate(t *testing.T) {
	out, err := renderTemplate(`name = {{var "name" "" true}}{{if .extra}} # {{.extra}}{{end}}`, map[string]interface{}{
		"name":  "starter",
		"extra": "note",
	})
	require.NoError(t, err)
	assert.Equal(t, `name = "starter" # note`, string(out))

	_, err = renderTemplate(`name = {{var "name" "" true}}`, map[string]interface{}{})
	assert.EqualError(t, err, "required config variables not set: name")

	_, err = renderTemplate(`value = {{.undefined}}`, map[string]interface{}{})
	assert.ErrorContains(t, err, "failed to execute template")
}

func TestGenerateConfigFromTemplate_Starter(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("REDIS_ENABLED", "")
	t.Setenv("GOOGLE_CLIENT_ID", "google-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "google-secret")
	t.Setenv("GITHUB_CLIENT_ID", "")
	t.Setenv("GITHUB_CLIENT_SECRET", "")

	output := filepath.Join(t.TempDir(), "nested", "_local.hcl")
	require.NoError(t, GenerateConfigFromTemplate(starterTemplate, output, DefaultConfigVars("local", "1.2.3")))

	info, err := os.Stat(output)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	cfg, err := LoadConfig(output)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "dev-session-secret-change-in-production", cfg.Auth.Secret)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:8080"}, cfg.Security.CORS.AllowedOrigins)
	assert.True(t, cfg.GateConfig().BypassEnabled)
	assert.False(t, cfg.RedisEnabled())

	options := cfg.ProviderOptions()
	require.Len(t, options, 2)
	assert.Equal(t, "google-id", options[0].ClientID)
	assert.Empty(t, options[1].ClientID)
}

func TestGenerateConfigFromTemplate_ProductionNeedsSecret(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	output := filepath.Join(t.TempDir(), "prod.hcl")
	err := GenerateConfigFromTemplate(starterTemplate, output, DefaultConfigVars("production", "1.2.3"))

	assert.EqualError(t, err, "required config variables not set: auth_secret")
	assert.NoFileExists(t, output)
}

func TestGenerateConfigFromTemplate_MissingTemplate(t *testing.T) {
	err := GenerateConfigFromTemplate(filepath.Join(t.TempDir(), "nope.tmpl"), filepath.Join(t.TempDir(), "out.hcl"), nil)
	assert.ErrorContains(t, err, "failed to read template")
}
