package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "Empty", input: "", want: []string{}},
		{name: "Single", input: "read_products", want: []string{"read_products"}},
		{name: "Trims and skips blanks", input: " a, b ,,c ", want: []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSlice(tt.input))
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("SHOPIFY_APP_URL", "https://ugc.example.com/")
	t.Setenv("UPLOAD_MAX_FILE_SIZE_MB", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://ugc.example.com", cfg.Shopify.AppURL)
	assert.Equal(t, "pro", cfg.Billing.DefaultPlan)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxFileSize)
	assert.Equal(t, "0 * * * *", cfg.Scheduler.ChannelSyncSpec)
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, 60*24*time.Hour, cfg.Instagram.TokenTTL)
	assert.Equal(t, "https://cdn.ugcfy.com/widget.js", cfg.Widget.ScriptURL)
	assert.Equal(t, 10, cfg.Database.MaxIdleConns)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "ugcfy", SSLMode: "require"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=ugcfy sslmode=require application_name=ugcfy", cfg.DSN())
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 90*time.Second, parseDuration("90s", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SHOPIFY_API_KEY", "")
	t.Setenv("SHOPIFY_API_SECRET", "")

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}
