package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "aba_tracker", cfg.Database.Name)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Equal(t, "genai", cfg.Gemini.Transport)
	assert.Equal(t, 60*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, 10, cfg.AI.MaxPDFFiles)
	assert.Equal(t, int64(25*1024*1024), cfg.Backup.MaxBytes)
	assert.Equal(t, 10*time.Minute, cfg.Analytics.CacheTTL)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ALLOWED_ORIGINS", "https://app.example.com, http://localhost:3000 ,")
	v.Set("GEMINI_TRANSPORT", "OpenAI")
	v.Set("ANALYTICS_CACHE_TTL", "not-a-duration")
	v.Set("AI_MAX_PDF_FILES", -1)
	cfg := fromViper(v)

	assert.Equal(t, []string{"https://app.example.com", "http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "openai", cfg.Gemini.Transport)
	assert.Equal(t, 10*time.Minute, cfg.Analytics.CacheTTL)
	assert.Equal(t, 10, cfg.AI.MaxPDFFiles)
}

func TestValidateProductionSecrets(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)
	assert.NoError(t, cfg.Validate())

	cfg.Env = EnvProduction
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")

	cfg.JWT.Secret = "s3cr3t"
	assert.ErrorContains(t, cfg.Validate(), "REPORTS_SIGNED_URL_SECRET")

	cfg.Reports.SignedURLSecret = "other"
	assert.NoError(t, cfg.Validate())
}

func TestConnectionURLs(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("DATABASE_URL", "postgres://u:p@db/aba")
	v.Set("REDIS_URL", "redis://cache:6379/1")
	v.Set("DB_CONN_MAX_LIFETIME", "15m")
	cfg := fromViper(v)

	assert.Equal(t, "postgres://u:p@db/aba", cfg.Database.URL)
	assert.Equal(t, "redis://cache:6379/1", cfg.Redis.URL)
	assert.Equal(t, 15*time.Minute, cfg.Database.ConnMaxLifetime)
}
