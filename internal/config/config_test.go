package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jengzang/transit-reports-backend-go/internal/database"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "DB_PATH", "GEOFENCE_THRESHOLD_KM", "REQUEST_TIMEOUT", "AMQP_URL", "RATE_LIMIT_BURST"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, database.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "./data/reports.db", cfg.Database.Path)
	assert.Equal(t, 0.5, cfg.GeofenceThresholdKm)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.AMQPURL)
	assert.Equal(t, 20, cfg.RateLimitBurst)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("GEOFENCE_THRESHOLD_KM", "0.75")
	t.Setenv("REQUEST_TIMEOUT", "2s")
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")

	cfg := Load()
	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, database.DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 0.75, cfg.GeofenceThresholdKm)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 20, cfg.RateLimitBurst)
}
