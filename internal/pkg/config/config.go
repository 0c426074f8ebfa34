package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/tmsflow/fleettrack/internal/pkg/models"
)

func InitConfig(configPath string) *models.Config {
	env := GetEnv("APP_ENV", "local")
	if env == "local" {
		// Load config from file
		err := godotenv.Load(configPath)
		if err != nil {
			log.Println("error loading config from file", err)
		}
	}
	// Create config from environment variables
	return loadConfigFromEnv()
}

func loadConfigFromEnv() *models.Config {
	configs := &models.Config{}

	// App config
	configs.App.Name = GetEnv("APP_NAME", "fleettrack")
	configs.App.Environment = GetEnv("APP_ENV", "local")
	configs.App.Debug = GetEnvAsBool("APP_DEBUG", true)
	configs.App.Version = GetEnv("APP_VERSION", "")

	// Server config
	configs.Server.Host = GetEnv("SERVER_HOST", "")
	configs.Server.Port = GetEnvAsInt("SERVER_PORT", 9980)
	configs.Server.ShutdownTimeout = GetEnvAsInt("SERVER_SHUTDOWN_TIMEOUT", 30)

	// Simulation config
	configs.Sim.TickMillis = GetEnvAsInt("SIM_TICK_MILLIS", 1000)
	configs.Sim.StepDegrees = GetEnvAsFloat("SIM_STEP_DEGREES", 0.0005)
	configs.Sim.ArrivalEpsilon = GetEnvAsFloat("SIM_ARRIVAL_EPSILON", 0.001)
	configs.Sim.SpeedMinKmh = GetEnvAsFloat("SIM_SPEED_MIN_KMH", 30)
	configs.Sim.SpeedMaxKmh = GetEnvAsFloat("SIM_SPEED_MAX_KMH", 80)
	configs.Sim.SpeedJitterKmh = GetEnvAsFloat("SIM_SPEED_JITTER_KMH", 2)

	// Insight service config
	configs.Insight.BaseURL = GetEnv("INSIGHT_BASE_URL", "https://generativelanguage.googleapis.com")
	configs.Insight.APIKey = GetEnv("INSIGHT_API_KEY", "")
	configs.Insight.Model = GetEnv("INSIGHT_MODEL", "gemini-2.5-flash")
	configs.Insight.TimeoutSeconds = GetEnvAsInt("INSIGHT_TIMEOUT_SECONDS", 10)

	// Operations console config
	configs.Ops.MapCenterLat = GetEnvAsFloat("OPS_MAP_CENTER_LAT", -23.5505)
	configs.Ops.MapCenterLng = GetEnvAsFloat("OPS_MAP_CENTER_LNG", -46.6333)
	configs.Ops.MapZoom = GetEnvAsInt("OPS_MAP_ZOOM", 13)
	configs.Ops.LateAfterMinutes = GetEnvAsInt("OPS_LATE_AFTER_MINUTES", 30)

	// Logger config
	configs.Logger.Level = GetEnv("LOG_LEVEL", "info")
	configs.Logger.FilePath = GetEnv("LOG_FILE_PATH", "")

	return configs
}

// Helper functions to get environment variables with different types
func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func GetEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default: %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}
