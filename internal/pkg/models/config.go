package models

// Config represents application configuration
type Config struct {
	App     AppConfig
	Server  ServerConfig
	Sim     SimConfig
	Insight InsightConfig
	Ops     OpsConfig
	Logger  LoggerConfig
}

// AppConfig contains application-specific configuration
type AppConfig struct {
	Name        string
	Environment string
	Debug       bool
	Version     string
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout int
}

// SimConfig drives the location simulation engine. Distances are in decimal
// degrees; the engine interpolates in degree space.
type SimConfig struct {
	TickMillis     int
	StepDegrees    float64
	ArrivalEpsilon float64
	SpeedMinKmh    float64
	SpeedMaxKmh    float64
	SpeedJitterKmh float64
}

// InsightConfig contains the generative insight service configuration.
type InsightConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	TimeoutSeconds int
}

// OpsConfig contains operations-console defaults.
type OpsConfig struct {
	MapCenterLat     float64
	MapCenterLng     float64
	MapZoom          int
	LateAfterMinutes int
}

// LoggerConfig contains logger configuration
type LoggerConfig struct {
	Level    string
	FilePath string
}
