package config

import (
	"fmt"

	"freight-enquiry-importer/internal/db"

	"github.com/spf13/viper"
)

// Files holds the master-data and tracker file locations for CLI runs.
type Files struct {
	Enquiries string
	Countries string
	Airports  string
	Seaports  string
	Sales     string
}

// Config is the full application configuration.
type Config struct {
	DB             db.Config
	BatchSize      int
	MigrationsPath string
	ListenAddr     string
	Files          Files
}

// Default returns the configuration used when nothing is provided.
func Default() Config {
	return Config{
		DB:             db.DefaultConfig(),
		BatchSize:      1000,
		MigrationsPath: "./migrations",
		ListenAddr:     ":8080",
	}
}

// Load reads config.yaml from configPath, falling back to defaults, with
// environment overrides (FEI_DATABASE_HOST and friends).
func Load(configPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("FEI")

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("import.batch_size")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Just log it, use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("database.host") {
		cfg.DB.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.DB.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.DB.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.DB.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.DB.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.DB.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("import.batch_size") {
		cfg.BatchSize = v.GetInt("import.batch_size")
	}
	if v.IsSet("import.migrations_path") {
		cfg.MigrationsPath = v.GetString("import.migrations_path")
	}
	if v.IsSet("server.listen_addr") {
		cfg.ListenAddr = v.GetString("server.listen_addr")
	}
	if v.IsSet("files.enquiries") {
		cfg.Files.Enquiries = v.GetString("files.enquiries")
	}
	if v.IsSet("files.countries") {
		cfg.Files.Countries = v.GetString("files.countries")
	}
	if v.IsSet("files.airports") {
		cfg.Files.Airports = v.GetString("files.airports")
	}
	if v.IsSet("files.seaports") {
		cfg.Files.Seaports = v.GetString("files.seaports")
	}
	if v.IsSet("files.sales") {
		cfg.Files.Sales = v.GetString("files.sales")
	}

	return cfg, nil
}
