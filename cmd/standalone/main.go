package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/EkkoG/rtabby-web-api2/core"
	"github.com/EkkoG/rtabby-web-api2/core/providers"
	"github.com/EkkoG/rtabby-web-api2/storage"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	GitHub *providers.GitHubConfig `yaml:"github,omitempty"`

	DB   DBConfig `yaml:"db"`
	Port string   `yaml:"port"`
}

type DBConfig struct {
	Type       string `yaml:"type"`
	SQLitePath string `yaml:"sqlite_path"`
}

// secretsEnv carries the OAuth app credentials, which stay out of the
// config file. Env values override whatever the file holds.
type secretsEnv struct {
	GitHubClientID     string `env:"GITHUB_APP_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_APP_CLIENT_SECRET"`
}

func main() {
	_ = godotenv.Load()

	configPath := getEnv("CONFIG_PATH", "config.yaml")
	appConfig := loadConfigFromYAML(configPath)

	github := initGitHubConfig(appConfig)
	repo := initRepository(appConfig.DB)

	provider := providers.NewGitHubProvider(github)
	authService := core.NewAuthService(repo, provider)
	server := core.NewServer(authService, provider)

	http.HandleFunc("/login", server.HandleLogin)
	http.HandleFunc("/login/github/callback", server.HandleCallback)
	http.HandleFunc("/health", server.HandleHealth)

	port := appConfig.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting server on port %s", port)

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func loadConfigFromYAML(path string) *AppConfig {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read config file %s: %v", path, err)
	}

	var config AppConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		log.Fatalf("Failed to parse config file: %v", err)
	}

	return &config
}

func initGitHubConfig(cfg *AppConfig) *providers.GitHubConfig {
	github := cfg.GitHub
	if github == nil {
		github = &providers.GitHubConfig{}
	}

	var secrets secretsEnv
	if err := env.Parse(&secrets); err != nil {
		log.Fatalf("Failed to parse environment: %v", err)
	}

	if secrets.GitHubClientID != "" {
		github.ClientID = secrets.GitHubClientID
	}
	if secrets.GitHubClientSecret != "" {
		github.ClientSecret = secrets.GitHubClientSecret
	}

	if github.ClientID == "" {
		log.Fatal("Missing GITHUB_APP_CLIENT_ID")
	}
	if github.ClientSecret == "" {
		log.Fatal("Missing GITHUB_APP_CLIENT_SECRET")
	}

	return github
}

func initRepository(dbConfig DBConfig) core.Repository {
	switch strings.ToLower(dbConfig.Type) {
	case "sqlite", "":
		path := dbConfig.SQLitePath
		if path == "" {
			path = "users.db"
		}
		repo, err := storage.NewSQLiteRepository(path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite repository: %v", err)
		}
		log.Printf("Using SQLite database: %s", path)
		return repo

	case "mock":
		log.Println("Using mock repository (in-memory)")
		return storage.NewMockRepository()

	default:
		log.Fatalf("Unsupported DB type: %s (supported: sqlite, mock)", dbConfig.Type)
		return nil
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
