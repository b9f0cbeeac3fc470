package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ExecutorLive = "live"
	ExecutorMock = "mock"
)

type Config struct {
	Port             int
	DBPath           string
	AcademyKey       string // AES-256 key for credentials at rest + session cookies
	JWTSecret        string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	ExecutorMode     string
	SupportedDrivers []string
}

func Load() (*Config, error) {
	// Try loading .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	key := os.Getenv("ACADEMY_KEY")
	if len(key) < 32 {
		fmt.Println("ACADEMY_KEY not found or too short. Generating a new secure key...")
		newKey, err := generateRandomKey(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate key: %w", err)
		}

		if err := saveKeyToEnv(newKey); err != nil {
			fmt.Printf("Warning: Failed to save generated key to .env: %v\n", err)
		} else {
			fmt.Println("New ACADEMY_KEY saved to .env file.")
		}
		key = newKey
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	mode := os.Getenv("EXECUTOR_MODE")
	switch mode {
	case "":
		mode = ExecutorLive
	case ExecutorLive, ExecutorMock:
	default:
		return nil, fmt.Errorf("unknown EXECUTOR_MODE %q (want live or mock)", mode)
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "academydb.db"
	}

	driversStr := os.Getenv("SUPPORTED_DRIVERS")
	var drivers []string
	if driversStr != "" {
		drivers = strings.Split(driversStr, ",")
	} else {
		drivers = []string{"mysql", "postgres", "mssql", "sqlite", "odbc"}
	}

	return &Config{
		Port:             getEnvAsInt("PORT", 8080),
		DBPath:           dbPath,
		AcademyKey:       key,
		JWTSecret:        secret,
		AccessTokenTTL:   time.Duration(getEnvAsInt("ACCESS_TOKEN_TTL_MIN", 15)) * time.Minute,
		RefreshTokenTTL:  time.Duration(getEnvAsInt("REFRESH_TOKEN_TTL_DAYS", 7)) * 24 * time.Hour,
		ExecutorMode:     mode,
		SupportedDrivers: drivers,
	}, nil
}

func getEnvAsInt(name string, defaultVal int) int {
	valStr := os.Getenv(name)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

func generateRandomKey(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	// Base64 so the key is printable in the .env file
	return base64.StdEncoding.EncodeToString(b), nil
}

func saveKeyToEnv(key string) error {
	filename := ".env"
	content, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return os.WriteFile(filename, []byte(fmt.Sprintf("ACADEMY_KEY=%s\n", key)), 0644)
	} else if err != nil {
		return err
	}

	lines := strings.Split(string(content), "\n")
	found := false
	newLines := make([]string, 0, len(lines)+1)

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "ACADEMY_KEY=") {
			newLines = append(newLines, fmt.Sprintf("ACADEMY_KEY=%s", key))
			found = true
		} else if trimmed != "" {
			newLines = append(newLines, trimmed)
		}
	}

	if !found {
		newLines = append(newLines, fmt.Sprintf("ACADEMY_KEY=%s", key))
	}

	return os.WriteFile(filename, []byte(strings.Join(newLines, "\n")+"\n"), 0644)
}
