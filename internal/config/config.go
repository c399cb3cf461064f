package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config aggregates every setting the backend reads from the environment.
type Config struct {
	Server ServerConfig
	Log    LogConfig
	Chat   ChatConfig
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		Log:    LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "info")},
		Chat:   chat,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LogConfig describes the zerolog setup.
type LogConfig struct {
	Level string
}

// ChatConfig describes the chat engine settings.
type ChatConfig struct {
	// GlobalRoomTitle names the always-open room created at startup.
	GlobalRoomTitle string
	// SnapshotBuffer is the per-subscription channel capacity. Snapshots
	// beyond it are coalesced, never queued.
	SnapshotBuffer int
}

func loadChatConfig() (ChatConfig, error) {
	buffer := 1
	if override, err := parseOptionalIntEnv("CHAT_SNAPSHOT_BUFFER"); err != nil {
		return ChatConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return ChatConfig{}, fmt.Errorf("CHAT_SNAPSHOT_BUFFER must be at least 1, got %d", *override)
		}
		buffer = *override
	}

	return ChatConfig{
		GlobalRoomTitle: getEnvOrDefault("GLOBAL_ROOM_TITLE", "Global Kitchen"),
		SnapshotBuffer:  buffer,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
