// shared/config/config.go
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// CommonConfig holds configuration fields that are shared across multiple services.
type CommonConfig struct {
	RedisAddrs              []string      // Redis server addresses (e.g., "redis-cluster:6379")
	RedisPassword           string        // Redis password for authentication
	HeartbeatInterval       time.Duration // How often to send a heartbeat to registry (e.g., 5s)
	HeartbeatTTL            time.Duration // How long an instance is considered alive without a heartbeat (e.g., 15s)
	RegistryCleanupInterval time.Duration // How often the registry actively cleans stale entries (e.g., 30s)
	ServiceIP               string        // The IP address this service advertises for registration (Kubernetes Pod IP)
	ServicePort             int           // The port this service listens on, used for registration
}

// TeamServiceConfig holds configuration specific to the team-service.
type TeamServiceConfig struct {
	CommonConfig                          // Embed CommonConfig
	ListenAddr               string       // Address for the HTTP server (e.g., ":8083")
	MongoDBConnStr           string       // MongoDB connection string
	MongoDBDatabase          string       // MongoDB database name (e.g., "minestom")
	MongoDBPlayersCollection string       // MongoDB collection for player profiles (e.g., "players")
	ProxyServiceURL          string       // URL of the proxy message gateway (e.g., "http://gate-proxy:8080")
	RedisOnlineTTL           time.Duration // TTL for 'online:<username>' keys in Redis (e.g., 15s)
	InviteTTL                time.Duration // Validity window for pending team invites (e.g., 15m)
	InviteSweepInterval      time.Duration // How often expired invites are swept from the ledger (e.g., 1m)
	TeamStoreBackend         string       // "memory" or "redis" team storage backend
	UsernameFillerInterval   time.Duration // Interval for the background username filler job
}

// LoadCommonConfig loads common configuration from environment variables.
func LoadCommonConfig() (CommonConfig, error) {
	cfg := CommonConfig{}
	var err error

	// Redis Addresses
	redisAddrsStr := os.Getenv("REDIS_ADDRS")
	if redisAddrsStr == "" {
		cfg.RedisAddrs = []string{"redis-cluster-headless.minecraft-cluster.svc.cluster.local:6379"} // Default for K8s Service
	} else {
		for _, addr := range strings.Split(redisAddrsStr, ",") {
			cfg.RedisAddrs = append(cfg.RedisAddrs, strings.TrimSpace(addr))
		}
	}

	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	cfg.HeartbeatInterval, err = getDuration("SERVICE_HEARTBEAT_INTERVAL", 5*time.Second)
	if err != nil {
		return cfg, err
	}
	cfg.HeartbeatTTL, err = getDuration("SERVICE_HEARTBEAT_TTL", 15*time.Second)
	if err != nil {
		return cfg, err
	}
	cfg.RegistryCleanupInterval, err = getDuration("SERVICE_REGISTRY_CLEANUP_INTERVAL", 30*time.Second)
	if err != nil {
		return cfg, err
	}

	// Service IP (for registration, from Kubernetes Pod IP)
	cfg.ServiceIP = os.Getenv("POD_IP") // Injected by Kubernetes
	if cfg.ServiceIP == "" {
		// Fallback for local development outside K8s or if not injected
		cfg.ServiceIP = "0.0.0.0"
		fmt.Printf("WARNING: POD_IP not set, defaulting ServiceIP to %s\n", cfg.ServiceIP)
	}

	return cfg, nil
}

// LoadTeamServiceConfig loads configuration for the team-service.
func LoadTeamServiceConfig() (*TeamServiceConfig, error) {
	common, err := LoadCommonConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load common config for team-service: %w", err)
	}

	cfg := &TeamServiceConfig{
		CommonConfig:             common,
		ListenAddr:               os.Getenv("TEAM_SERVICE_LISTEN_ADDR"),
		MongoDBConnStr:           os.Getenv("MONGODB_CONN_STR"),
		MongoDBDatabase:          os.Getenv("MONGODB_DATABASE"),
		MongoDBPlayersCollection: os.Getenv("MONGODB_PLAYERS_COLLECTION"),
		ProxyServiceURL:          os.Getenv("PROXY_SERVICE_URL"),
		TeamStoreBackend:         os.Getenv("TEAM_STORE_BACKEND"),
	}

	// Apply defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8083"
	}
	if cfg.MongoDBConnStr == "" {
		cfg.MongoDBConnStr = "mongodb://mongodb-service:27017" // Default for K8s Service
	}
	if cfg.MongoDBDatabase == "" {
		cfg.MongoDBDatabase = "minestom"
	}
	if cfg.MongoDBPlayersCollection == "" {
		cfg.MongoDBPlayersCollection = "players"
	}
	if cfg.ProxyServiceURL == "" {
		cfg.ProxyServiceURL = "http://gate-proxy:8080" // Default for K8s internal DNS
	}
	if cfg.TeamStoreBackend == "" {
		cfg.TeamStoreBackend = "memory"
	}
	if cfg.TeamStoreBackend != "memory" && cfg.TeamStoreBackend != "redis" {
		return nil, fmt.Errorf("TEAM_STORE_BACKEND must be 'memory' or 'redis' (got %q)", cfg.TeamStoreBackend)
	}

	// Durations
	cfg.RedisOnlineTTL, err = getDuration("REDIS_ONLINE_TTL", 15*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.InviteTTL, err = getDuration("TEAM_INVITE_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.InviteSweepInterval, err = getDuration("TEAM_INVITE_SWEEP_INTERVAL", 1*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.UsernameFillerInterval, err = getDuration("USERNAME_FILLER_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	// Extract ServicePort from ListenAddr
	cfg.ServicePort, err = extractPort(cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to extract port from TEAM_SERVICE_LISTEN_ADDR '%s': %w", cfg.ListenAddr, err)
	}

	return cfg, nil
}

// Helper function to parse duration from environment variable
func getDuration(envKey string, defaultVal time.Duration) (time.Duration, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format for %s: %w", envKey, err)
	}
	return d, nil
}

// extractPort extracts the numeric port from a listen address (e.g., ":8083" -> 8083, "0.0.0.0:8083" -> 8083)
func extractPort(listenAddr string) (int, error) {
	_, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		// If SplitHostPort fails, check if ListenAddr is just a port (e.g., ":8083")
		if strings.HasPrefix(listenAddr, ":") {
			portStr = strings.TrimPrefix(listenAddr, ":")
		} else {
			return 0, fmt.Errorf("invalid ListenAddr format for port extraction: %w", err)
		}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number '%s': %w", portStr, err)
	}
	return port, nil
}
