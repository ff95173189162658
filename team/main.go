// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gakkoucraft/team-service/shared/api"
	"github.com/gakkoucraft/team-service/shared/config"
	mongodbu "github.com/gakkoucraft/team-service/shared/mongodb"
	redisu "github.com/gakkoucraft/team-service/shared/redis"
	"github.com/gakkoucraft/team-service/shared/registry"
	proxysvc "github.com/gakkoucraft/team-service/shared/service"
	teamapi "github.com/gakkoucraft/team-service/team/api"
	"github.com/gakkoucraft/team-service/team/command"
	"github.com/gakkoucraft/team-service/team/ledger"
	"github.com/gakkoucraft/team-service/team/mojang"
	"github.com/gakkoucraft/team-service/team/service"
	"github.com/gakkoucraft/team-service/team/store"
	"github.com/gakkoucraft/team-service/team/sweeper"
)

func main() {
	// --- 1. Load Configuration ---
	cfg, err := config.LoadTeamServiceConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// --- 2. Connect to MongoDB ---
	mongoClient, err := mongodbu.NewClient(cfg.MongoDBConnStr, cfg.MongoDBDatabase)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err = mongoClient.Disconnect(context.Background()); err != nil {
			log.Fatalf("Failed to disconnect from MongoDB: %v", err)
		}
		log.Println("Disconnected from MongoDB.")
	}()

	// --- 3. Connect to Redis ---
	redisClient, err := redisu.NewRedisClusterClient(cfg.RedisAddrs, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("Failed to connect to Redis Cluster: %v", err)
	}
	defer func() {
		if err = redisClient.Close(); err != nil {
			log.Fatalf("Error closing Redis client: %v", err)
		}
		log.Println("Redis Client closed..")
	}()

	// --- 4. Initialize Data Stores ---
	playersCollection := mongoClient.Collection(cfg.MongoDBPlayersCollection)
	playerStore := store.NewPlayerStore(playersCollection)
	onlineStore := store.NewOnlinePlayersStore(redisClient, cfg.RedisOnlineTTL)

	var teamStorage store.TeamStorage
	switch cfg.TeamStoreBackend {
	case "redis":
		teamStorage = store.NewRedisTeamStore(redisClient)
	default:
		teamStorage = store.NewMemoryTeamStore()
	}
	log.Printf("Team storage backend: %s", cfg.TeamStoreBackend)

	// --- 5. Initialize External Services ---
	mojangService := mojang.NewMojangService(playerStore, cfg.UsernameFillerInterval)
	go mojangService.StartFillerJob()
	defer mojangService.StopFillerJob()

	proxyClient := proxysvc.NewProxyClient(cfg.ProxyServiceURL)

	// --- 6. Initialize Invite Ledger and Sweeper ---
	inviteLedger := ledger.New(cfg.InviteTTL)
	inviteSweeper := sweeper.NewInviteSweeper(inviteLedger, cfg.InviteSweepInterval)
	go inviteSweeper.Start()
	defer inviteSweeper.Stop()

	// --- 7. Initialize Business Logic Services ---
	teamService := service.NewTeamService(teamStorage, inviteLedger, onlineStore, proxyClient)

	// --- 8. Initialize Command Dispatcher and API Handlers ---
	dispatcher := command.NewDispatcher(teamService)
	teamAPIHandlers := teamapi.NewTeamAPIHandlers(teamService, dispatcher, onlineStore, playerStore)

	// --- 9. Initialize and Start Service Registrar ---
	registrar := registry.NewServiceRegistrar(redisClient, "team-service", &cfg.CommonConfig)
	go registrar.Start()
	defer registrar.Stop()

	// --- 10. Setup HTTP Server and Register Routes ---
	baseServer := api.NewBaseServer(cfg.ListenAddr, log.Default())
	teamAPIHandlers.RegisterRoutes(baseServer.Router)

	// --- 11. Start HTTP Server ---
	go func() {
		log.Printf("HTTP server starting on %s...", cfg.ListenAddr)
		if err := baseServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed to start: %v", err)
		}
	}()

	// --- 12. Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := baseServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("HTTP server graceful shutdown failed: %v", err)
	}
	log.Println("Server gracefully stopped.")
}
