// shared/registry/registrar.go
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gakkoucraft/team-service/shared/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ServiceRegistrar handles the self-registration and heartbeating of a service instance.
type ServiceRegistrar struct {
	redisClient *redis.ClusterClient
	serviceType string
	cfg         *config.CommonConfig
	serviceID   string
	stopChan    chan struct{}
	doneChan    chan struct{}
}

// NewServiceRegistrar creates a new ServiceRegistrar for the given service type.
func NewServiceRegistrar(redisClient *redis.ClusterClient, serviceType string, cfg *config.CommonConfig) *ServiceRegistrar {
	// Generate a unique ServiceID for this instance
	serviceID := fmt.Sprintf("%s-%s", serviceType, uuid.New().String())

	return &ServiceRegistrar{
		redisClient: redisClient,
		serviceType: serviceType,
		cfg:         cfg,
		serviceID:   serviceID,
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
}

// ServiceID returns the unique instance ID generated for this registrar.
func (sr *ServiceRegistrar) ServiceID() string {
	return sr.serviceID
}

// Start begins the service registration and heartbeating process in a goroutine.
func (sr *ServiceRegistrar) Start() {
	log.Printf("Starting service registrar for %s (ID: %s) at %s:%d",
		sr.serviceType, sr.serviceID, sr.cfg.ServiceIP, sr.cfg.ServicePort)

	go sr.run()
}

// Stop signals the registrar to stop its operations and waits for it to finish.
func (sr *ServiceRegistrar) Stop() {
	log.Printf("Signaling service registrar for %s (ID: %s) to stop...", sr.serviceType, sr.serviceID)
	close(sr.stopChan)
	<-sr.doneChan
	log.Printf("Service registrar for %s (ID: %s) stopped successfully.", sr.serviceType, sr.serviceID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hashKey := fmt.Sprintf("%s%s", RedisRegistryHashPrefix, sr.serviceType)
	if _, err := sr.redisClient.HDel(ctx, hashKey, sr.serviceID).Result(); err != nil {
		log.Printf("ERROR: Failed to remove service %s (ID: %s) from Redis registry on shutdown: %v",
			sr.serviceType, sr.serviceID, err)
	} else {
		log.Printf("INFO: Service %s (ID: %s) removed from Redis registry on shutdown.",
			sr.serviceType, sr.serviceID)
	}
}

// run is the main loop for the registrar's background goroutine.
func (sr *ServiceRegistrar) run() {
	defer close(sr.doneChan)

	ticker := time.NewTicker(sr.cfg.HeartbeatInterval)
	defer ticker.Stop()

	sr.registerService()

	var cleanupTicker *time.Ticker
	var cleanupC <-chan time.Time
	if sr.cfg.RegistryCleanupInterval > 0 {
		cleanupTicker = time.NewTicker(sr.cfg.RegistryCleanupInterval)
		defer cleanupTicker.Stop()
		cleanupC = cleanupTicker.C
	}

	for {
		select {
		case <-ticker.C:
			sr.registerService()
		case <-cleanupC:
			sr.cleanupStaleEntries()
		case <-sr.stopChan:
			return
		}
	}
}

// registerService performs the actual registration/heartbeat in Redis.
func (sr *ServiceRegistrar) registerService() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	serviceInfo := ServiceInfo{
		ServiceID:   sr.serviceID,
		ServiceType: sr.serviceType,
		IP:          sr.cfg.ServiceIP,
		Port:        sr.cfg.ServicePort,
		LastSeen:    time.Now().Unix(),
		Metadata:    map[string]string{"version": "1.0"},
	}

	infoJSON, err := json.Marshal(serviceInfo)
	if err != nil {
		log.Printf("ERROR: Failed to marshal ServiceInfo for %s (ID: %s): %v",
			sr.serviceType, sr.serviceID, err)
		return
	}

	hashKey := fmt.Sprintf("%s%s", RedisRegistryHashPrefix, sr.serviceType)
	if _, err := sr.redisClient.HSet(ctx, hashKey, sr.serviceID, infoJSON).Result(); err != nil {
		log.Printf("ERROR: Failed to register/heartbeat service %s (ID: %s) to Redis: %v",
			sr.serviceType, sr.serviceID, err)
	}
}

// cleanupStaleEntries removes registry entries whose last heartbeat is older
// than the heartbeat TTL. Any live instance may perform the cleanup; HDel on
// an already-removed field is a no-op.
func (sr *ServiceRegistrar) cleanupStaleEntries() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hashKey := fmt.Sprintf("%s%s", RedisRegistryHashPrefix, sr.serviceType)
	results, err := sr.redisClient.HGetAll(ctx, hashKey).Result()
	if err != nil {
		log.Printf("ERROR: Registry cleanup failed to read %s: %v", hashKey, err)
		return
	}

	now := time.Now()
	for instanceID, infoJSON := range results {
		var info ServiceInfo
		if err := json.Unmarshal([]byte(infoJSON), &info); err != nil {
			log.Printf("WARN: Registry cleanup: removing malformed entry %s: %v", instanceID, err)
			sr.redisClient.HDel(ctx, hashKey, instanceID)
			continue
		}
		if now.Sub(time.Unix(info.LastSeen, 0)) > sr.cfg.HeartbeatTTL {
			if _, err := sr.redisClient.HDel(ctx, hashKey, instanceID).Result(); err != nil {
				log.Printf("WARN: Registry cleanup: failed to remove stale entry %s: %v", instanceID, err)
			} else {
				log.Printf("INFO: Registry cleanup: removed stale %s instance %s.", sr.serviceType, instanceID)
			}
		}
	}
}
