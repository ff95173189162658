// shared/service/proxyclient.go
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gakkoucraft/team-service/shared/api"
)

// ProxyServiceClient is a client for the proxy's message gateway. The proxy
// owns the actual player connections; this client only asks it to render and
// deliver chat text.
type ProxyServiceClient struct {
	apiClient *api.Client
}

// NewProxyClient creates a new proxy message gateway client.
// It takes the base URL of the proxy gateway as an argument.
func NewProxyClient(baseURL string) *ProxyServiceClient {
	return &ProxyServiceClient{
		apiClient: api.NewClient(baseURL, api.NewDefaultHTTPClient()),
	}
}

// --- Request DTOs for proxy gateway communication ---

// SendMessageRequest is the body for delivering a chat message to one player.
type SendMessageRequest struct {
	Player string `json:"player"`
	Text   string `json:"text"`
	Color  int    `json:"color"` // RGB text color
}

// BroadcastRequest is the body for delivering a chat message to every online player.
type BroadcastRequest struct {
	Text  string `json:"text"`
	Color int    `json:"color"`
}

// SendToPlayer asks the proxy to deliver a chat message to a single player.
// Returns api.ErrNotFound if the proxy does not know the player (offline).
func (c *ProxyServiceClient) SendToPlayer(ctx context.Context, player, text string, color int) error {
	req := SendMessageRequest{Player: player, Text: text, Color: color}
	err := c.apiClient.Post(ctx, "/messages/player", req, nil)
	if err != nil {
		var apiErr *api.HTTPError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: player %s", api.ErrNotFound, player)
		}
		return fmt.Errorf("failed to send message to player %s via proxy: %w", player, err)
	}
	return nil
}

// Broadcast asks the proxy to deliver a chat message to all online players.
func (c *ProxyServiceClient) Broadcast(ctx context.Context, text string, color int) error {
	req := BroadcastRequest{Text: text, Color: color}
	if err := c.apiClient.Post(ctx, "/messages/broadcast", req, nil); err != nil {
		return fmt.Errorf("failed to broadcast message via proxy: %w", err)
	}
	return nil
}
