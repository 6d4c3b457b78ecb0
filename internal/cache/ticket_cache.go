package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shubilet/expedition-service/internal/config"
	"github.com/shubilet/expedition-service/internal/models"
)

// TicketCache keeps issued ticket details in Redis. Tickets never change once
// issued, so PNR entries only expire by TTL. Customer lists are dropped on every booking.
type TicketCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewTicketCache connects to Redis, or returns nil when no address is configured
func NewTicketCache(cfg config.RedisConfig) *TicketCache {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	return NewTicketCacheWithClient(client, cfg.TicketTTL)
}

// NewTicketCacheWithClient wraps an existing client
func NewTicketCacheWithClient(client redis.UniversalClient, ttl time.Duration) *TicketCache {
	return &TicketCache{client: client, ttl: ttl}
}

// Ping checks the connection
func (c *TicketCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (c *TicketCache) Close() error {
	return c.client.Close()
}

// GetTicket returns cached details, or nil on a miss
func (c *TicketCache) GetTicket(ctx context.Context, pnr string) (*models.TicketDetails, error) {
	var details models.TicketDetails
	found, err := c.getJSON(ctx, ticketKey(pnr), &details)
	if err != nil || !found {
		return nil, err
	}
	return &details, nil
}

// SetTicket caches ticket details under their PNR
func (c *TicketCache) SetTicket(ctx context.Context, details *models.TicketDetails) error {
	return c.setJSON(ctx, ticketKey(details.PNR), details)
}

// GetCustomerTickets returns the cached ticket list of a customer, or nil on a miss
func (c *TicketCache) GetCustomerTickets(ctx context.Context, customerID int64) ([]models.TicketDetails, error) {
	var tickets []models.TicketDetails
	found, err := c.getJSON(ctx, customerTicketsKey(customerID), &tickets)
	if err != nil || !found {
		return nil, err
	}
	if tickets == nil {
		tickets = []models.TicketDetails{}
	}
	return tickets, nil
}

// SetCustomerTickets caches the ticket list of a customer
func (c *TicketCache) SetCustomerTickets(ctx context.Context, customerID int64, tickets []models.TicketDetails) error {
	return c.setJSON(ctx, customerTicketsKey(customerID), tickets)
}

// InvalidateCustomerTickets drops the cached ticket list of a customer
func (c *TicketCache) InvalidateCustomerTickets(ctx context.Context, customerID int64) error {
	return c.client.Del(ctx, customerTicketsKey(customerID)).Err()
}

func (c *TicketCache) getJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s from cache: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return true, nil
}

func (c *TicketCache) setJSON(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.ttl).Err()
}

func ticketKey(pnr string) string {
	return "cache:ticket:" + pnr
}

func customerTicketsKey(customerID int64) string {
	return fmt.Sprintf("cache:customer:%d:tickets", customerID)
}
