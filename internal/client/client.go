// Package client is a typed wrapper around a factory contract hosted by a
// chain.Runtime. Registry entries never change once committed, so Pair
// lookups are cached and concurrent misses for the same key are collapsed.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/rickgao/pair-factory/internal/address"
	"github.com/rickgao/pair-factory/internal/chain"
	"github.com/rickgao/pair-factory/internal/errs"
	"github.com/rickgao/pair-factory/internal/factory"
	"github.com/rickgao/pair-factory/internal/model"
	"github.com/rickgao/pair-factory/internal/pairkey"
	"github.com/rickgao/pair-factory/internal/state"
)

// Executor submits transactions and queries. *chain.Runtime implements it.
type Executor interface {
	Execute(ctx context.Context, sender, contract string, msg []byte) (*chain.Result, error)
	Query(ctx context.Context, contract string, msg []byte) ([]byte, error)
}

// Client talks to one factory contract.
type Client struct {
	exec    Executor
	factory string
	api     address.API
	logger  *slog.Logger

	pairs    *cache.Cache
	group    singleflight.Group
	pageSize uint32
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a client for the factory at factoryAddr.
func NewClient(exec Executor, factoryAddr string, opts ...ClientOption) *Client {
	c := &Client{
		exec:     exec,
		factory:  factoryAddr,
		api:      address.Default(),
		logger:   slog.Default(),
		pairs:    cache.New(5*time.Minute, 10*time.Minute),
		pageSize: state.MaxLimit,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithCacheTTL sets how long pair lookups are cached and how often expired
// entries are purged.
func WithCacheTTL(ttl, cleanupInterval time.Duration) ClientOption {
	return func(c *Client) {
		c.pairs = cache.New(ttl, cleanupInterval)
	}
}

// WithPageSize sets the page size AllPairs requests.
func WithPageSize(n uint32) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithAddressAPI sets the identity rules used to derive cache keys.
func WithAddressAPI(api address.API) ClientOption {
	return func(c *Client) {
		c.api = api
	}
}

// Factory returns the factory address.
func (c *Client) Factory() string {
	return c.factory
}

// Config returns the factory configuration.
func (c *Client) Config(ctx context.Context) (factory.ConfigResponse, error) {
	var resp factory.ConfigResponse
	if err := c.query(ctx, factory.QueryMsg{Config: &struct{}{}}, &resp); err != nil {
		return factory.ConfigResponse{}, err
	}
	return resp, nil
}

// Pair returns the registry entry for an unordered asset pair.
func (c *Client) Pair(ctx context.Context, assets [2]model.AssetInfo) (model.PairInfo, error) {
	key, err := pairkey.Derive(c.api, assets)
	if err != nil {
		return model.PairInfo{}, err
	}
	k := key.String()

	if v, ok := c.pairs.Get(k); ok {
		return v.(model.PairInfo), nil
	}

	v, err, shared := c.group.Do(k, func() (any, error) {
		var info model.PairInfo
		if err := c.query(ctx, factory.QueryMsg{Pair: &factory.PairQuery{AssetInfos: assets}}, &info); err != nil {
			return nil, err
		}
		c.pairs.SetDefault(k, info)
		return info, nil
	})
	if err != nil {
		return model.PairInfo{}, err
	}
	c.logger.Debug("pair lookup", "pair_key", k, "shared", shared)
	return v.(model.PairInfo), nil
}

// Pairs returns one page of the registry.
func (c *Client) Pairs(ctx context.Context, startAfter *[2]model.AssetInfo, limit *uint32) ([]model.PairInfo, error) {
	var resp factory.PairsResponse
	msg := factory.QueryMsg{Pairs: &factory.PairsQuery{StartAfter: startAfter, Limit: limit}}
	if err := c.query(ctx, msg, &resp); err != nil {
		return nil, err
	}
	c.remember(resp.Pairs)
	return resp.Pairs, nil
}

// AllPairs walks the registry page by page.
func (c *Client) AllPairs(ctx context.Context) ([]model.PairInfo, error) {
	var (
		all    []model.PairInfo
		cursor *[2]model.AssetInfo
	)
	limit := c.pageSize
	for {
		page, err := c.Pairs(ctx, cursor, &limit)
		if err != nil {
			return nil, fmt.Errorf("list pairs after %d: %w", len(all), err)
		}
		if len(page) == 0 {
			return all, nil
		}
		all = append(all, page...)
		last := page[len(page)-1].AssetInfos
		cursor = &last
	}
}

// Pending lists creations that were dispatched but not yet acknowledged.
func (c *Client) Pending(ctx context.Context) ([]state.PendingPair, error) {
	var resp factory.PendingResponse
	if err := c.query(ctx, factory.QueryMsg{Pending: &struct{}{}}, &resp); err != nil {
		return nil, err
	}
	return resp.Pending, nil
}

// CreatePair asks the factory to create a pair.
func (c *Client) CreatePair(ctx context.Context, sender string, assets [2]model.AssetInfo) (*chain.Result, error) {
	return c.execute(ctx, sender, factory.ExecuteMsg{CreatePair: &factory.CreatePairMsg{AssetInfos: assets}})
}

// UpdateConfig changes the factory configuration.
func (c *Client) UpdateConfig(ctx context.Context, sender string, msg factory.UpdateConfigMsg) (*chain.Result, error) {
	return c.execute(ctx, sender, factory.ExecuteMsg{UpdateConfig: &msg})
}

// MigratePair upgrades a pair contract through the factory.
func (c *Client) MigratePair(ctx context.Context, sender, contract string, codeID *uint64) (*chain.Result, error) {
	return c.execute(ctx, sender, factory.ExecuteMsg{MigratePair: &factory.MigratePairMsg{Contract: contract, CodeID: codeID}})
}

func (c *Client) remember(pairs []model.PairInfo) {
	for _, p := range pairs {
		key, err := pairkey.Derive(c.api, p.AssetInfos)
		if err != nil {
			continue
		}
		c.pairs.SetDefault(key.String(), p)
	}
}

func (c *Client) query(ctx context.Context, msg factory.QueryMsg, out any) error {
	req, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}
	data, err := c.exec.Query(ctx, c.factory, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: query response: %w", errs.ErrDecoding, err)
	}
	return nil
}

func (c *Client) execute(ctx context.Context, sender string, msg factory.ExecuteMsg) (*chain.Result, error) {
	req, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal execute: %w", err)
	}
	res, err := c.exec.Execute(ctx, sender, c.factory, req)
	if err != nil {
		var txErr *chain.TxError
		if errors.As(err, &txErr) {
			c.logger.Debug("factory call rolled back", "tx_id", txErr.TxID, "error_kind", errs.Kind(err))
		}
		return nil, err
	}
	return res, nil
}
