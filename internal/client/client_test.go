package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rickgao/pair-factory/internal/chain"
	"github.com/rickgao/pair-factory/internal/errs"
	"github.com/rickgao/pair-factory/internal/factory"
	"github.com/rickgao/pair-factory/internal/kv"
	"github.com/rickgao/pair-factory/internal/model"
	"github.com/rickgao/pair-factory/internal/pair"
	"github.com/rickgao/pair-factory/internal/token"
)

// countingExecutor counts queries that reach the runtime.
type countingExecutor struct {
	*chain.Runtime
	queries atomic.Int64
}

func (e *countingExecutor) Query(ctx context.Context, contract string, msg []byte) ([]byte, error) {
	e.queries.Add(1)
	return e.Runtime.Query(ctx, contract, msg)
}

func newTestClient(t *testing.T, opts ...ClientOption) (*Client, *countingExecutor) {
	t.Helper()
	ctx := context.Background()

	rt := chain.New(kv.NewMemory())
	require.NoError(t, rt.StoreCode(1, token.New(nil)))
	require.NoError(t, rt.StoreCode(2, pair.New(nil)))
	require.NoError(t, rt.StoreCode(3, factory.New(factory.DefaultConfig(), nil)))

	msg, err := json.Marshal(factory.InstantiateMsg{TokenCodeID: 1, PairCodeID: 2})
	require.NoError(t, err)
	res, err := rt.Instantiate(ctx, "addr0000", 3, msg, "addr0000", "factory")
	require.NoError(t, err)

	exec := &countingExecutor{Runtime: rt}
	return NewClient(exec, res.ContractAddress, opts...), exec
}

func assetPair(i int) [2]model.AssetInfo {
	return [2]model.AssetInfo{model.NativeToken("uusd"), model.Token(fmt.Sprintf("asset%04d", i))}
}

func TestClient_Config(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	cfg, err := c.Config(ctx)
	require.NoError(t, err)
	require.Equal(t, factory.ConfigResponse{Owner: "addr0000", TokenCodeID: 1, PairCodeID: 2}, cfg)

	owner := "addr0001"
	_, err = c.UpdateConfig(ctx, "addr0000", factory.UpdateConfigMsg{Owner: &owner})
	require.NoError(t, err)

	_, err = c.UpdateConfig(ctx, "addr0000", factory.UpdateConfigMsg{Owner: &owner})
	require.True(t, errors.Is(err, errs.ErrUnauthorized), "error = %v", err)
}

func TestClient_PairIsCached(t *testing.T) {
	ctx := context.Background()
	c, exec := newTestClient(t)

	_, err := c.Pair(ctx, assetPair(0))
	require.True(t, errors.Is(err, errs.ErrNotFound), "error = %v", err)

	_, err = c.CreatePair(ctx, "addr0005", assetPair(0))
	require.NoError(t, err)

	// Misses are not cached, so the new pair is found.
	before := exec.queries.Load()
	info, err := c.Pair(ctx, assetPair(0))
	require.NoError(t, err)
	require.NotEmpty(t, info.ContractAddr)
	require.Equal(t, before+1, exec.queries.Load())

	// Reversed order hits the same cache entry.
	p := assetPair(0)
	again, err := c.Pair(ctx, [2]model.AssetInfo{p[1], p[0]})
	require.NoError(t, err)
	require.Equal(t, info, again)
	require.Equal(t, before+1, exec.queries.Load())
}

func TestClient_PairConcurrent(t *testing.T) {
	ctx := context.Background()
	c, exec := newTestClient(t)

	_, err := c.CreatePair(ctx, "addr0000", assetPair(1))
	require.NoError(t, err)
	before := exec.queries.Load()

	const n = 16
	var wg sync.WaitGroup
	results := make([]model.PairInfo, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			info, err := c.Pair(ctx, assetPair(1))
			if err == nil {
				results[i] = info
			}
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.Equal(t, results[0], r)
	}
	require.NotEmpty(t, results[0].ContractAddr)
	require.LessOrEqual(t, exec.queries.Load()-before, int64(n))
}

func TestClient_AllPairs(t *testing.T) {
	ctx := context.Background()
	c, exec := newTestClient(t, WithPageSize(4), WithCacheTTL(time.Minute, time.Minute))

	const n = 11
	for i := 0; i < n; i++ {
		_, err := c.CreatePair(ctx, "addr0000", assetPair(i))
		require.NoError(t, err)
	}

	all, err := c.AllPairs(ctx)
	require.NoError(t, err)
	require.Len(t, all, n)

	seen := map[string]bool{}
	for _, p := range all {
		require.False(t, seen[p.ContractAddr])
		seen[p.ContractAddr] = true
	}

	// Listing primes the cache.
	before := exec.queries.Load()
	_, err = c.Pair(ctx, assetPair(7))
	require.NoError(t, err)
	require.Equal(t, before, exec.queries.Load())

	pending, err := c.Pending(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestClient_CreatePairErrors(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	_, err := c.CreatePair(ctx, "addr0000", [2]model.AssetInfo{model.NativeToken("uusd"), model.NativeToken("uusd")})
	require.True(t, errors.Is(err, errs.ErrValidation), "error = %v", err)

	_, err = c.CreatePair(ctx, "addr0000", assetPair(2))
	require.NoError(t, err)
	_, err = c.CreatePair(ctx, "addr0000", assetPair(2))
	require.True(t, errors.Is(err, errs.ErrAlreadyExists), "error = %v", err)

	_, err = c.MigratePair(ctx, "addr0009", "contract0002", nil)
	require.True(t, errors.Is(err, errs.ErrUnauthorized), "error = %v", err)
}
