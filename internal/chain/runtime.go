package chain

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/pair-factory/internal/address"
	"github.com/rickgao/pair-factory/internal/errs"
	"github.com/rickgao/pair-factory/internal/host"
	"github.com/rickgao/pair-factory/internal/kv"
)

// MaxCallDepth bounds how deeply sub-messages and queries may nest.
const MaxCallDepth = 10

// Result describes a committed transaction.
type Result struct {
	TxID            string       `json:"tx_id"`
	Height          uint64       `json:"height"`
	Events          []host.Event `json:"events"`
	Data            []byte       `json:"data,omitempty"`
	ContractAddress string       `json:"contract_address,omitempty"` // Set by Instantiate
}

// Runtime hosts contracts over a kv.Backend.
type Runtime struct {
	mu      sync.Mutex
	backend kv.Backend
	api     address.API
	logger  *slog.Logger
	now     func() time.Time
	codes   map[uint64]host.Contract
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithClock sets the source of block times.
func WithClock(now func() time.Time) Option {
	return func(r *Runtime) {
		r.now = now
	}
}

// WithAddressAPI replaces the default identity rules.
func WithAddressAPI(api address.API) Option {
	return func(r *Runtime) {
		r.api = api
	}
}

// New creates a Runtime over backend.
func New(backend kv.Backend, opts ...Option) *Runtime {
	r := &Runtime{
		backend: backend,
		api:     address.Default(),
		logger:  slog.Default(),
		now:     time.Now,
		codes:   make(map[uint64]host.Contract),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// API returns the identity rules contracts run with.
func (r *Runtime) API() address.API {
	return r.api
}

// StoreCode registers a contract template under id. Templates are not
// persisted; callers register them on every start.
func (r *Runtime) StoreCode(id uint64, c host.Contract) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id == 0 {
		return fmt.Errorf("%w: code id 0", errs.ErrValidation)
	}
	if _, ok := r.codes[id]; ok {
		return fmt.Errorf("%w: code %d", errs.ErrAlreadyExists, id)
	}
	r.codes[id] = c
	return nil
}

// Instantiate creates a contract from code id on behalf of sender.
func (r *Runtime) Instantiate(ctx context.Context, sender string, codeID uint64, msg []byte, admin, label string) (*Result, error) {
	res := &Result{}
	err := r.transact(ctx, "instantiate", sender, res, func(t *tx) error {
		out, err := t.dispatch(ctx, t.root, 0, sender, host.Msg{Instantiate: &host.InstantiateMsg{
			CodeID: codeID,
			Msg:    msg,
			Admin:  admin,
			Label:  label,
		}})
		if err != nil {
			return err
		}
		ack, err := host.DecodeInstantiateResponse(out.Data)
		if err != nil {
			return err
		}
		res.Events, res.Data, res.ContractAddress = out.Events, ack.Data, ack.ContractAddress
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Execute calls contract's Execute entry point on behalf of sender.
func (r *Runtime) Execute(ctx context.Context, sender, contract string, msg []byte) (*Result, error) {
	res := &Result{}
	err := r.transact(ctx, "execute", sender, res, func(t *tx) error {
		out, err := t.dispatch(ctx, t.root, 0, sender, host.Msg{Execute: &host.ExecuteMsg{
			Contract: contract,
			Msg:      msg,
		}})
		if err != nil {
			return err
		}
		res.Events, res.Data = out.Events, out.Data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Migrate moves contract to newCodeID. Only the contract's admin may do so.
func (r *Runtime) Migrate(ctx context.Context, sender, contract string, newCodeID uint64, msg []byte) (*Result, error) {
	res := &Result{}
	err := r.transact(ctx, "migrate", sender, res, func(t *tx) error {
		out, err := t.dispatch(ctx, t.root, 0, sender, host.Msg{Migrate: &host.MigrateMsg{
			Contract:  contract,
			NewCodeID: newCodeID,
			Msg:       msg,
		}})
		if err != nil {
			return err
		}
		res.Events, res.Data = out.Events, out.Data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Query runs a read-only query against committed state.
func (r *Runtime) Query(ctx context.Context, contract string, msg []byte) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.newTx(ctx, 0)
	defer t.root.Discard()
	return t.query(ctx, t.root, 0, contract, msg)
}

// Contract returns the metadata of an instantiated contract.
func (r *Runtime) Contract(ctx context.Context, addr string) (ContractMeta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return loadMeta(ctx, r.backend, addr)
}

// Lookup returns the address of the contract instantiated with label.
func (r *Runtime) Lookup(ctx context.Context, label string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.backend.Get(ctx, labelKey(label))
	if err != nil {
		return "", fmt.Errorf("lookup label %q: %w", label, err)
	}
	if data == nil {
		return "", fmt.Errorf("%w: no contract labelled %q", errs.ErrNotFound, label)
	}
	return string(data), nil
}

// Height returns the height of the last committed transaction.
func (r *Runtime) Height(ctx context.Context) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return readCounter(ctx, r.backend, heightKey)
}

// transact runs fn as one transaction and commits its root frame on success.
func (r *Runtime) transact(ctx context.Context, kind, sender string, res *Result, fn func(t *tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	height, err := readCounter(ctx, r.backend, heightKey)
	if err != nil {
		return err
	}
	t := r.newTx(ctx, height+1)
	logger := r.logger.With("tx_id", t.id, "height", t.block.Height, "kind", kind, "sender", sender)

	if err := fn(t); err != nil {
		t.root.Discard()
		logger.Warn("transaction failed", "error", err, "error_kind", errs.Kind(err))
		return &TxError{TxID: t.id, Err: err}
	}

	t.root.Set(heightKey, binary.BigEndian.AppendUint64(nil, t.block.Height))
	if err := t.root.Flush(ctx); err != nil {
		logger.Error("commit failed", "error", err)
		return &TxError{TxID: t.id, Err: fmt.Errorf("commit: %w", err)}
	}

	logger.Debug("transaction committed", "events", len(res.Events))
	res.TxID, res.Height = t.id, t.block.Height
	return nil
}

func (r *Runtime) newTx(_ context.Context, height uint64) *tx {
	return &tx{
		r:     r,
		id:    uuid.NewString(),
		root:  kv.NewCache(r.backend),
		block: host.BlockInfo{Height: height, Time: r.now().UTC()},
	}
}
