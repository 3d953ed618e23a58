package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/rickgao/pair-factory/internal/errs"
	"github.com/rickgao/pair-factory/internal/host"
	"github.com/rickgao/pair-factory/internal/kv"
)

// TxError is returned for a transaction that was rolled back.
type TxError struct {
	TxID string
	Err  error
}

func (e *TxError) Error() string {
	return fmt.Sprintf("tx %s: %v", e.TxID, e.Err)
}

func (e *TxError) Unwrap() error {
	return e.Err
}

// errCallDepth is returned when sub-messages or queries nest too deeply.
var errCallDepth = errors.New("call depth exceeded")

// tx is one top-level call in progress.
type tx struct {
	r     *Runtime
	id    string
	root  *kv.Cache
	block host.BlockInfo
}

func (t *tx) env(addr string) host.Env {
	return host.Env{Block: t.block, Contract: host.ContractInfo{Address: addr}}
}

func (t *tx) deps(frame *kv.Cache, depth int, addr string) host.Deps {
	return host.Deps{
		Storage: kv.Prefix(frame, storagePrefix(addr)),
		API:     t.r.api,
		Querier: &querier{t: t, frame: frame, depth: depth},
		Logger:  t.r.logger.With("tx_id", t.id, "contract", addr),
	}
}

func (t *tx) code(id uint64) (host.Contract, error) {
	c, ok := t.r.codes[id]
	if !ok {
		return nil, fmt.Errorf("%w: code %d", errs.ErrNotFound, id)
	}
	return c, nil
}

// dispatch runs msg in a child frame of parent. The frame is merged into
// parent only if msg and everything it triggers succeed.
func (t *tx) dispatch(ctx context.Context, parent *kv.Cache, depth int, sender string, msg host.Msg) (*host.SubMsgResponse, error) {
	if depth > MaxCallDepth {
		return nil, fmt.Errorf("%w: %d", errCallDepth, depth)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frame := kv.NewCache(parent)
	var (
		out *host.SubMsgResponse
		err error
	)
	switch {
	case msg.Instantiate != nil:
		out, err = t.instantiate(ctx, frame, depth, sender, *msg.Instantiate)
	case msg.Execute != nil:
		out, err = t.execute(ctx, frame, depth, sender, *msg.Execute)
	case msg.Migrate != nil:
		out, err = t.migrate(ctx, frame, depth, sender, *msg.Migrate)
	default:
		err = fmt.Errorf("%w: empty message", errs.ErrValidation)
	}
	if err != nil {
		frame.Discard()
		return nil, err
	}
	if err := frame.Flush(ctx); err != nil {
		return nil, fmt.Errorf("flush frame: %w", err)
	}
	return out, nil
}

func (t *tx) instantiate(ctx context.Context, frame *kv.Cache, depth int, sender string, msg host.InstantiateMsg) (*host.SubMsgResponse, error) {
	contract, err := t.code(msg.CodeID)
	if err != nil {
		return nil, err
	}
	if msg.Admin != "" {
		if err := t.r.api.Validate(msg.Admin); err != nil {
			return nil, fmt.Errorf("admin: %w", err)
		}
	}
	if msg.Label != "" {
		existing, err := frame.Get(ctx, labelKey(msg.Label))
		if err != nil {
			return nil, fmt.Errorf("load label: %w", err)
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: label %q is taken by %s", errs.ErrAlreadyExists, msg.Label, existing)
		}
	}

	seq, err := incr(ctx, frame, contractSeqKey)
	if err != nil {
		return nil, err
	}
	addr := fmt.Sprintf("contract%04d", seq)

	meta := ContractMeta{Address: addr, CodeID: msg.CodeID, Creator: sender, Admin: msg.Admin, Label: msg.Label}
	if err := saveMeta(frame, meta); err != nil {
		return nil, err
	}
	if msg.Label != "" {
		frame.Set(labelKey(msg.Label), []byte(addr))
	}

	resp, err := contract.Instantiate(ctx, t.deps(frame, depth, addr), t.env(addr), host.MessageInfo{Sender: sender}, msg.Msg)
	if err != nil {
		return nil, fmt.Errorf("instantiate %s (code %d): %w", addr, msg.CodeID, err)
	}

	events, data, err := t.handle(ctx, frame, depth, addr, "instantiate", resp)
	if err != nil {
		return nil, err
	}
	return &host.SubMsgResponse{
		Events: events,
		Data:   host.EncodeInstantiateResponse(host.InstantiateResponse{ContractAddress: addr, Data: data}),
	}, nil
}

func (t *tx) execute(ctx context.Context, frame *kv.Cache, depth int, sender string, msg host.ExecuteMsg) (*host.SubMsgResponse, error) {
	meta, err := loadMeta(ctx, frame, msg.Contract)
	if err != nil {
		return nil, err
	}
	contract, err := t.code(meta.CodeID)
	if err != nil {
		return nil, err
	}

	resp, err := contract.Execute(ctx, t.deps(frame, depth, meta.Address), t.env(meta.Address), host.MessageInfo{Sender: sender}, msg.Msg)
	if err != nil {
		return nil, fmt.Errorf("execute %s: %w", meta.Address, err)
	}

	events, data, err := t.handle(ctx, frame, depth, meta.Address, "execute", resp)
	if err != nil {
		return nil, err
	}
	return &host.SubMsgResponse{Events: events, Data: data}, nil
}

func (t *tx) migrate(ctx context.Context, frame *kv.Cache, depth int, sender string, msg host.MigrateMsg) (*host.SubMsgResponse, error) {
	meta, err := loadMeta(ctx, frame, msg.Contract)
	if err != nil {
		return nil, err
	}
	if meta.Admin == "" || meta.Admin != sender {
		return nil, fmt.Errorf("%w: %s is not the admin of %s", errs.ErrUnauthorized, sender, meta.Address)
	}
	contract, err := t.code(msg.NewCodeID)
	if err != nil {
		return nil, err
	}

	meta.CodeID = msg.NewCodeID
	if err := saveMeta(frame, meta); err != nil {
		return nil, err
	}

	resp, err := contract.Migrate(ctx, t.deps(frame, depth, meta.Address), t.env(meta.Address), msg.Msg)
	if err != nil {
		return nil, fmt.Errorf("migrate %s to code %d: %w", meta.Address, msg.NewCodeID, err)
	}

	events, data, err := t.handle(ctx, frame, depth, meta.Address, "migrate", resp)
	if err != nil {
		return nil, err
	}
	return &host.SubMsgResponse{Events: events, Data: data}, nil
}

// handle records resp's event and runs its messages in order, delivering
// replies as each message's ReplyOn asks. Reply data replaces resp.Data.
func (t *tx) handle(ctx context.Context, frame *kv.Cache, depth int, addr, typ string, resp *host.Response) ([]host.Event, []byte, error) {
	if resp == nil {
		resp = host.NewResponse()
	}
	events := []host.Event{{Type: typ, Contract: addr, Attributes: resp.Attributes}}
	data := resp.Data

	for _, sub := range resp.Messages {
		out, err := t.dispatch(ctx, frame, depth+1, addr, sub.Msg)

		var reply host.Reply
		switch {
		case err != nil && errors.Is(err, errCallDepth):
			return nil, nil, err
		case err != nil:
			if !sub.ReplyOn.OnError() {
				return nil, nil, err
			}
			reply = host.Reply{ID: sub.ID, Result: host.SubMsgResult{Err: err.Error()}}
		default:
			events = append(events, out.Events...)
			if !sub.ReplyOn.OnSuccess() {
				continue
			}
			reply = host.Reply{ID: sub.ID, Result: host.SubMsgResult{Ok: out}}
		}

		replyEvents, replyData, err := t.reply(ctx, frame, depth+1, addr, reply)
		if err != nil {
			return nil, nil, err
		}
		events = append(events, replyEvents...)
		if replyData != nil {
			data = replyData
		}
	}
	return events, data, nil
}

// reply delivers r to the contract at addr in a child frame of parent.
func (t *tx) reply(ctx context.Context, parent *kv.Cache, depth int, addr string, r host.Reply) ([]host.Event, []byte, error) {
	meta, err := loadMeta(ctx, parent, addr)
	if err != nil {
		return nil, nil, err
	}
	contract, err := t.code(meta.CodeID)
	if err != nil {
		return nil, nil, err
	}

	frame := kv.NewCache(parent)
	resp, err := contract.Reply(ctx, t.deps(frame, depth, addr), t.env(addr), r)
	if err != nil {
		frame.Discard()
		return nil, nil, fmt.Errorf("reply %d to %s: %w", r.ID, addr, err)
	}
	events, data, err := t.handle(ctx, frame, depth, addr, "reply", resp)
	if err != nil {
		frame.Discard()
		return nil, nil, err
	}
	if err := frame.Flush(ctx); err != nil {
		return nil, nil, fmt.Errorf("flush frame: %w", err)
	}
	return events, data, nil
}

// query runs a read-only query. Writes the contract makes are dropped.
func (t *tx) query(ctx context.Context, parent *kv.Cache, depth int, addr string, msg []byte) ([]byte, error) {
	if depth > MaxCallDepth {
		return nil, fmt.Errorf("%w: %d", errCallDepth, depth)
	}
	meta, err := loadMeta(ctx, parent, addr)
	if err != nil {
		return nil, err
	}
	contract, err := t.code(meta.CodeID)
	if err != nil {
		return nil, err
	}

	scratch := kv.NewCache(parent)
	defer scratch.Discard()

	data, err := contract.Query(ctx, t.deps(scratch, depth, addr), t.env(addr), msg)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", addr, err)
	}
	return data, nil
}

// querier lets a contract query others against the frame it is running in.
type querier struct {
	t     *tx
	frame *kv.Cache
	depth int
}

func (q *querier) QueryWasmSmart(ctx context.Context, contract string, msg []byte) ([]byte, error) {
	return q.t.query(ctx, q.frame, q.depth+1, contract, msg)
}
