package host

import (
	"context"
	"log/slog"
	"time"

	"github.com/rickgao/pair-factory/internal/address"
	"github.com/rickgao/pair-factory/internal/kv"
)

// Contract is the set of entry points the host invokes. Messages are JSON.
type Contract interface {
	Instantiate(ctx context.Context, deps Deps, env Env, info MessageInfo, msg []byte) (*Response, error)
	Execute(ctx context.Context, deps Deps, env Env, info MessageInfo, msg []byte) (*Response, error)
	Reply(ctx context.Context, deps Deps, env Env, reply Reply) (*Response, error)
	Query(ctx context.Context, deps Deps, env Env, msg []byte) ([]byte, error)
	Migrate(ctx context.Context, deps Deps, env Env, msg []byte) (*Response, error)
}

// Querier performs read-only calls into other contracts.
type Querier interface {
	QueryWasmSmart(ctx context.Context, contract string, msg []byte) ([]byte, error)
}

// Deps is what an entry point may touch.
type Deps struct {
	Storage kv.ReadWriter // The contract's own namespace
	API     address.API
	Querier Querier
	Logger  *slog.Logger
}

// BlockInfo describes the block an invocation runs in.
type BlockInfo struct {
	Height uint64
	Time   time.Time
}

// ContractInfo identifies the contract being invoked.
type ContractInfo struct {
	Address string
}

// Env is the invocation environment.
type Env struct {
	Block    BlockInfo
	Contract ContractInfo
}

// MessageInfo carries the caller's identity.
type MessageInfo struct {
	Sender string
}

// Attribute is a single key/value event attribute.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Attr is shorthand for building an Attribute.
func Attr(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Response is returned by state-changing entry points.
type Response struct {
	Messages   []SubMsg
	Attributes []Attribute
	Data       []byte
}

// NewResponse returns an empty response.
func NewResponse() *Response {
	return &Response{}
}

// AddAttribute appends an event attribute.
func (r *Response) AddAttribute(key, value string) *Response {
	r.Attributes = append(r.Attributes, Attr(key, value))
	return r
}

// AddMessage appends a fire-and-forget message.
func (r *Response) AddMessage(msg Msg) *Response {
	r.Messages = append(r.Messages, SubMsg{Msg: msg, ReplyOn: ReplyNever})
	return r
}

// AddSubMessage appends a message whose outcome is reported back via Reply.
func (r *Response) AddSubMessage(sub SubMsg) *Response {
	r.Messages = append(r.Messages, sub)
	return r
}

// ReplyOn selects which sub-message outcomes are reported back.
type ReplyOn int

const (
	ReplyNever ReplyOn = iota
	ReplySuccess
	ReplyError
	ReplyAlways
)

func (r ReplyOn) String() string {
	switch r {
	case ReplyNever:
		return "never"
	case ReplySuccess:
		return "success"
	case ReplyError:
		return "error"
	case ReplyAlways:
		return "always"
	default:
		return "unknown"
	}
}

// OnSuccess reports whether successful outcomes are replied to.
func (r ReplyOn) OnSuccess() bool {
	return r == ReplySuccess || r == ReplyAlways
}

// OnError reports whether failed outcomes are replied to.
func (r ReplyOn) OnError() bool {
	return r == ReplyError || r == ReplyAlways
}

// SubMsg is a message dispatched by the host on the contract's behalf.
type SubMsg struct {
	ID      uint64 // Correlation id echoed in Reply
	Msg     Msg
	ReplyOn ReplyOn
}

// Msg is a call into another contract. Exactly one field is set.
type Msg struct {
	Instantiate *InstantiateMsg
	Execute     *ExecuteMsg
	Migrate     *MigrateMsg
}

// InstantiateMsg creates a new contract from a stored template.
type InstantiateMsg struct {
	CodeID uint64
	Msg    []byte
	Admin  string // May migrate the new contract; empty means nobody
	Label  string
}

// ExecuteMsg calls an existing contract.
type ExecuteMsg struct {
	Contract string
	Msg      []byte
}

// MigrateMsg moves an existing contract to a new template.
type MigrateMsg struct {
	Contract  string
	NewCodeID uint64
	Msg       []byte
}

// Event is what the host records for one contract's Response.
type Event struct {
	Type       string      `json:"type"`
	Contract   string      `json:"contract"`
	Attributes []Attribute `json:"attributes"`
}

// SubMsgResponse is the successful outcome of a sub-message.
type SubMsgResponse struct {
	Events []Event
	Data   []byte
}

// SubMsgResult is either Ok or Err.
type SubMsgResult struct {
	Ok  *SubMsgResponse
	Err string
}

// IsOk reports whether the sub-message succeeded.
func (r SubMsgResult) IsOk() bool {
	return r.Ok != nil
}

// Reply is delivered to the contract that dispatched a sub-message.
type Reply struct {
	ID     uint64
	Result SubMsgResult
}
