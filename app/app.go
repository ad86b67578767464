package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/crypto/merkle"
	dbm "github.com/tendermint/tm-db"

	"github.com/dreamer-zq/nft-escrow/internal/effects"
	"github.com/dreamer-zq/nft-escrow/internal/engine"
	"github.com/dreamer-zq/nft-escrow/internal/store"
	"github.com/dreamer-zq/nft-escrow/libs/log"
	"github.com/dreamer-zq/nft-escrow/types"
	"github.com/dreamer-zq/nft-escrow/version"
)

const (
	QueryPathOrders = "/orders"
	QueryPathOrder  = "/order"

	// EventTypeOrder is the ABCI event describing the order a transaction
	// moved.
	EventTypeOrder = "escrow.order"
)

var _ abci.Application = (*Application)(nil)

// Result is the DeliverTx payload of a successful request: the order after
// the transition and the instructions the host must execute with it, in
// execution order.
type Result struct {
	Order        types.Order           `json:"order"`
	Instructions []effects.Instruction `json:"instructions"`
}

// Application is the escrow ABCI application. It decodes each transaction,
// runs it through the lifecycle engine against a per-request cache and keeps
// the cache only if every step succeeded. Successful requests accumulate in a
// block cache that Commit writes to disk in one batch.
type Application struct {
	abci.BaseApplication

	// ABCI connections are served one at a time by Tendermint; the mutex
	// gives direct callers the same guarantee.
	mtx sync.Mutex

	logger  log.Logger
	metrics *Metrics

	db      *store.DBStore
	block   *store.Cache
	emitter *effects.Emitter
	state   store.AppState
}

// Option sets an optional parameter on the Application.
type Option func(*Application)

// WithLogger sets the application logger.
func WithLogger(logger log.Logger) Option {
	return func(app *Application) { app.logger = logger }
}

// WithMetrics sets the application metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(app *Application) { app.metrics = metrics }
}

// NewApplication loads the last committed state from db. custody is the
// address of the contract account every instruction is issued from.
func NewApplication(db dbm.DB, custody string, options ...Option) (*Application, error) {
	if custody == "" {
		return nil, errors.New("custody address is empty")
	}

	orders := store.NewDBStore(db)
	state, err := orders.LoadAppState()
	if err != nil {
		return nil, fmt.Errorf("load app state: %w", err)
	}

	app := &Application{
		logger:  log.NewNopLogger(),
		metrics: NopMetrics(),
		db:      orders,
		block:   store.NewCache(orders),
		emitter: effects.NewEmitter(custody),
		state:   state,
	}
	for _, opt := range options {
		opt(app)
	}

	committed, err := orders.List()
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	app.metrics.Height.Set(float64(state.Height))
	app.metrics.PendingOrders.Set(float64(countPending(committed)))
	return app, nil
}

// Close closes the underlying database.
func (app *Application) Close() error {
	return app.db.Close()
}

func (app *Application) Info(req abci.RequestInfo) abci.ResponseInfo {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	return abci.ResponseInfo{
		Data:             fmt.Sprintf(`{"height":%d}`, app.state.Height),
		Version:          version.Version,
		AppVersion:       version.AppProtocol.Uint64(),
		LastBlockHeight:  app.state.Height,
		LastBlockAppHash: app.state.AppHash,
	}
}

// InitChain imports the genesis app state, a store.Snapshot, if one is
// given. It panics on a malformed genesis since the chain cannot start.
func (app *Application) InitChain(req abci.RequestInitChain) abci.ResponseInitChain {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	if len(req.AppStateBytes) == 0 {
		return abci.ResponseInitChain{}
	}
	var snap store.Snapshot
	if err := json.Unmarshal(req.AppStateBytes, &snap); err != nil {
		panic(fmt.Errorf("unmarshal genesis app state: %w", err))
	}
	if err := store.Import(app.block, snap); err != nil {
		panic(fmt.Errorf("import genesis app state: %w", err))
	}
	app.logger.Info("imported genesis orders", "orders", len(snap.Orders), "next_sequence", snap.NextSequence)
	return abci.ResponseInitChain{}
}

// CheckTx runs the stateless checks only. State-dependent failures surface
// in DeliverTx, where they are still rejected without side effects.
func (app *Application) CheckTx(req abci.RequestCheckTx) abci.ResponseCheckTx {
	tx, err := types.DecodeTx(req.Tx)
	if err == nil {
		err = tx.ValidateBasic()
	}
	if err != nil {
		return abci.ResponseCheckTx{
			Code:      types.CodeOf(err),
			Codespace: types.Codespace,
			Log:       err.Error(),
		}
	}
	return abci.ResponseCheckTx{Code: types.CodeTypeOK, GasWanted: 1}
}

func (app *Application) DeliverTx(req abci.RequestDeliverTx) abci.ResponseDeliverTx {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	res, events, err := app.deliver(req.Tx)
	if err != nil {
		code := types.CodeOf(err)
		app.metrics.FailedTxs.With("code", strconv.FormatUint(uint64(code), 10)).Add(1)
		app.logger.Debug("rejected tx", "code", code, "err", err)
		return abci.ResponseDeliverTx{
			Code:      code,
			Codespace: types.Codespace,
			Log:       err.Error(),
		}
	}

	data, err := json.Marshal(res)
	if err != nil {
		// the cache is already flushed; a marshal failure here would make
		// the response disagree with state
		panic(fmt.Errorf("marshal result: %w", err))
	}
	return abci.ResponseDeliverTx{
		Code:   types.CodeTypeOK,
		Data:   data,
		Events: events,
	}
}

// deliver processes one transaction. The request's writes reach the block
// cache only when it returns a nil error.
func (app *Application) deliver(bz []byte) (Result, []abci.Event, error) {
	tx, err := types.DecodeTx(bz)
	if err != nil {
		return Result{}, nil, err
	}
	if err := tx.ValidateBasic(); err != nil {
		return Result{}, nil, err
	}

	cache := store.NewCache(app.block)
	defer cache.Discard()

	order, effs, err := dispatch(cache, tx)
	if err != nil {
		return Result{}, nil, err
	}
	instructions, err := app.emitter.Translate(effs)
	if err != nil {
		return Result{}, nil, fmt.Errorf("%w: %v", types.ErrInternal, err)
	}
	effectEvents, err := effects.Events(instructions)
	if err != nil {
		return Result{}, nil, fmt.Errorf("%w: %v", types.ErrInternal, err)
	}
	if err := cache.Write(); err != nil {
		return Result{}, nil, fmt.Errorf("%w: %v", types.ErrInternal, err)
	}

	action := tx.Msg.Type()
	app.metrics.Transitions.With("action", action).Add(1)
	for _, in := range instructions {
		app.metrics.Effects.With("type", in.Type).Add(1)
	}
	app.logger.Info("order transition",
		"action", action,
		"order_id", order.ID,
		"status", order.Status,
		"effects", len(instructions),
	)

	events := append([]abci.Event{orderEvent(action, order)}, effectEvents...)
	return Result{Order: order, Instructions: instructions}, events, nil
}

// dispatch routes a message to its lifecycle operation.
func dispatch(s store.Store, tx *types.Tx) (types.Order, []types.Effect, error) {
	switch msg := tx.Msg.(type) {
	case *types.MsgCreateOrder:
		return engine.Create(s, tx.Sender, msg)
	case *types.MsgPayOrder:
		return engine.Pay(s, tx.Sender, msg.OrderID, tx.Funds)
	case *types.MsgCancelOrder:
		return engine.Cancel(s, tx.Sender, msg.OrderID)
	default:
		return types.Order{}, nil, fmt.Errorf("%w: unknown message %T", types.ErrEncoding, msg)
	}
}

// orderEvent describes the order after a transition. buyer is set only once
// the order is paid.
func orderEvent(action string, order types.Order) abci.Event {
	attrs := []abci.EventAttribute{
		{Key: []byte("action"), Value: []byte(action), Index: true},
		{Key: []byte("order_id"), Value: []byte(strconv.FormatUint(order.ID, 10)), Index: true},
		{Key: []byte("status"), Value: []byte(order.Status), Index: true},
		{Key: []byte("seller"), Value: []byte(order.Seller), Index: true},
	}
	if order.Status == types.StatusPaid {
		attrs = append(attrs, abci.EventAttribute{Key: []byte("buyer"), Value: []byte(order.Buyer), Index: true})
	}
	return abci.Event{Type: EventTypeOrder, Attributes: attrs}
}

// Commit writes the block's orders, the sequence counter and the new app
// hash to disk in one batch.
func (app *Application) Commit() abci.ResponseCommit {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	appHash, pending, err := app.hashState()
	if err != nil {
		panic(fmt.Errorf("compute app hash: %w", err))
	}
	state := store.AppState{Height: app.state.Height + 1, AppHash: appHash}
	if err := app.db.Commit(app.block, state); err != nil {
		panic(fmt.Errorf("commit block %d: %w", state.Height, err))
	}
	app.state = state

	app.metrics.Height.Set(float64(state.Height))
	app.metrics.PendingOrders.Set(float64(pending))
	app.logger.Debug("committed state", "height", state.Height, "app_hash", state.AppHash)

	return abci.ResponseCommit{Data: appHash}
}

// hashState returns the merkle root over the sequence counter and every
// order, and the number of pending orders.
//
// TODO: keep an incremental tree so a commit does not rehash every order.
func (app *Application) hashState() ([]byte, int, error) {
	snap, err := store.Export(app.block)
	if err != nil {
		return nil, 0, err
	}

	items := make([][]byte, 0, len(snap.Orders)+1)
	items = append(items, []byte(strconv.FormatUint(snap.NextSequence, 10)))
	for _, order := range snap.Orders {
		bz, err := json.Marshal(order)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, bz)
	}
	return merkle.HashFromByteSlices(items), countPending(snap.Orders), nil
}

func countPending(orders []types.Order) int {
	n := 0
	for _, order := range orders {
		if order.Status == types.StatusPending {
			n++
		}
	}
	return n
}

// Query serves committed state.
//
//	/orders        every order in insertion order
//	/order  data   the order whose decimal id is data
func (app *Application) Query(req abci.RequestQuery) abci.ResponseQuery {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	value, err := app.query(req)
	if err != nil {
		return abci.ResponseQuery{
			Code:      types.CodeOf(err),
			Codespace: types.Codespace,
			Log:       err.Error(),
			Height:    app.state.Height,
		}
	}
	return abci.ResponseQuery{
		Code:   types.CodeTypeOK,
		Key:    req.Data,
		Value:  value,
		Height: app.state.Height,
	}
}

func (app *Application) query(req abci.RequestQuery) ([]byte, error) {
	switch req.Path {
	case QueryPathOrders:
		orders, err := engine.ListOrders(app.db)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrInternal, err)
		}
		return json.Marshal(types.OrderListResponse{List: orders})

	case QueryPathOrder:
		id, err := strconv.ParseUint(string(req.Data), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: order id %q: %v", types.ErrMalformedInput, req.Data, err)
		}
		order, err := engine.GetOrder(app.db, id)
		if err != nil {
			return nil, err
		}
		return json.Marshal(order)

	default:
		return nil, fmt.Errorf("%w: unknown query path %q", types.ErrMalformedInput, req.Path)
	}
}
