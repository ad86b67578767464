package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/go-kit/kit/metrics/generic"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	abci "github.com/tendermint/tendermint/abci/types"
	dbm "github.com/tendermint/tm-db"

	"github.com/dreamer-zq/nft-escrow/internal/effects"
	"github.com/dreamer-zq/nft-escrow/libs/log"
	"github.com/dreamer-zq/nft-escrow/types"
)

const (
	testCustody = "escrow1custody"
	seller      = "seller"
	buyer       = "buyer"
)

var nft1 = types.AssetRef{DenomID: "cert", NFTID: "nft-1"}

func newTestApp(t *testing.T, db dbm.DB) *Application {
	t.Helper()
	app, err := NewApplication(db, testCustody, WithLogger(log.TestingLogger()))
	require.NoError(t, err)
	return app
}

func encodeTx(t *testing.T, tx types.Tx) []byte {
	t.Helper()
	bz, err := types.EncodeTx(tx)
	require.NoError(t, err)
	return bz
}

func createTx(t *testing.T, asset types.AssetRef, amount uint64) []byte {
	return encodeTx(t, types.Tx{
		Sender: seller,
		Msg: &types.MsgCreateOrder{
			Asset: asset,
			Price: types.NewCoin("iris", amount),
			Name:  "test",
		},
	})
}

func payTx(t *testing.T, id uint64, funds ...types.Coin) []byte {
	return encodeTx(t, types.Tx{
		Sender: buyer,
		Funds:  funds,
		Msg:    &types.MsgPayOrder{OrderID: id},
	})
}

func cancelTx(t *testing.T, sender string, id uint64) []byte {
	return encodeTx(t, types.Tx{
		Sender: sender,
		Msg:    &types.MsgCancelOrder{OrderID: id},
	})
}

func deliver(t *testing.T, app *Application, tx []byte) (abci.ResponseDeliverTx, Result) {
	t.Helper()
	res := app.DeliverTx(abci.RequestDeliverTx{Tx: tx})
	var result Result
	if res.Code == types.CodeTypeOK {
		require.NoError(t, json.Unmarshal(res.Data, &result))
	}
	return res, result
}

func listOrders(t *testing.T, app *Application) []types.Order {
	t.Helper()
	res := app.Query(abci.RequestQuery{Path: QueryPathOrders})
	require.Equal(t, types.CodeTypeOK, res.Code, res.Log)
	var list types.OrderListResponse
	require.NoError(t, json.Unmarshal(res.Value, &list))
	return list.List
}

func instructionTypes(result Result) []string {
	out := make([]string, len(result.Instructions))
	for i, in := range result.Instructions {
		out[i] = in.Type
	}
	return out
}

func TestCreateAndPay(t *testing.T) {
	app := newTestApp(t, dbm.NewMemDB())

	res, result := deliver(t, app, createTx(t, nft1, 100))
	require.Equal(t, types.CodeTypeOK, res.Code, res.Log)
	require.EqualValues(t, 1, result.Order.ID)
	require.Equal(t, types.StatusPending, result.Order.Status)
	require.Equal(t, []string{effects.TypeMsgMintNFT}, instructionTypes(result))

	res, result = deliver(t, app, payTx(t, 1, types.NewCoin("iris", 100)))
	require.Equal(t, types.CodeTypeOK, res.Code, res.Log)
	require.Equal(t, types.StatusPaid, result.Order.Status)
	require.Equal(t, buyer, result.Order.Buyer)
	require.Equal(t, []string{effects.TypeMsgSend, effects.TypeMsgTransferNFT}, instructionTypes(result))

	// one order event followed by the effects in execution order
	require.Len(t, res.Events, 3)
	assert.Equal(t, EventTypeOrder, res.Events[0].Type)
	assert.Equal(t, effects.EventTypeEffect, res.Events[1].Type)
	assert.Equal(t, effects.EventTypeEffect, res.Events[2].Type)

	send, ok := result.Instructions[0].Value.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, testCustody, send["from_address"])
	assert.Equal(t, seller, send["to_address"])

	res, _ = deliver(t, app, cancelTx(t, seller, 1))
	require.Equal(t, types.CodeTypeInvalidState, res.Code)
	require.Equal(t, types.Codespace, res.Codespace)
	require.Empty(t, res.Events)
}

func TestCancelThenPay(t *testing.T) {
	app := newTestApp(t, dbm.NewMemDB())

	res, _ := deliver(t, app, createTx(t, nft1, 100))
	require.Equal(t, types.CodeTypeOK, res.Code, res.Log)

	res, _ = deliver(t, app, cancelTx(t, buyer, 1))
	require.Equal(t, types.CodeTypeUnauthorized, res.Code)

	res, result := deliver(t, app, cancelTx(t, seller, 1))
	require.Equal(t, types.CodeTypeOK, res.Code, res.Log)
	require.Equal(t, types.StatusRevoke, result.Order.Status)
	require.Equal(t, []string{effects.TypeMsgTransferNFT}, instructionTypes(result))

	res, _ = deliver(t, app, payTx(t, 1, types.NewCoin("iris", 100)))
	require.Equal(t, types.CodeTypeInvalidState, res.Code)
}

func TestDeliverTxRejections(t *testing.T) {
	app := newTestApp(t, dbm.NewMemDB())
	res, _ := deliver(t, app, createTx(t, nft1, 100))
	require.Equal(t, types.CodeTypeOK, res.Code, res.Log)
	app.Commit()

	fundedCreate := encodeTx(t, types.Tx{
		Sender: seller,
		Funds:  types.Coins{types.NewCoin("iris", 1)},
		Msg:    &types.MsgCreateOrder{Asset: nft1, Price: types.NewCoin("iris", 1)},
	})

	testCases := map[string]struct {
		tx   []byte
		code uint32
	}{
		"garbage":           {[]byte("not json"), types.CodeTypeEncodingError},
		"unknown message":   {[]byte(`{"sender":"a","msg":{"steal":{}}}`), types.CodeTypeEncodingError},
		"two messages":      {[]byte(`{"sender":"a","msg":{"pay_order":{"order_id":"1"},"cancel_order":{"order_id":"1"}}}`), types.CodeTypeEncodingError},
		"no sender":         {[]byte(`{"msg":{"cancel_order":{"order_id":"1"}}}`), types.CodeTypeMalformedInput},
		"zero price":        {createTx(t, nft1, 0), types.CodeTypeMalformedInput},
		"funded create":     {fundedCreate, types.CodeTypeMalformedInput},
		"unknown order":     {payTx(t, 9, types.NewCoin("iris", 100)), types.CodeTypeOrderNotFound},
		"underpaid":         {payTx(t, 1, types.NewCoin("iris", 99)), types.CodeTypeInsufficientFunds},
		"overpaid":          {payTx(t, 1, types.NewCoin("iris", 101)), types.CodeTypeInsufficientFunds},
		"wrong denom":       {payTx(t, 1, types.NewCoin("atom", 100)), types.CodeTypeInsufficientFunds},
		"no funds":          {payTx(t, 1), types.CodeTypeInsufficientFunds},
		"zero amount":       {payTx(t, 1, types.NewCoin("iris", 0)), types.CodeTypeInsufficientFunds},
		"split same denom":  {payTx(t, 1, types.NewCoin("iris", 50), types.NewCoin("iris", 50)), types.CodeTypeInsufficientFunds},
		"zero unknown":      {payTx(t, 9, types.NewCoin("iris", 0)), types.CodeTypeOrderNotFound},
		"non-seller cancel": {cancelTx(t, buyer, 1), types.CodeTypeUnauthorized},
	}

	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			res, _ := deliver(t, app, tc.tx)
			require.Equal(t, tc.code, res.Code, res.Log)
			require.Empty(t, res.Events)
			require.Empty(t, res.Data)
		})
	}

	// none of the rejections touched the block state or the counter
	require.False(t, app.block.IsDirty())
	orders := listOrders(t, app)
	require.Len(t, orders, 1)
	require.Equal(t, types.StatusPending, orders[0].Status)

	res, result := deliver(t, app, createTx(t, nft1, 100))
	require.Equal(t, types.CodeTypeOK, res.Code, res.Log)
	require.EqualValues(t, 2, result.Order.ID)
}

func eventAttrs(ev abci.Event) map[string]string {
	attrs := make(map[string]string, len(ev.Attributes))
	for _, a := range ev.Attributes {
		attrs[string(a.Key)] = string(a.Value)
	}
	return attrs
}

func TestOrderEventBuyer(t *testing.T) {
	app := newTestApp(t, dbm.NewMemDB())

	res, _ := deliver(t, app, createTx(t, nft1, 100))
	require.Equal(t, types.CodeTypeOK, res.Code, res.Log)
	created := eventAttrs(res.Events[0])
	require.Equal(t, "create_order", created["action"])
	require.Equal(t, "PENDING", created["status"])
	require.NotContains(t, created, "buyer")

	res, _ = deliver(t, app, createTx(t, nft1, 100))
	require.Equal(t, types.CodeTypeOK, res.Code, res.Log)
	res, _ = deliver(t, app, cancelTx(t, seller, 2))
	require.Equal(t, types.CodeTypeOK, res.Code, res.Log)
	require.NotContains(t, eventAttrs(res.Events[0]), "buyer")

	res, _ = deliver(t, app, payTx(t, 1, types.NewCoin("iris", 100)))
	require.Equal(t, types.CodeTypeOK, res.Code, res.Log)
	paid := eventAttrs(res.Events[0])
	require.Equal(t, "PAID", paid["status"])
	require.Equal(t, buyer, paid["buyer"])
	require.Equal(t, seller, eventAttrs(res.Events[1])["to"])
	require.Equal(t, buyer, eventAttrs(res.Events[2])["to"])
}

func TestPayFundsCheckedAfterStatus(t *testing.T) {
	app := newTestApp(t, dbm.NewMemDB())
	for _, tx := range [][]byte{
		createTx(t, nft1, 100),
		createTx(t, nft1, 100),
		payTx(t, 1, types.NewCoin("iris", 100)),
		cancelTx(t, seller, 2),
	} {
		res, _ := deliver(t, app, tx)
		require.Equal(t, types.CodeTypeOK, res.Code, res.Log)
	}

	for _, id := range []uint64{1, 2} {
		for _, funds := range []types.Coins{
			{types.NewCoin("iris", 0)},
			{types.NewCoin("iris", 50), types.NewCoin("iris", 50)},
			{types.NewCoin("iris", 100)},
		} {
			res, _ := deliver(t, app, payTx(t, id, funds...))
			require.Equal(t, types.CodeTypeInvalidState, res.Code, "order %d funds %s: %s", id, funds, res.Log)
		}
	}
}

func TestCheckTx(t *testing.T) {
	app := newTestApp(t, dbm.NewMemDB())

	res := app.CheckTx(abci.RequestCheckTx{Tx: createTx(t, nft1, 100)})
	require.Equal(t, types.CodeTypeOK, res.Code, res.Log)

	// state is not consulted
	res = app.CheckTx(abci.RequestCheckTx{Tx: payTx(t, 42, types.NewCoin("iris", 1))})
	require.Equal(t, types.CodeTypeOK, res.Code, res.Log)

	res = app.CheckTx(abci.RequestCheckTx{Tx: []byte("{")})
	require.Equal(t, types.CodeTypeEncodingError, res.Code)

	res = app.CheckTx(abci.RequestCheckTx{Tx: cancelTx(t, seller, 0)})
	require.Equal(t, types.CodeTypeMalformedInput, res.Code)
}

func TestQuerySeesCommittedState(t *testing.T) {
	app := newTestApp(t, dbm.NewMemDB())

	res, _ := deliver(t, app, createTx(t, nft1, 100))
	require.Equal(t, types.CodeTypeOK, res.Code, res.Log)
	require.Empty(t, listOrders(t, app))

	app.Commit()
	orders := listOrders(t, app)
	require.Len(t, orders, 1)
	require.Equal(t, types.StatusPending, orders[0].Status)
	require.Empty(t, orders[0].Buyer)

	qres := app.Query(abci.RequestQuery{Path: QueryPathOrder, Data: []byte("1")})
	require.Equal(t, types.CodeTypeOK, qres.Code, qres.Log)
	require.EqualValues(t, 1, qres.Height)
	var order types.Order
	require.NoError(t, json.Unmarshal(qres.Value, &order))
	require.Equal(t, orders[0], order)

	qres = app.Query(abci.RequestQuery{Path: QueryPathOrder, Data: []byte("2")})
	require.Equal(t, types.CodeTypeOrderNotFound, qres.Code)

	qres = app.Query(abci.RequestQuery{Path: QueryPathOrder, Data: []byte("one")})
	require.Equal(t, types.CodeTypeMalformedInput, qres.Code)

	qres = app.Query(abci.RequestQuery{Path: "/store"})
	require.Equal(t, types.CodeTypeMalformedInput, qres.Code)
}

func TestCommitAndReload(t *testing.T) {
	db := dbm.NewMemDB()
	app := newTestApp(t, db)

	info := app.Info(abci.RequestInfo{})
	require.Zero(t, info.LastBlockHeight)

	res, _ := deliver(t, app, createTx(t, nft1, 100))
	require.Equal(t, types.CodeTypeOK, res.Code, res.Log)
	first := app.Commit()
	require.NotEmpty(t, first.Data)

	// an empty block keeps the hash
	second := app.Commit()
	require.Equal(t, first.Data, second.Data)

	res, _ = deliver(t, app, payTx(t, 1, types.NewCoin("iris", 100)))
	require.Equal(t, types.CodeTypeOK, res.Code, res.Log)
	// delivered but uncommitted work is lost on restart
	reloaded := newTestApp(t, db)
	info = reloaded.Info(abci.RequestInfo{})
	require.EqualValues(t, 2, info.LastBlockHeight)
	require.Equal(t, second.Data, info.LastBlockAppHash)
	require.Equal(t, types.StatusPending, listOrders(t, reloaded)[0].Status)

	third := app.Commit()
	require.NotEqual(t, second.Data, third.Data)

	reloaded = newTestApp(t, db)
	info = reloaded.Info(abci.RequestInfo{})
	require.EqualValues(t, 3, info.LastBlockHeight)
	require.Equal(t, third.Data, info.LastBlockAppHash)
	require.Equal(t, types.StatusPaid, listOrders(t, reloaded)[0].Status)

	res, result := deliver(t, reloaded, createTx(t, nft1, 5))
	require.Equal(t, types.CodeTypeOK, res.Code, res.Log)
	require.EqualValues(t, 2, result.Order.ID)
}

func TestMetricsSeededOnRestart(t *testing.T) {
	db := dbm.NewMemDB()
	app := newTestApp(t, db)
	for _, tx := range [][]byte{
		createTx(t, nft1, 100),
		createTx(t, nft1, 100),
		createTx(t, nft1, 100),
		payTx(t, 1, types.NewCoin("iris", 100)),
	} {
		res, _ := deliver(t, app, tx)
		require.Equal(t, types.CodeTypeOK, res.Code, res.Log)
	}
	app.Commit()

	metrics := NopMetrics()
	pending := generic.NewGauge("pending_orders")
	height := generic.NewGauge("height")
	metrics.PendingOrders = pending
	metrics.Height = height

	_, err := NewApplication(db, testCustody, WithMetrics(metrics))
	require.NoError(t, err)
	require.EqualValues(t, 2, pending.Value())
	require.EqualValues(t, 1, height.Value())
}

func TestInitChainImportsGenesis(t *testing.T) {
	app := newTestApp(t, dbm.NewMemDB())

	genesis := []byte(`{
		"orders": [
			{"id":"3","asset":{"denom_id":"cert","nft_id":"a"},"price":{"denom":"iris","amount":"7"},"seller":"seller","status":"PENDING"}
		],
		"next_sequence": "4"
	}`)
	app.InitChain(abci.RequestInitChain{AppStateBytes: genesis})
	app.Commit()

	orders := listOrders(t, app)
	require.Len(t, orders, 1)
	require.EqualValues(t, 3, orders[0].ID)

	res, result := deliver(t, app, createTx(t, nft1, 100))
	require.Equal(t, types.CodeTypeOK, res.Code, res.Log)
	require.EqualValues(t, 4, result.Order.ID)

	require.Panics(t, func() {
		newTestApp(t, dbm.NewMemDB()).InitChain(abci.RequestInitChain{
			AppStateBytes: []byte(`{"orders":[],"next_sequence":"0"}`),
		})
	})
}

func TestNewApplicationRequiresCustody(t *testing.T) {
	_, err := NewApplication(dbm.NewMemDB(), "")
	require.Error(t, err)
}

func TestListOrdersGolden(t *testing.T) {
	app := newTestApp(t, dbm.NewMemDB())

	for _, tx := range [][]byte{
		createTx(t, nft1, 100),
		createTx(t, types.AssetRef{DenomID: "cert", NFTID: "nft-2"}, 250),
		payTx(t, 1, types.NewCoin("iris", 100)),
		cancelTx(t, seller, 2),
	} {
		res, _ := deliver(t, app, tx)
		require.Equal(t, types.CodeTypeOK, res.Code, res.Log)
	}
	app.Commit()

	res := app.Query(abci.RequestQuery{Path: QueryPathOrders})
	require.Equal(t, types.CodeTypeOK, res.Code, res.Log)

	var out bytes.Buffer
	require.NoError(t, json.Indent(&out, res.Value, "", "  "))
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "list_orders", out.Bytes())
}
