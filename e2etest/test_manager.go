//go:build e2e

package e2etest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/babylonlabs-io/staking-ledger/internal/api"
	"github.com/babylonlabs-io/staking-ledger/internal/config"
	"github.com/babylonlabs-io/staking-ledger/internal/db"
	"github.com/babylonlabs-io/staking-ledger/internal/db/model"
	"github.com/babylonlabs-io/staking-ledger/internal/queue"
	"github.com/babylonlabs-io/staking-ledger/internal/services"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
	"github.com/babylonlabs-io/staking-ledger/tests/mocks"
	"github.com/babylonlabs-io/staking-ledger/testutil"
)

const addressPrefix = "bbn"

const (
	transferWaitTimeout = 20 * time.Second
	relayerToken        = "e2e-relayer-token"
)

type TestManager struct {
	Config    *config.Config
	DbClient  db.DbInterface
	Service   *services.Service
	Server    *httptest.Server
	Custody   *mocks.CustodyInterface
	Transfers <-chan amqp.Delivery

	Owner, Dev, Token, Gov, Self string
}

// StartManager runs mongo and rabbitmq containers and wires a bootstrapped
// service behind an httptest api server. Custody is mocked.
func StartManager(t *testing.T) *TestManager {
	t.Helper()
	ctx := t.Context()

	dbCfg, cleanupMongo, err := testutil.SetupMongoContainer("staking-ledger-e2e")
	require.NoError(t, err)
	t.Cleanup(cleanupMongo)

	queueCfg, cleanupRabbit, err := testutil.SetupRabbitContainer()
	require.NoError(t, err)
	t.Cleanup(cleanupRabbit)

	tm := &TestManager{
		Owner: testutil.Address(t, addressPrefix, "owner"),
		Dev:   testutil.Address(t, addressPrefix, "dev"),
		Token: testutil.Address(t, addressPrefix, "token"),
		Gov:   testutil.Address(t, addressPrefix, "gov"),
		Self:  testutil.Address(t, addressPrefix, "staking"),
	}
	tm.Config = &config.Config{
		Ledger: config.LedgerConfig{
			FeeRate:       "0.02",
			Owner:         tm.Owner,
			Dev:           tm.Dev,
			Token:         tm.Token,
			Custody:       tm.Gov,
			Self:          tm.Self,
			AddressPrefix: addressPrefix,
		},
		Db:     *dbCfg,
		Queue:  *queueCfg,
		Server: config.ServerConfig{RelayerToken: relayerToken},
		Poller: config.PollerConfig{
			ReconcileInterval:  time.Second,
			DispatchInterval:   time.Second,
			TransferBatchLimit: 100,
		},
	}

	require.NoError(t, model.Setup(ctx, &tm.Config.Db))
	dbClient, err := db.Open(ctx, tm.Config.Db)
	require.NoError(t, err)
	tm.DbClient = db.NewDbWithMetrics(dbClient)
	t.Cleanup(func() {
		_ = tm.DbClient.Close(context.Background())
	})

	qm, err := queue.NewQueueManager(&tm.Config.Queue, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(qm.Shutdown)

	tm.Custody = mocks.NewCustodyInterface(t)
	tm.Service = services.NewService(tm.Config, tm.DbClient, tm.Custody, qm)
	require.NoError(t, tm.Service.Bootstrap(ctx))

	tm.Server = httptest.NewServer(api.NewRouter(tm.Service, tm.Config.Server.RelayerToken))
	t.Cleanup(tm.Server.Close)

	tm.Transfers = consumeTransfers(t, tm.Config.Queue)
	return tm
}

func consumeTransfers(t *testing.T, cfg config.QueueConfig) <-chan amqp.Delivery {
	t.Helper()

	conn, err := amqp.Dial(cfg.AmqpURL())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})
	channel, err := conn.Channel()
	require.NoError(t, err)

	deliveries, err := channel.ConsumeWithContext(t.Context(), cfg.TransferQueue, "", true, false, false, false, nil)
	require.NoError(t, err)
	return deliveries
}

func (tm *TestManager) Execute(t *testing.T, sender string, msg types.ExecuteMsg) *http.Response {
	t.Helper()

	body, err := json.Marshal(types.ExecuteRequest{Sender: sender, Msg: msg})
	require.NoError(t, err)
	return tm.post(t, "/v1/execute", body)
}

// Acknowledge reports a dispatched transfer as executed, as the signer would.
func (tm *TestManager) Acknowledge(t *testing.T, id string) *http.Response {
	t.Helper()

	return tm.post(t, "/v1/transfers/"+id+"/executed", nil)
}

func (tm *TestManager) post(t *testing.T, path string, body []byte) *http.Response {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, tm.Server.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+relayerToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func (tm *TestManager) Get(t *testing.T, path string, out any) {
	t.Helper()

	resp, err := http.Get(tm.Server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := struct {
		Data any `json:"data"`
	}{Data: out}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
}

// NextTransfer waits for the next published transfer instruction.
func (tm *TestManager) NextTransfer(t *testing.T) queue.TransferMessage {
	t.Helper()

	select {
	case delivery := <-tm.Transfers:
		var msg queue.TransferMessage
		require.NoError(t, json.Unmarshal(delivery.Body, &msg))
		return msg
	case <-time.After(transferWaitTimeout):
		t.Fatal("no transfer published")
		return queue.TransferMessage{}
	}
}
