package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/babylonlabs-io/staking-ledger/internal/config"
)

const (
	// this version corresponds to docker tag for mongodb
	// it should be in sync with mongo version used in production
	mongoVersion = "7.0.5"
	replicaSet   = "rs0"

	rabbitVersion  = "3.13-alpine"
	rabbitUser     = "user"
	rabbitPassword = "password"
)

func noRestart(config *docker.HostConfig) {
	config.AutoRemove = true
	config.RestartPolicy = docker.RestartPolicy{
		Name: "no",
	}
}

// SetupMongoContainer starts a single node replica set (transactions are not
// available on a standalone server) and returns its db config together with
// a cleanup function that MUST be called to remove the container.
func SetupMongoContainer(dbName string) (*config.DbConfig, func(), error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, nil, err
	}

	// there can be only 1 container with the same name, so we add
	// random string in the end in case there is still old container running
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Name:       "mongo-integration-tests-db-" + RandomSuffix(4),
		Repository: "mongo",
		Tag:        mongoVersion,
		Cmd:        []string{"--replSet", replicaSet, "--bind_ip_all"},
	}, noRestart)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = pool.Purge(resource)
	}

	// get host port (randomly chosen) that is mapped to mongo port inside container
	hostPort := resource.GetPort("27017/tcp")
	address := fmt.Sprintf("mongodb://localhost:%s/?directConnection=true", hostPort)

	err = pool.Retry(func() error {
		return initiateReplicaSet(address)
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return &config.DbConfig{
		Type:    config.DbTypeMongo,
		DbName:  dbName,
		Address: address,
	}, cleanup, nil
}

func initiateReplicaSet(address string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(address))
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx) //nolint:errcheck

	admin := client.Database("admin")
	var hello bson.M
	if err := admin.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		return err
	}
	if primary, _ := hello["isWritablePrimary"].(bool); primary {
		return nil
	}

	if _, ok := hello["setName"]; !ok {
		initiate := bson.D{{Key: "replSetInitiate", Value: bson.M{
			"_id":     replicaSet,
			"members": bson.A{bson.M{"_id": 0, "host": "localhost:27017"}},
		}}}
		if err := admin.RunCommand(ctx, initiate).Err(); err != nil {
			return err
		}
	}
	// retried until the node elects itself primary
	return fmt.Errorf("replica set %s has no primary yet", replicaSet)
}

// SetupRabbitContainer starts rabbitmq and waits until it accepts
// connections. The cleanup function MUST be called to remove the container.
func SetupRabbitContainer() (*config.QueueConfig, func(), error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, nil, err
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Name:       "rabbitmq-integration-tests-" + RandomSuffix(4),
		Repository: "rabbitmq",
		Tag:        rabbitVersion,
		Env: []string{
			"RABBITMQ_DEFAULT_USER=" + rabbitUser,
			"RABBITMQ_DEFAULT_PASS=" + rabbitPassword,
		},
	}, noRestart)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = pool.Purge(resource)
	}

	cfg := &config.QueueConfig{
		QueueUser:              rabbitUser,
		QueuePassword:          rabbitPassword,
		Url:                    fmt.Sprintf("localhost:%s", resource.GetPort("5672/tcp")),
		QueueProcessingTimeout: 5 * time.Second,
		MsgMaxRetryAttempts:    3,
	}
	if err := cfg.Validate(); err != nil {
		cleanup()
		return nil, nil, err
	}

	err = pool.Retry(func() error {
		conn, err := amqp.Dial(cfg.AmqpURL())
		if err != nil {
			return err
		}
		return conn.Close()
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return cfg, cleanup, nil
}
