package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/petrijr/flowcraft/internal/testutil"
)

type MongoDBStoreTestSuite struct {
	suite.Suite
	client   *mongo.Client
	store    *MongoDocumentStore
	dbName   string
	collName string
}

func TestMongoDBTestSuite(t *testing.T) {
	uri := testutil.GetMongoURI(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("mongo.Connect failed: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})

	ts := &MongoDBStoreTestSuite{
		client:   client,
		dbName:   "flowcraft_test",
		collName: "documents_test",
	}
	ts.store = NewMongoDocumentStore(client, ts.dbName, ts.collName)
	suite.Run(t, ts)
}

func (m *MongoDBStoreTestSuite) SetupTest() {
	err := m.client.Database(m.dbName).Collection(m.collName).Drop(context.Background())
	m.Require().NoError(err)
}

func (m *MongoDBStoreTestSuite) TestDocumentContract() {
	exerciseDocumentStore(m.T(), m.store, "mongo:")
}

func (m *MongoDBStoreTestSuite) TestGateway() {
	exerciseGateway(m.T(), m.store)
}

func (m *MongoDBStoreTestSuite) TestCallerDeadlineIsKept() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	bounded, release := withDefaultTimeout(ctx)
	defer release()
	want, _ := ctx.Deadline()
	got, _ := bounded.Deadline()
	m.Equal(want, got)
}
