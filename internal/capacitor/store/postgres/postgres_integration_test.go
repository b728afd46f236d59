//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"capacitor/internal/capacitor/domain"
	"capacitor/internal/capacitor/store/postgres"
	"capacitor/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	documents *postgres.Documents
	accounts  *postgres.Allowlist
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.Require().NoError(postgres.Migrate(context.Background(), s.postgres.Pool))
	s.documents = postgres.NewDocuments(s.postgres.Pool)
	s.accounts = postgres.NewAllowlist(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "capacitor_documents", "allowed_account_ids")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestMigrateIsIdempotent() {
	s.Require().NoError(postgres.Migrate(context.Background(), s.postgres.Pool))
}

func (s *PostgresStoreSuite) TestInsertOneKeepsEveryDocument() {
	ctx := context.Background()
	doc := domain.Document{"text": "hi", domain.FieldCapID: "None"}

	s.Require().NoError(s.documents.InsertOne(ctx, "alice_near", "post", doc))
	s.Require().NoError(s.documents.InsertOne(ctx, "alice_near", "post", doc))
	s.Require().NoError(s.documents.InsertOne(ctx, "alice_near", "comment", doc))

	docs, err := s.documents.Find(ctx, "alice_near", "post")
	s.Require().NoError(err)
	s.Len(docs, 2)
	s.Equal("hi", docs[0]["text"])
}

func (s *PostgresStoreSuite) TestUpsertByCapIDMergesIntoFirstMatch() {
	ctx := context.Background()

	first := domain.Document{"name": "A", "bio": "x", domain.FieldCapID: "u1"}
	s.Require().NoError(s.documents.UpsertByCapID(ctx, "alice_near", "profile", "u1", first))

	second := domain.Document{"name": "B", domain.FieldCapID: "u1"}
	s.Require().NoError(s.documents.UpsertByCapID(ctx, "alice_near", "profile", "u1", second))

	docs, err := s.documents.Find(ctx, "alice_near", "profile")
	s.Require().NoError(err)
	s.Require().Len(docs, 1)
	s.Equal("B", docs[0]["name"])
	s.Equal("x", docs[0]["bio"])
	s.Equal("u1", docs[0][domain.FieldCapID])
}

func (s *PostgresStoreSuite) TestUpsertIsScopedToNamespaceAndCollection() {
	ctx := context.Background()
	doc := domain.Document{"v": 1, domain.FieldCapID: "u1"}

	s.Require().NoError(s.documents.UpsertByCapID(ctx, "alice_near", "profile", "u1", doc))
	s.Require().NoError(s.documents.UpsertByCapID(ctx, "bob_near", "profile", "u1", doc))
	s.Require().NoError(s.documents.UpsertByCapID(ctx, "alice_near", "settings", "u1", doc))

	for _, target := range [][2]string{{"alice_near", "profile"}, {"bob_near", "profile"}, {"alice_near", "settings"}} {
		docs, err := s.documents.Find(ctx, target[0], target[1])
		s.Require().NoError(err)
		s.Len(docs, 1, "%s.%s", target[0], target[1])
	}
}

func (s *PostgresStoreSuite) TestAllowlist() {
	ctx := context.Background()

	s.Require().NoError(s.accounts.Insert(ctx, "bob.near"))
	s.Require().NoError(s.accounts.Insert(ctx, "alice.near"))
	s.Require().NoError(s.accounts.Insert(ctx, "alice.near"))

	ids, err := s.accounts.List(ctx)
	s.Require().NoError(err)
	s.Equal([]string{"alice.near", "bob.near"}, ids)

	exists, err := s.accounts.Exists(ctx, "alice.near")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.accounts.Exists(ctx, "carol.near")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *PostgresStoreSuite) TestConcurrentInsertsOfSameAccount() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	errs := make(chan error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.accounts.Insert(ctx, "alice.near")
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		s.NoError(err)
	}
	ids, err := s.accounts.List(ctx)
	s.Require().NoError(err)
	s.Equal([]string{"alice.near"}, ids)
}

func (s *PostgresStoreSuite) TestDistinctCapIDsAreSeparateDocuments() {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		capID := fmt.Sprintf("u%d", i)
		s.Require().NoError(s.documents.UpsertByCapID(ctx, "alice_near", "profile", capID, domain.Document{domain.FieldCapID: capID}))
	}

	docs, err := s.documents.Find(ctx, "alice_near", "profile")
	s.Require().NoError(err)
	s.Len(docs, 3)
}
