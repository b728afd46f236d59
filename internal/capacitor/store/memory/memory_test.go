package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"capacitor/internal/capacitor/domain"
)

type MemoryStoreSuite struct {
	suite.Suite
	ctx       context.Context
	documents *Documents
	accounts  *Allowlist
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.documents = NewDocuments()
	s.accounts = NewAllowlist()
}

func (s *MemoryStoreSuite) TestInsertOneAppends() {
	doc := domain.Document{"text": "hi", domain.FieldCapID: "None"}
	s.Require().NoError(s.documents.InsertOne(s.ctx, "alice_near", "post", doc))
	s.Require().NoError(s.documents.InsertOne(s.ctx, "alice_near", "post", doc))
	s.Require().NoError(s.documents.InsertOne(s.ctx, "bob_near", "post", doc))

	s.Len(s.documents.Find("alice_near", "post"), 2)
	s.Len(s.documents.Find("bob_near", "post"), 1)
	s.Equal(3, s.documents.Count())
}

func (s *MemoryStoreSuite) TestInsertOneCopiesDocument() {
	doc := domain.Document{"text": "hi"}
	s.Require().NoError(s.documents.InsertOne(s.ctx, "alice_near", "post", doc))
	doc["text"] = "changed"

	s.Equal("hi", s.documents.Find("alice_near", "post")[0]["text"])
}

func (s *MemoryStoreSuite) TestUpsertByCapID() {
	s.Run("inserts when absent", func() {
		err := s.documents.UpsertByCapID(s.ctx, "alice_near", "profile", "u1", domain.Document{"name": "A", "bio": "x"})
		s.Require().NoError(err)

		docs := s.documents.Find("alice_near", "profile")
		s.Require().Len(docs, 1)
		s.Equal("u1", docs[0][domain.FieldCapID])
	})

	s.Run("sets fields on the match", func() {
		err := s.documents.UpsertByCapID(s.ctx, "alice_near", "profile", "u1", domain.Document{"name": "B", domain.FieldCapID: "u1"})
		s.Require().NoError(err)

		docs := s.documents.Find("alice_near", "profile")
		s.Require().Len(docs, 1)
		s.Equal("B", docs[0]["name"])
		s.Equal("x", docs[0]["bio"])
	})

	s.Run("other cap ids are separate documents", func() {
		err := s.documents.UpsertByCapID(s.ctx, "alice_near", "profile", "u2", domain.Document{"name": "C"})
		s.Require().NoError(err)
		s.Len(s.documents.Find("alice_near", "profile"), 2)
	})

	s.Run("only the first match is updated", func() {
		dup := domain.Document{"n": int64(1), domain.FieldCapID: "p1"}
		s.Require().NoError(s.documents.InsertOne(s.ctx, "alice_near", "post", dup))
		s.Require().NoError(s.documents.InsertOne(s.ctx, "alice_near", "post", dup))

		err := s.documents.UpsertByCapID(s.ctx, "alice_near", "post", "p1", domain.Document{"n": int64(2)})
		s.Require().NoError(err)

		docs := s.documents.Find("alice_near", "post")
		s.Require().Len(docs, 2)
		s.Equal(int64(2), docs[0]["n"])
		s.Equal(int64(1), docs[1]["n"])
	})
}

func (s *MemoryStoreSuite) TestAllowlist() {
	s.Require().NoError(s.accounts.Insert(s.ctx, "alice.near"))
	s.Require().NoError(s.accounts.Insert(s.ctx, "alice.near"))
	s.Require().NoError(s.accounts.Insert(s.ctx, "bob.near"))

	ids, err := s.accounts.List(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"alice.near", "bob.near"}, ids)

	exists, err := s.accounts.Exists(s.ctx, "bob.near")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.accounts.Exists(s.ctx, "carol.near")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *MemoryStoreSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	s.ErrorIs(s.documents.InsertOne(ctx, "a", "b", domain.Document{}), context.Canceled)
	s.ErrorIs(s.accounts.Insert(ctx, "alice.near"), context.Canceled)
	_, err := s.accounts.List(ctx)
	s.ErrorIs(err, context.Canceled)
}
