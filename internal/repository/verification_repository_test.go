package repository

import (
	"errors"
	"testing"

	"github.com/nannkadayo/site-verify-discord-bot/internal/domain"
)

func TestVerificationRepositoryIssueAndFind(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewVerificationRepository(db, 15)

	token, err := repo.Issue("msg1", "user1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if len(token) != 15 {
		t.Fatalf("expected 15-char token, got %q", token)
	}

	rec, err := repo.FindValidByToken(token)
	if err != nil {
		t.Fatalf("find valid token: %v", err)
	}
	if rec.SessionID != "msg1" || rec.OwnerID != "user1" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !rec.Valid {
		t.Fatalf("freshly issued token should be valid: %+v", rec)
	}

	if _, err := repo.FindValidByToken("does-not-exist-at-all"); !errors.Is(err, ErrVerificationNotFound) {
		t.Fatalf("expected ErrVerificationNotFound, got %v", err)
	}
}

func TestVerificationRepositoryInvalidateIsIdempotent(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewVerificationRepository(db, 15)

	token, err := repo.Issue("msg1", "user1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	if err := repo.Invalidate(token); err != nil {
		t.Fatalf("first invalidate: %v", err)
	}
	if err := repo.Invalidate(token); err != nil {
		t.Fatalf("second invalidate should not fail: %v", err)
	}
	if err := repo.Invalidate("unknown-token-value"); err != nil {
		t.Fatalf("invalidate of unknown token should not fail: %v", err)
	}

	if _, err := repo.FindValidByToken(token); !errors.Is(err, ErrVerificationNotFound) {
		t.Fatalf("expected invalidated token not found, got %v", err)
	}
}

func TestVerificationRepositoryRecordCompletionKeepsAuditRow(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewVerificationRepository(db, 15)

	token, err := repo.Issue("msg1", "user1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if err := repo.Invalidate(token); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if err := repo.RecordCompletion(token, "198.51.100.7", "fp-abc"); err != nil {
		t.Fatalf("record completion: %v", err)
	}

	var rec domain.Verification
	if err := db.Where("token = ?", token).First(&rec).Error; err != nil {
		t.Fatalf("load audit row: %v", err)
	}
	if rec.Valid {
		t.Fatal("completed token must stay invalid")
	}
	if rec.NetworkAddress == nil || *rec.NetworkAddress != "198.51.100.7" {
		t.Fatalf("network address not persisted: %+v", rec)
	}
	if rec.Fingerprint == nil || *rec.Fingerprint != "fp-abc" {
		t.Fatalf("fingerprint not persisted: %+v", rec)
	}
}

func TestVerificationRepositoryHasCompletedTripleExactMatchOnly(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewVerificationRepository(db, 15)

	token, err := repo.Issue("msg1", "user1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if err := repo.RecordCompletion(token, "198.51.100.7", "fp-abc"); err != nil {
		t.Fatalf("record completion: %v", err)
	}

	dup, err := repo.HasCompletedTriple("198.51.100.7", "msg1", "fp-abc")
	if err != nil {
		t.Fatalf("duplicate lookup: %v", err)
	}
	if !dup {
		t.Fatal("expected exact triple to be reported as duplicate")
	}

	cases := map[string][3]string{
		"different address":     {"198.51.100.8", "msg1", "fp-abc"},
		"different session":     {"198.51.100.7", "msg2", "fp-abc"},
		"different fingerprint": {"198.51.100.7", "msg1", "fp-xyz"},
	}
	for name, triple := range cases {
		dup, err := repo.HasCompletedTriple(triple[0], triple[1], triple[2])
		if err != nil {
			t.Fatalf("%s lookup: %v", name, err)
		}
		if dup {
			t.Fatalf("%s must not match: %v", name, triple)
		}
	}
}
