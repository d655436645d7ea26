package sshauth

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"

	"pricecast/internal/repository"

	"go.opentelemetry.io/otel/trace/noop"
	gossh "golang.org/x/crypto/ssh"
)

type stubUsers struct {
	byFingerprint map[string]*repository.SSHUser
	err           error
	logins        []int64
}

func (s *stubUsers) FindByFingerprint(ctx context.Context, fingerprint string) (*repository.SSHUser, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byFingerprint[fingerprint], nil
}

func (s *stubUsers) RecordLogin(ctx context.Context, userID int64) error {
	s.logins = append(s.logins, userID)
	return nil
}

func newKey(t *testing.T) gossh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	key, err := gossh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("wrap key: %v", err)
	}
	return key
}

func TestAuthorizeOpenServerAcceptsAnyKey(t *testing.T) {
	a := New(nil, noop.NewTracerProvider().Tracer("test"))
	if !a.Open() {
		t.Fatal("expected open server without a user store")
	}
	user, ok := a.Authorize(context.Background(), newKey(t))
	if !ok || user != nil {
		t.Fatalf("expected anonymous accept, got %+v %v", user, ok)
	}
	if _, ok := a.Authorize(context.Background(), nil); ok {
		t.Fatal("expected nil key to be rejected")
	}
}

func TestAuthorizeKnownKey(t *testing.T) {
	key := newKey(t)
	users := &stubUsers{byFingerprint: map[string]*repository.SSHUser{
		gossh.FingerprintSHA256(key): {ID: 7, Username: "dana", PhoneNumber: "0501234567", IsActive: true},
	}}
	a := New(users, noop.NewTracerProvider().Tracer("test"))

	user, ok := a.Authorize(context.Background(), key)
	if !ok || user == nil || user.Username != "dana" {
		t.Fatalf("expected dana to be accepted, got %+v %v", user, ok)
	}
	if _, ok := a.Authorize(context.Background(), key); !ok {
		t.Fatal("expected a repeated key offer to be accepted")
	}
	if len(users.logins) != 0 {
		t.Fatalf("expected key offers not to count as logins, got %v", users.logins)
	}

	a.RecordSession(context.Background(), user)
	if len(users.logins) != 1 || users.logins[0] != 7 {
		t.Fatalf("expected login recorded for user 7, got %v", users.logins)
	}
}

func TestRecordSessionSkipsAnonymous(t *testing.T) {
	users := &stubUsers{}
	a := New(users, noop.NewTracerProvider().Tracer("test"))
	a.RecordSession(context.Background(), nil)
	if len(users.logins) != 0 {
		t.Fatalf("expected no login for an anonymous session, got %v", users.logins)
	}

	New(nil, noop.NewTracerProvider().Tracer("test")).RecordSession(context.Background(), &repository.SSHUser{ID: 1})
}

func TestAuthorizeUnknownKey(t *testing.T) {
	users := &stubUsers{byFingerprint: map[string]*repository.SSHUser{}}
	a := New(users, noop.NewTracerProvider().Tracer("test"))

	if _, ok := a.Authorize(context.Background(), newKey(t)); ok {
		t.Fatal("expected unknown key to be rejected")
	}
	if len(users.logins) != 0 {
		t.Fatal("expected no login recorded")
	}
}

func TestAuthorizeLookupError(t *testing.T) {
	a := New(&stubUsers{err: errors.New("db down")}, noop.NewTracerProvider().Tracer("test"))
	if _, ok := a.Authorize(context.Background(), newKey(t)); ok {
		t.Fatal("expected lookup failure to reject the key")
	}
}
