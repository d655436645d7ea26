// Package sshauth decides which public keys may open the SSH terminal client.
package sshauth

import (
	"context"
	"log"

	"pricecast/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	gossh "golang.org/x/crypto/ssh"
)

type UserStore interface {
	FindByFingerprint(ctx context.Context, fingerprint string) (*repository.SSHUser, error)
	RecordLogin(ctx context.Context, userID int64) error
}

type Authorizer struct {
	users  UserStore
	tracer trace.Tracer
}

// New returns an Authorizer. A nil store leaves the server open to any key.
func New(users UserStore, tracer trace.Tracer) *Authorizer {
	return &Authorizer{users: users, tracer: tracer}
}

// Open reports whether every key is accepted.
func (a *Authorizer) Open() bool {
	return a.users == nil
}

// Authorize looks the key up by its SHA256 fingerprint. The returned user is
// nil when the server is open. It runs for every key offer, including ones
// whose signature is never verified, so it does not record logins.
func (a *Authorizer) Authorize(ctx context.Context, key gossh.PublicKey) (*repository.SSHUser, bool) {
	if key == nil {
		return nil, false
	}
	if a.users == nil {
		return nil, true
	}

	fingerprint := gossh.FingerprintSHA256(key)
	ctx, span := a.tracer.Start(ctx, "ssh-auth.authorize")
	defer span.End()
	span.SetAttributes(attribute.String("ssh.fingerprint", fingerprint))

	user, err := a.users.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		log.Printf("ssh auth lookup failed for %s: %v", fingerprint, err)
		return nil, false
	}
	if user == nil {
		log.Printf("ssh auth rejected unknown key %s", fingerprint)
		return nil, false
	}
	return user, true
}

// RecordSession stamps last_login_at once a session has been established.
func (a *Authorizer) RecordSession(ctx context.Context, user *repository.SSHUser) {
	if a.users == nil || user == nil {
		return
	}
	ctx, span := a.tracer.Start(ctx, "ssh-auth.record-session")
	defer span.End()
	span.SetAttributes(attribute.Int64("ssh.user_id", user.ID))

	if err := a.users.RecordLogin(ctx, user.ID); err != nil {
		span.RecordError(err)
		log.Printf("ssh auth: failed to record login for %s: %v", user.Username, err)
	}
}
