package seed

import (
	"context"
	"sync"

	"vinoteca/internal/identity"
	"vinoteca/internal/models"

	"github.com/google/uuid"
)

// fakeIdentities plays the identity provider for seeded users: every
// registered profile gets an opaque token that verifies to it.
type fakeIdentities struct {
	mu       sync.Mutex
	profiles map[string]*identity.VerifiedIdentity
}

var _ identity.Verifier = (*fakeIdentities)(nil)

func newFakeIdentities() *fakeIdentities {
	return &fakeIdentities{profiles: make(map[string]*identity.VerifiedIdentity)}
}

func (f *fakeIdentities) register(profile *identity.VerifiedIdentity) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok := uuid.NewString()
	f.profiles[tok] = profile
	return tok
}

func (f *fakeIdentities) Verify(_ context.Context, identityToken string) (*identity.VerifiedIdentity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[identityToken]
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid identity token")
	}
	return profile, nil
}
