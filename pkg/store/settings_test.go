package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestSettings(t *testing.T) *Settings {
	t.Helper()
	s, err := NewSettings(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("NewSettings failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDefaults(t *testing.T) {
	s := newTestSettings(t)

	assert.Equal(t, DefaultIntervalMinutes, s.UpdateIntervalMinutes())
	assert.Equal(t, time.Duration(DefaultIntervalMinutes)*time.Minute, s.UpdateInterval())
	assert.Empty(t, s.Credentials())
	assert.Equal(t, "", s.Credential("bugzilla"))
}

func TestSetUpdateInterval(t *testing.T) {
	s := newTestSettings(t)

	assert.NoError(t, s.SetUpdateIntervalMinutes(15))
	assert.Equal(t, 15, s.UpdateIntervalMinutes())

	assert.Error(t, s.SetUpdateIntervalMinutes(0))
	assert.Error(t, s.SetUpdateIntervalMinutes(-5))
	assert.Equal(t, 15, s.UpdateIntervalMinutes(), "rejected writes must not change the stored value")
}

func TestCredentialRoundTrip(t *testing.T) {
	s := newTestSettings(t)

	assert.NoError(t, s.SetCredential("bugzilla", "key-123"))
	assert.NoError(t, s.SetCredential("phabricator", "phsid-456"))

	creds := s.Credentials()
	assert.Equal(t, map[string]string{
		"bugzilla":    "key-123",
		"phabricator": "phsid-456",
	}, creds)

	// Empty value removes the credential.
	assert.NoError(t, s.SetCredential("bugzilla", ""))
	assert.Equal(t, "", s.Credential("bugzilla"))
	assert.Equal(t, "phsid-456", s.Credential("phabricator"))
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "settings.db")

	s, err := NewSettings(dbPath)
	assert.NoError(t, err)
	assert.NoError(t, s.SetUpdateIntervalMinutes(7))
	assert.NoError(t, s.SetCredential("bugzilla", "key-123"))
	assert.NoError(t, s.Close())

	s2, err := NewSettings(dbPath)
	assert.NoError(t, err)
	defer s2.Close()
	assert.Equal(t, 7, s2.UpdateIntervalMinutes())
	assert.Equal(t, "key-123", s2.Credential("bugzilla"))
}

func TestSubscribeReceivesTypedEvents(t *testing.T) {
	s := newTestSettings(t)
	events := s.Subscribe()

	assert.NoError(t, s.SetUpdateIntervalMinutes(10))
	assert.Equal(t, KindInterval, mustReceive(t, events).Kind)

	assert.NoError(t, s.SetCredential("bugzilla", "key-123"))
	assert.Equal(t, KindCredentials, mustReceive(t, events).Kind)
}

func TestReloadReannouncesBothKinds(t *testing.T) {
	s := newTestSettings(t)
	events := s.Subscribe()

	s.Reload()

	kinds := map[ChangeKind]bool{}
	kinds[mustReceive(t, events).Kind] = true
	kinds[mustReceive(t, events).Kind] = true
	assert.True(t, kinds[KindInterval])
	assert.True(t, kinds[KindCredentials])
}

func mustReceive(t *testing.T, events <-chan ChangeEvent) ChangeEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for change event")
		return ChangeEvent{}
	}
}
