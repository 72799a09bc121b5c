package reminder

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weekview/weekview/internal/domain/subscribers"
	"github.com/weekview/weekview/internal/push"
)

type memSubs struct {
	subs    []subscribers.Subscription
	deleted []string
}

func (m *memSubs) ListActive(context.Context) ([]subscribers.Subscription, error) {
	return m.subs, nil
}

func (m *memSubs) DeleteByEndpoint(_ context.Context, endpoint string) error {
	m.deleted = append(m.deleted, endpoint)
	return nil
}

func testCreds(t *testing.T) push.Credentials {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	d := make([]byte, 32)
	key.D.FillBytes(d)
	return push.Credentials{
		PublicKey:  base64.RawURLEncoding.EncodeToString(elliptic.Marshal(elliptic.P256(), key.X, key.Y)),
		PrivateKey: base64.RawURLEncoding.EncodeToString(d),
		Contact:    "ops@weekview.example",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnceDeliversAndPrunes(t *testing.T) {
	var gotPayload []byte
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPayload, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer ok.Close()
	gone := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer gone.Close()

	store := &memSubs{subs: []subscribers.Subscription{
		{SubjectID: 1, Endpoint: ok.URL},
		{SubjectID: 1, Endpoint: gone.URL},
	}}

	msg := Message{Title: "Weekly review", Body: "Time to write it", URL: "/reviews/new"}
	svc := New(discardLogger(), store, push.NewDispatcher(nil, 60), testCreds(t), msg, time.Hour, nil)

	rep, err := svc.RunOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, rep.Results, 2)
	assert.Equal(t, 1, rep.Delivered)
	assert.Equal(t, 1, rep.Failed)

	assert.Equal(t, []string{gone.URL}, store.deleted, "rejected endpoint pruned")

	var decoded Message
	require.NoError(t, json.Unmarshal(gotPayload, &decoded))
	assert.Equal(t, msg, decoded)
}

func TestRunOnceEmptyBatch(t *testing.T) {
	svc := New(discardLogger(), &memSubs{}, push.NewDispatcher(nil, 60), testCreds(t), Message{}, time.Hour, nil)

	rep, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rep.Results)
}

func TestRunRefusesWithoutCredentials(t *testing.T) {
	svc := New(discardLogger(), &memSubs{}, push.NewDispatcher(nil, 60), push.Credentials{}, Message{}, time.Hour, nil)

	err := svc.Run(context.Background())
	assert.ErrorIs(t, err, push.ErrNotConfigured)
}
