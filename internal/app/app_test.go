package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	syncmocks "github.com/stacklok/keysync/internal/sync/mocks"
)

func TestKeysyncApp_Lifecycle(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	cfg := createTestConfig(t)
	app, err := NewKeysyncApp(context.Background(),
		WithConfig(cfg),
		WithSyncManager(syncmocks.NewMockManager(ctrl)),
	)
	require.NoError(t, err)
	assert.Same(t, cfg, app.GetConfig())
	assert.NotNil(t, app.Components().Coordinator)

	handler := app.GetHTTPServer().Handler
	ready := func() bool {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readiness", nil))
		return rec.Code == http.StatusOK
	}
	assert.False(t, ready(), "not ready before the coordinator loaded the region status")

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Start()
	}()

	require.Eventually(t, ready, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, app.Stop(5*time.Second))

	select {
	case startErr := <-errChan:
		require.NoError(t, startErr)
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after Stop()")
	}
}

func TestKeysyncApp_StartError_InvalidAddress(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	cfg := createTestConfig(t)
	cfg.Server.Address = "256.0.0.1:80"
	app, err := NewKeysyncApp(context.Background(),
		WithConfig(cfg),
		WithSyncManager(syncmocks.NewMockManager(ctrl)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Stop(time.Second) })

	err = app.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP server failed")
}

func TestNewKeysyncApp_NilConfig(t *testing.T) {
	t.Parallel()

	_, err := NewKeysyncApp(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config cannot be nil")
}
