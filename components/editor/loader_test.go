package editor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/goliatone/go-rwadmin/pkg/rwapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResourceServer(t *testing.T) (*rwapi.Client, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch r.URL.Path {
		case "/v1/widget/w-1":
			_, _ = w.Write([]byte(`{"data": {"id": "w-1", "type": "widget", "attributes": {
				"name": "Tree cover", "dataset": "ds-1", "freeze": true,
				"widgetConfig": {"type": "embed", "url": "https://example.org/embed"}}}}`))
		case "/v1/layer/l-1":
			_, _ = w.Write([]byte(`{"data": {"id": "l-1", "type": "layer", "attributes": {
				"name": "Fires", "dataset": "ds-2", "provider": "cartodb",
				"layerConfig": {"body": {"layers": []}}}}}`))
		default:
			http.Error(w, `{"errors": [{"detail": "not found"}]}`, http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	client, err := rwapi.NewClient(rwapi.Config{BaseURL: server.URL})
	require.NoError(t, err)
	return client, &requests
}

func TestOpenLoadsExistingResources(t *testing.T) {
	ctx := context.Background()
	client, _ := newResourceServer(t)
	svc := newTestService(t, Options{Loader: NewAPILoader(client)})

	snap, err := svc.Open(ctx, OpenRequest{Kind: StepWidget, ID: "w-1"})
	require.NoError(t, err)
	assert.Equal(t, "Tree cover", snap.Form.String("name"))
	assert.Equal(t, "ds-1", snap.Form.String("dataset"))
	assert.True(t, snap.Form.Bool("freeze"))
	assert.Equal(t, "embed", snap.Form.Map("widgetConfig")["type"])

	snap, err = svc.Open(ctx, OpenRequest{Kind: StepLayer, ID: "l-1"})
	require.NoError(t, err)
	assert.Equal(t, "Fires", snap.Form.String("name"))
	assert.Equal(t, "cartodb", snap.Form.String("provider"))
	assert.NotNil(t, snap.Form.Map("layerConfig"))

	_, err = svc.Open(ctx, OpenRequest{Kind: StepWidget, ID: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "editor: load widget missing")
}

func TestOpenKeepsSuppliedFormAndDrafts(t *testing.T) {
	ctx := context.Background()
	client, requests := newResourceServer(t)
	store := NewInMemoryFormStore()
	require.NoError(t, store.Save(ctx, "draft-1", FormState{"name": "Draft"}))
	svc := newTestService(t, Options{Store: store, Loader: NewAPILoader(client)})

	snap, err := svc.Open(ctx, OpenRequest{Kind: StepWidget, ID: "w-1", Form: FormState{"name": "Given"}})
	require.NoError(t, err)
	assert.Equal(t, "Given", snap.Form.String("name"))

	snap, err = svc.Open(ctx, OpenRequest{SessionID: "draft-1", Kind: StepWidget, ID: "w-1"})
	require.NoError(t, err)
	assert.Equal(t, "Draft", snap.Form.String("name"))

	snap, err = svc.Open(ctx, OpenRequest{Kind: StepDataset, ID: "ds-1"})
	require.NoError(t, err)
	assert.Empty(t, snap.Form.String("name"))
	assert.Zero(t, requests.Load())
}
