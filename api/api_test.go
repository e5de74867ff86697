package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/5g-empower/empower-core/container"
	"github.com/5g-empower/empower-core/manager"
	"github.com/5g-empower/empower-core/manifest"
	"github.com/5g-empower/empower-core/metric"
	"github.com/5g-empower/empower-core/scheduler"
	"github.com/5g-empower/empower-core/service"
	"github.com/5g-empower/empower-core/storage/memstore"
)

const testWorkerType = "empower.workers.testworker"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cat := container.NewCatalog()
	man := manifest.Manifest{
		Label: "test worker",
		Params: map[string]manifest.ParamSpec{
			"message": {Type: manifest.TypeString, Default: "hello"},
		},
		Callbacks: []string{"default"},
	}
	err := cat.Register(testWorkerType, man, func(lctx service.Context, id uuid.UUID, params map[string]any, deps *service.Dependencies) (any, error) {
		b := service.NewBase(testWorkerType, id, man.Normalize(), lctx, deps)
		b.ApplyParams(params)
		return b, nil
	})
	require.NoError(t, err)

	store := memstore.New()
	deps := &service.Dependencies{Scheduler: scheduler.NewFake()}

	env := manager.NewEnvManager(cat, store, deps)
	require.NoError(t, env.Start(context.Background()))

	projects := manager.NewProjectsManager(cat, store, manager.NewStaticAccounts("root"), deps)
	require.NoError(t, projects.Start(context.Background()))

	srv := httptest.NewServer(NewServer(env, projects, cat, WithMetrics(metric.NewMetrics())).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url string, body any) (int, []byte) {
	t.Helper()
	status, data, _ := doHeaders(t, method, url, body)
	return status, data
}

func doHeaders(t *testing.T, method, url string, body any) (int, []byte, http.Header) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data, resp.Header
}

func TestCatalogEndpoint(t *testing.T) {
	srv := newTestServer(t)

	status, body := do(t, http.MethodGet, srv.URL+"/api/v1/catalog", nil)
	require.Equal(t, http.StatusOK, status)

	var catalog map[string]manifest.Manifest
	require.NoError(t, json.Unmarshal(body, &catalog))
	assert.Contains(t, catalog, testWorkerType)
}

func TestWorkerLifecycle(t *testing.T) {
	srv := newTestServer(t)

	status, body := do(t, http.MethodPost, srv.URL+"/api/v1/workers",
		map[string]any{"name": testWorkerType, "params": map[string]any{"message": "ping"}})
	require.Equal(t, http.StatusCreated, status)

	var record service.Record
	require.NoError(t, json.Unmarshal(body, &record))
	assert.Equal(t, testWorkerType, record.Name)
	assert.Equal(t, "ping", record.Params["message"])

	workerURL := fmt.Sprintf("%s/api/v1/workers/%s", srv.URL, record.ServiceID)

	status, _ = do(t, http.MethodGet, workerURL, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = do(t, http.MethodPut, workerURL,
		map[string]any{"params": map[string]any{"message": "pong"}})
	require.Equal(t, http.StatusNoContent, status)

	status, body = do(t, http.MethodGet, workerURL, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &record))
	assert.Equal(t, "pong", record.Params["message"])

	status, _ = do(t, http.MethodDelete, workerURL, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = do(t, http.MethodGet, workerURL, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUpdateWorkerRejectionAppliesNothing(t *testing.T) {
	srv := newTestServer(t)

	status, body := do(t, http.MethodPost, srv.URL+"/api/v1/workers",
		map[string]any{"name": testWorkerType, "params": map[string]any{"message": "ping"}})
	require.Equal(t, http.StatusCreated, status)
	var record service.Record
	require.NoError(t, json.Unmarshal(body, &record))

	workerURL := fmt.Sprintf("%s/api/v1/workers/%s", srv.URL, record.ServiceID)

	// one valid and one undeclared parameter: the whole update is rejected
	status, _ = do(t, http.MethodPut, workerURL,
		map[string]any{"params": map[string]any{"message": "pong", "rogue": true}})
	require.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, http.MethodGet, workerURL, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &record))
	assert.Equal(t, "ping", record.Params["message"], "rejected update must not apply partially")
}

func TestCreateWorkerUnknownType(t *testing.T) {
	srv := newTestServer(t)

	status, _ := do(t, http.MethodPost, srv.URL+"/api/v1/workers",
		map[string]any{"name": "empower.workers.ghost"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCreateWorkerSchemaViolation(t *testing.T) {
	srv := newTestServer(t)

	status, body := do(t, http.MethodPost, srv.URL+"/api/v1/workers",
		map[string]any{"name": testWorkerType, "params": map[string]any{"rogue": true}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "rogue")
}

func TestWorkerCallbackRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	status, body := do(t, http.MethodPost, srv.URL+"/api/v1/workers",
		map[string]any{"name": testWorkerType})
	require.Equal(t, http.StatusCreated, status)
	var record service.Record
	require.NoError(t, json.Unmarshal(body, &record))

	callbacksURL := fmt.Sprintf("%s/api/v1/workers/%s/callbacks", srv.URL, record.ServiceID)

	status, body, headers := doHeaders(t, http.MethodPost, callbacksURL,
		map[string]any{"name": "default", "callback_type": "rest", "callback": "http://example.org/hook"})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t,
		fmt.Sprintf("/api/v1/workers/%s/callbacks/default", record.ServiceID),
		headers.Get("Location"))
	assert.JSONEq(t,
		`{"name": "default", "callback_type": "rest", "callback": "http://example.org/hook"}`,
		string(body))

	status, body = do(t, http.MethodGet, callbacksURL+"/default", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "http://example.org/hook")

	status, _ = do(t, http.MethodDelete, callbacksURL+"/default", nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = do(t, http.MethodGet, callbacksURL+"/default", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestWorkerCallbackRejections(t *testing.T) {
	srv := newTestServer(t)

	status, body := do(t, http.MethodPost, srv.URL+"/api/v1/workers",
		map[string]any{"name": testWorkerType})
	require.Equal(t, http.StatusCreated, status)
	var record service.Record
	require.NoError(t, json.Unmarshal(body, &record))

	callbacksURL := fmt.Sprintf("%s/api/v1/workers/%s/callbacks", srv.URL, record.ServiceID)

	// undeclared callback name
	status, _ = do(t, http.MethodPost, callbacksURL,
		map[string]any{"name": "bogus", "callback_type": "rest", "callback": "http://example.org"})
	assert.Equal(t, http.StatusBadRequest, status)

	// malformed target
	status, _ = do(t, http.MethodPost, callbacksURL,
		map[string]any{"name": "default", "callback_type": "rest", "callback": "not-a-url"})
	assert.Equal(t, http.StatusBadRequest, status)

	// native handles cannot be registered over the wire
	status, _ = do(t, http.MethodPost, callbacksURL,
		map[string]any{"name": "default", "callback_type": "native", "callback": "whatever"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestProjectLifecycle(t *testing.T) {
	srv := newTestServer(t)

	status, body := do(t, http.MethodPost, srv.URL+"/api/v1/projects",
		map[string]any{"desc": "test project", "owner": "root"})
	require.Equal(t, http.StatusCreated, status)

	var view container.View
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, "root", view.Owner)

	projectURL := fmt.Sprintf("%s/api/v1/projects/%s", srv.URL, view.ContainerID)

	status, _ = do(t, http.MethodPut, projectURL, map[string]any{"desc": "renamed"})
	require.Equal(t, http.StatusNoContent, status)

	status, body = do(t, http.MethodGet, projectURL, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, "renamed", view.Desc)

	// an app inside the project
	status, body = do(t, http.MethodPost, projectURL+"/apps",
		map[string]any{"name": testWorkerType})
	require.Equal(t, http.StatusCreated, status)
	var record service.Record
	require.NoError(t, json.Unmarshal(body, &record))

	status, _ = do(t, http.MethodGet, fmt.Sprintf("%s/apps/%s", projectURL, record.ServiceID), nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = do(t, http.MethodDelete, projectURL, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = do(t, http.MethodGet, projectURL, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCreateProjectUnknownOwner(t *testing.T) {
	srv := newTestServer(t)

	status, _ := do(t, http.MethodPost, srv.URL+"/api/v1/projects",
		map[string]any{"desc": "test project", "owner": "nobody"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDeleteAllProjects(t *testing.T) {
	srv := newTestServer(t)

	for i := 0; i < 2; i++ {
		status, _ := do(t, http.MethodPost, srv.URL+"/api/v1/projects",
			map[string]any{"desc": "test project", "owner": "root"})
		require.Equal(t, http.StatusCreated, status)
	}

	status, _ := do(t, http.MethodDelete, srv.URL+"/api/v1/projects", nil)
	require.Equal(t, http.StatusNoContent, status)

	status, body := do(t, http.MethodGet, srv.URL+"/api/v1/projects", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{}`, string(body))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	status, _ := do(t, http.MethodGet, srv.URL+"/metrics", nil)
	assert.Equal(t, http.StatusOK, status)
}
