package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alchemorsel/recipeclient/internal/infrastructure/config"
	"github.com/alchemorsel/recipeclient/internal/infrastructure/monitoring"
	"github.com/alchemorsel/recipeclient/internal/ports/outbound"
	"github.com/alchemorsel/recipeclient/pkg/errors"
	"github.com/alchemorsel/recipeclient/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.APIConfig{BaseURL: server.URL, ServiceClientID: 502, Timeout: 5 * time.Second}
	return NewClient(cfg, testutils.FixedIdentity("instance-1"), monitoring.NewMetricsCollector(nil, zap.NewNop()), zap.NewNop())
}

func TestCall_MissingBaseURL(t *testing.T) {
	client := NewClient(config.APIConfig{ServiceClientID: 502}, testutils.FixedIdentity("i"), nil, zap.NewNop())

	_, err := client.Call(context.Background(), "/user/recommendHealthy", outbound.CallOptions{})
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfiguration, errors.GetCode(err))
	assert.Equal(t, "API base URL is not configured", errors.UserMessage(err))
}

func TestCall_SendsIdentifyingHeaders(t *testing.T) {
	var got http.Header
	var gotMethod, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	})

	_, err := client.Call(context.Background(), "/recipe/viewRecipe?recipeId=7", outbound.CallOptions{
		Method: http.MethodPost,
		Header: http.Header{"X-Trace": []string{"abc"}},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "recipeId=7", gotQuery)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "502", got.Get(HeaderClientID))
	assert.Equal(t, "instance-1", got.Get(HeaderInstanceID))
	assert.Equal(t, "abc", got.Get("X-Trace"))
}

func TestCall_CallerHeadersWin(t *testing.T) {
	var clientID string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		clientID = r.Header.Get(HeaderClientID)
	})

	_, err := client.Call(context.Background(), "/x", outbound.CallOptions{
		Header: http.Header{HeaderClientID: []string{"9"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "9", clientID)
}

func TestCall_SendsJSONBody(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))
	})

	_, err := client.Call(context.Background(), "/x", outbound.CallOptions{
		Method: http.MethodPost,
		Body:   map[string]any{"a": "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "b", body["a"])
}

func TestCall_DecodesBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
		want any
	}{
		{name: "empty body", body: "", want: nil},
		{name: "json array", body: `[{"id":101}]`, want: []any{map[string]any{"id": json.Number("101")}}},
		{name: "json object", body: `{"recipes":[]}`, want: map[string]any{"recipes": []any{}}},
		{name: "plain text", body: "hello there", want: "hello there"},
		{name: "trailing garbage", body: `{"a":1} tail`, want: `{"a":1} tail`},
		{name: "json string", body: `"quoted"`, want: "quoted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			got, err := client.Call(context.Background(), "/x", outbound.CallOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCall_ErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "raw text", status: 500, body: "Server error occurred", want: "Server error occurred"},
		{name: "message field", status: 400, body: `{"message":"Bad request"}`, want: "Bad request"},
		{name: "empty message field", status: 404, body: `{"message":""}`, want: "Request failed with status 404"},
		{name: "no message", status: 503, body: `{"error":"down"}`, want: "Request failed with status 503"},
		{name: "empty body", status: 502, body: "", want: "Request failed with status 502"},
		{name: "json array", status: 422, body: `[1,2]`, want: "Request failed with status 422"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.Call(context.Background(), "/x", outbound.CallOptions{})
			require.Error(t, err)
			assert.Equal(t, errors.CodeBackend, errors.GetCode(err))
			assert.Equal(t, tt.want, errors.UserMessage(err))

			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.status, appErr.Status)
		})
	}
}

func TestCall_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(config.APIConfig{BaseURL: url, ServiceClientID: 502}, testutils.FixedIdentity("i"), nil, zap.NewNop())

	_, err := client.Call(context.Background(), "/x", outbound.CallOptions{})
	require.Error(t, err)
	assert.Equal(t, errors.CodeExternalServiceError, errors.GetCode(err))
	assert.Equal(t, "Failed to fetch", errors.UserMessage(err))
}
