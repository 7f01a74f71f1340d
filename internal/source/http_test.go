package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmdash/internal/config"
	"crmdash/internal/model"
)

func apiConfig(baseURL string) config.APIConfig {
	return config.APIConfig{
		BaseURL: baseURL,
		Token:   "s3cret",
		Timeout: 2 * time.Second,
		Endpoints: config.Endpoints{
			Customers:   "/webhook/crm/customers-list",
			Leads:       "/webhook/crm/leads-list",
			Stats:       "/webhook/crm/quick-stats",
			Escalations: "/webhook/crm/escalations-list",
			Campaigns:   "/webhook/crm/campaign-performance",
		},
	}
}

func TestClientFetch(t *testing.T) {
	var got actionPayload
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/webhook/crm/customers-list", r.URL.Path)
		headers = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[{"name":"Budi Santoso","phone":"62811"},{"name":"Siti Rahma"}]}`))
	}))
	defer srv.Close()

	client := NewClient(apiConfig(srv.URL+"/"), zerolog.Nop())
	customers, err := Customers(client)(context.Background())
	require.NoError(t, err)

	require.Len(t, customers, 2)
	assert.Equal(t, "Budi Santoso", customers[0].Name)
	assert.Equal(t, "-", customers[1].Phone)

	assert.Equal(t, "get_customers", got.Action)
	assert.True(t, strings.HasPrefix(got.RequestID, "req_"))
	assert.Equal(t, got.RequestID, headers.Get("X-Request-ID"))
	assert.Equal(t, "Bearer s3cret", headers.Get("Authorization"))
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow inactive", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(apiConfig(srv.URL), zerolog.Nop())
	_, err := client.Fetch(context.Background(), model.ResourceLeads)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Status)
	assert.Equal(t, "API error [404]: workflow inactive", err.Error())
}

func TestClientRejectsScalarPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`"ok"`))
	}))
	defer srv.Close()

	client := NewClient(apiConfig(srv.URL), zerolog.Nop())
	err := client.Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid response format")
}

func TestClientWarnsOnPartialList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"name":"Budi"},{"name":"Sari"}],"total":40,"page":1,"page_size":2}`))
	}))
	defer srv.Close()

	var logs bytes.Buffer
	client := NewClient(apiConfig(srv.URL), zerolog.New(&logs))
	raw, err := client.Fetch(context.Background(), model.ResourceLeads)
	require.NoError(t, err)
	assert.Len(t, model.Leads(raw), 2)
	assert.Contains(t, logs.String(), "webhook returned a partial list")
	assert.Contains(t, logs.String(), `"total":40`)

	logs.Reset()
	_, err = client.Fetch(context.Background(), model.ResourceCustomers)
	require.NoError(t, err)
	_, err = client.Fetch(context.Background(), model.ResourceStats)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(logs.String(), "partial list"), "stats is not a list")
}

func TestClientBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[`))
	}))
	defer srv.Close()

	client := NewClient(apiConfig(srv.URL), zerolog.Nop())
	_, err := client.Fetch(context.Background(), model.ResourceCampaigns)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON decode error")
}

func TestClientUnknownResource(t *testing.T) {
	client := NewClient(apiConfig("http://127.0.0.1:1"), zerolog.Nop())
	_, err := client.Fetch(context.Background(), model.Resource("chat_history"))
	assert.ErrorIs(t, err, ErrUnknownResource)
}

func TestClientRespectsContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(apiConfig(srv.URL), zerolog.Nop())
	_, err := client.Fetch(ctx, model.ResourceStats)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
