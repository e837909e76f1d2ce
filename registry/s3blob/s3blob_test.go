package s3blob

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klejdi94/basis/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// objectServer answers path-style GET, PUT and DELETE object requests.
type objectServer struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (o *objectServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	o.mu.Lock()
	defer o.mu.Unlock()
	key := strings.TrimPrefix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		o.objects[key] = body
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := o.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		_, _ = w.Write(body)
	case http.MethodDelete:
		delete(o.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newTestStore(t *testing.T) (*Store, *objectServer) {
	t.Helper()
	srv := &objectServer{objects: map[string][]byte{}}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(ts.URL),
		UsePathStyle: true,
		Credentials:  aws.AnonymousCredentials{},
	})
	return New(client, "classes", "basis/"), srv
}

func TestStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	store, srv := newTestStore(t)

	require.NoError(t, store.Put(ctx, "class/a/1.0.0.json", []byte(`{"id":"a"}`)))
	assert.Contains(t, srv.objects, "classes/basis/class/a/1.0.0.json")

	got, err := store.Get(ctx, "class/a/1.0.0.json")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"a"}`, string(got))

	require.NoError(t, store.Delete(ctx, "class/a/1.0.0.json"))
	_, err = store.Get(ctx, "class/a/1.0.0.json")
	assert.ErrorIs(t, err, registry.ErrBlobNotFound)
}

func TestNewFromConfig_RequiresBucket(t *testing.T) {
	_, err := NewFromConfig(context.Background(), "", "", Options{})
	assert.ErrorContains(t, err, "bucket is required")
}
