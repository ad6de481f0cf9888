package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/hoc/internal/record"
)

var _ record.Uploader = (*Client)(nil)

// testClient creates a Client backed by a test HTTP server.
// The handler receives real S3 XML-protocol requests.
func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := s3.New(s3.Options{
		Region:       "fsn1",
		BaseEndpoint: aws.String(server.URL),
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider("test-key", "test-secret", ""),
		HTTPClient: &http.Client{
			Transport: &http.Transport{},
		},
	})

	return &Client{s3: client, bucket: "audit"}
}

// xmlResponse is a helper to write S3-style XML responses.
func xmlResponse(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(body))
}

func s3Error(code string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`, code, code)
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	client, err := NewClient(context.Background(), Options{
		Endpoint:  "https://fsn1.your-objectstorage.com",
		Region:    "fsn1",
		Bucket:    "audit",
		AccessKey: "a",
		SecretKey: "s",
	})
	require.NoError(t, err)
	assert.Equal(t, "audit", client.Bucket())

	_, err = NewClient(context.Background(), Options{Region: "fsn1"})
	assert.ErrorContains(t, err, "bucket is required")
}

func TestEnsureBucket(t *testing.T) {
	t.Parallel()

	t.Run("exists", func(t *testing.T) {
		t.Parallel()
		var methods []string
		var mu sync.Mutex
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			methods = append(methods, r.Method)
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
		}))

		require.NoError(t, client.EnsureBucket(context.Background()))
		assert.Equal(t, []string{http.MethodHead}, methods)
	})

	t.Run("created when missing", func(t *testing.T) {
		t.Parallel()
		var created bool
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodHead:
				w.WriteHeader(http.StatusNotFound)
			case http.MethodPut:
				created = true
				xmlResponse(w, http.StatusOK, `<?xml version="1.0" encoding="UTF-8"?><CreateBucketResult/>`)
			}
		}))

		require.NoError(t, client.EnsureBucket(context.Background()))
		assert.True(t, created)
	})

	t.Run("already owned", func(t *testing.T) {
		t.Parallel()
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			xmlResponse(w, http.StatusConflict, s3Error("BucketAlreadyOwnedByYou"))
		}))

		require.NoError(t, client.EnsureBucket(context.Background()))
	})

	t.Run("forbidden", func(t *testing.T) {
		t.Parallel()
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))

		err := client.EnsureBucket(context.Background())
		assert.ErrorContains(t, err, "failed to check bucket audit")
	})
}

func TestPutObject(t *testing.T) {
	t.Parallel()

	var gotPath, gotType string
	var gotBody []byte
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	err := client.PutObject(context.Background(), "runs/deploy/local/run-1.jsonl", []byte(`{"seq":1}`+"\n"), "application/x-ndjson")
	require.NoError(t, err)

	assert.Equal(t, "/audit/runs/deploy/local/run-1.jsonl", gotPath)
	assert.Equal(t, "application/x-ndjson", gotType)
	assert.Equal(t, `{"seq":1}`+"\n", string(gotBody))
}

func TestPutObject_Error(t *testing.T) {
	t.Parallel()

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		xmlResponse(w, http.StatusInternalServerError, s3Error("InternalError"))
	}))

	err := client.PutObject(context.Background(), "k", []byte("data"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to put object k in bucket audit")
}

func TestGetObject(t *testing.T) {
	t.Parallel()

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/audit/missing" {
			xmlResponse(w, http.StatusNotFound, s3Error("NoSuchKey"))
			return
		}
		_, _ = w.Write([]byte("payload"))
	}))

	data, err := client.GetObject(context.Background(), "present")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	_, err = client.GetObject(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestListObjects(t *testing.T) {
	t.Parallel()

	var gotPrefix string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPrefix = r.URL.Query().Get("prefix")
		xmlResponse(w, http.StatusOK, `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>audit</Name>
  <KeyCount>2</KeyCount>
  <MaxKeys>1000</MaxKeys>
  <IsTruncated>false</IsTruncated>
  <Contents><Key>runs/deploy/local/run-1.jsonl</Key><Size>10</Size></Contents>
  <Contents><Key>runs/deploy/local/run-2.jsonl</Key><Size>20</Size></Contents>
</ListBucketResult>`)
	}))

	keys, err := client.ListObjects(context.Background(), "runs/deploy/")
	require.NoError(t, err)
	assert.Equal(t, "runs/deploy/", gotPrefix)
	assert.Equal(t, []string{"runs/deploy/local/run-1.jsonl", "runs/deploy/local/run-2.jsonl"}, keys)
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	assert.False(t, isBucketAlreadyOwnedByYou(nil))
	assert.True(t, isBucketAlreadyOwnedByYou(fmt.Errorf("wrapped: %w", &s3types.BucketAlreadyOwnedByYou{})))
	assert.True(t, isBucketAlreadyOwnedByYou(&smithy.GenericAPIError{Code: "BucketAlreadyOwnedByYou"}))
	assert.False(t, isBucketAlreadyOwnedByYou(errors.New("boom")))

	assert.False(t, isNotFoundError(nil))
	assert.True(t, isNotFoundError(fmt.Errorf("wrapped: %w", &s3types.NoSuchBucket{})))
	assert.True(t, isNotFoundError(&smithy.GenericAPIError{Code: "404"}))
	assert.False(t, isNotFoundError(&smithy.GenericAPIError{Code: "AccessDenied"}))
}
