package requestid_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/requestid"
)

func serve(t *testing.T, headerValue string) (string, *httptest.ResponseRecorder) {
	t.Helper()

	var fromCtx string
	handler := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = requestid.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if headerValue != "" {
		req.Header.Set(requestid.Header, headerValue)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return fromCtx, rec
}

func TestMiddleware_GeneratesID(t *testing.T) {
	t.Parallel()

	id, rec := serve(t, "")
	require.NotEmpty(t, id)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Equal(t, id, rec.Header().Get(requestid.Header))
}

func TestMiddleware_ReusesValidID(t *testing.T) {
	t.Parallel()

	id, rec := serve(t, "req-abc_123")
	assert.Equal(t, "req-abc_123", id)
	assert.Equal(t, "req-abc_123", rec.Header().Get(requestid.Header))
}

func TestMiddleware_RejectsInvalidID(t *testing.T) {
	t.Parallel()

	t.Run("unsafe characters", func(t *testing.T) {
		t.Parallel()
		id, _ := serve(t, "bad id; DROP TABLE")
		assert.NotEqual(t, "bad id; DROP TABLE", id)
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
	})

	t.Run("too long", func(t *testing.T) {
		t.Parallel()
		long := strings.Repeat("a", 200)
		id, _ := serve(t, long)
		assert.NotEqual(t, long, id)
	})
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	extract := requestid.LoggerExtractor()

	ctx := requestid.WithContext(t.Context(), "req-1")
	attr, ok := extract(ctx)
	require.True(t, ok)
	assert.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "req-1", attr.Value.String())

	_, ok = extract(t.Context())
	assert.False(t, ok)
}
