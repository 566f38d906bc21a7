package environment_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/billingkit/pkg/environment"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var seen string
	handler := environment.Middleware(environment.Staging)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = environment.FromContext(r.Context())
		}),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "staging", seen)
}
