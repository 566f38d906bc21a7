package clientip_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/billingkit/pkg/clientip"
)

func TestGetIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "remote addr fallback",
			remoteAddr: "203.0.113.7:51234",
			want:       "203.0.113.7",
		},
		{
			name:       "x-forwarded-for first entry",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1"},
			remoteAddr: "10.0.0.1:80",
			want:       "198.51.100.1",
		},
		{
			name:       "x-forwarded-for skips invalid entries",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip, 198.51.100.2"},
			remoteAddr: "10.0.0.1:80",
			want:       "198.51.100.2",
		},
		{
			name:       "cloudflare header wins",
			headers:    map[string]string{"CF-Connecting-IP": "198.51.100.3", "X-Forwarded-For": "198.51.100.4"},
			remoteAddr: "10.0.0.1:80",
			want:       "198.51.100.3",
		},
		{
			name:       "x-real-ip",
			headers:    map[string]string{"X-Real-IP": "198.51.100.5"},
			remoteAddr: "10.0.0.1:80",
			want:       "198.51.100.5",
		},
		{
			name:       "ipv6 normalized",
			headers:    map[string]string{"X-Forwarded-For": "2001:DB8::1"},
			remoteAddr: "10.0.0.1:80",
			want:       "2001:db8::1",
		},
		{
			name:       "spoofed header ignored",
			headers:    map[string]string{"X-Forwarded-For": "<script>alert(1)</script>"},
			remoteAddr: "203.0.113.8:443",
			want:       "203.0.113.8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, clientip.GetIP(r))
		})
	}
}
