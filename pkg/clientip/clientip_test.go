package clientip_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperlocaleyes/backend/pkg/clientip"
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
			name:       "remote addr",
			remoteAddr: "203.0.113.7:51234",
			want:       "203.0.113.7",
		},
		{
			name:       "forwarded for first hop",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1, 10.0.0.2"},
			remoteAddr: "10.0.0.2:80",
			want:       "198.51.100.1",
		},
		{
			name: "forwarded for wins over real ip",
			headers: map[string]string{
				"X-Forwarded-For": "198.51.100.1",
				"X-Real-IP":       "198.51.100.2",
			},
			remoteAddr: "10.0.0.2:80",
			want:       "198.51.100.1",
		},
		{
			name:       "invalid forwarded for falls through to real ip",
			headers:    map[string]string{"X-Forwarded-For": "unknown", "X-Real-IP": "198.51.100.2"},
			remoteAddr: "10.0.0.2:80",
			want:       "198.51.100.2",
		},
		{
			name:       "cloudflare header first",
			headers:    map[string]string{"CF-Connecting-IP": "192.0.2.9", "X-Forwarded-For": "198.51.100.1"},
			remoteAddr: "10.0.0.2:80",
			want:       "192.0.2.9",
		},
		{
			name:       "ipv4 mapped ipv6",
			remoteAddr: "[::ffff:192.0.2.1]:443",
			want:       "192.0.2.1",
		},
		{
			name:       "ipv6 kept whole",
			headers:    map[string]string{"X-Forwarded-For": "2001:db8::1"},
			remoteAddr: "10.0.0.2:80",
			want:       "2001:db8::1",
		},
		{
			name:       "unspecified rejected",
			headers:    map[string]string{"X-Real-IP": "0.0.0.0"},
			remoteAddr: "192.0.2.3:80",
			want:       "192.0.2.3",
		},
		{
			name:       "unparseable remote addr returned raw",
			remoteAddr: "pipe",
			want:       "pipe",
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

func TestNormalize(t *testing.T) {
	t.Parallel()

	ip, ok := clientip.Normalize(" [2001:DB8::1] ")
	assert.True(t, ok)
	assert.Equal(t, "2001:db8::1", ip)

	ip, ok = clientip.Normalize("fe80::1%eth0")
	assert.True(t, ok)
	assert.Equal(t, "fe80::1", ip)

	_, ok = clientip.Normalize("::")
	assert.False(t, ok)

	_, ok = clientip.Normalize("not-an-ip")
	assert.False(t, ok)
}
