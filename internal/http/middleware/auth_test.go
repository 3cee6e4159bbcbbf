package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBearerToken(t *testing.T) {
	cases := []struct {
		name   string
		method string
		target string
		header string
		want   string
	}{
		{name: "header", method: http.MethodPost, target: "/api/journal", header: "Bearer abc.def", want: "abc.def"},
		{name: "lowercase scheme", method: http.MethodGet, target: "/api/me", header: "bearer  xyz ", want: "xyz"},
		{name: "header beats query", method: http.MethodGet, target: "/api/events?token=q", header: "Bearer h", want: "h"},
		{name: "query on get", method: http.MethodGet, target: "/api/events?token=q", want: "q"},
		{name: "query ignored on post", method: http.MethodPost, target: "/api/journal?token=q", want: ""},
		{name: "basic scheme", method: http.MethodGet, target: "/api/me", header: "Basic Zm9v", want: ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.target, nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		if got := bearerToken(req); got != tc.want {
			t.Fatalf("%s: want=%q got=%q", tc.name, tc.want, got)
		}
	}
}
