package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTriggerAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		token  string
		header string
		want   int
	}{
		{name: "valid token", token: "secret", header: "Bearer secret", want: http.StatusNoContent},
		{name: "wrong token", token: "secret", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "missing header", token: "secret", header: "", want: http.StatusUnauthorized},
		{name: "not bearer", token: "secret", header: "Basic secret", want: http.StatusUnauthorized},
		{name: "empty configured token rejects all", token: "", header: "Bearer anything", want: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/pipeline/run", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			TriggerAuth(tc.token)(next).ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
