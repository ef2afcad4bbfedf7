package fetch

import (
	"strings"
	"testing"

	"github.com/minsoo-dev/libcrowd/models"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantOk  bool
		wantMsg string
	}{
		{name: "200", status: 200, wantOk: true},
		{name: "204", status: 204, wantOk: true},
		{name: "299", status: 299, wantOk: true},
		{name: "301", status: 301, wantOk: false, wantMsg: "status 301, not 2xx"},
		{name: "404", status: 404, wantOk: false, wantMsg: "status 404, not 2xx"},
		{name: "503", status: 503, wantOk: false, wantMsg: "status 503, not 2xx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr := models.FetchResult{Timestamp: "2025-11-06_11-20-02", RawContent: "body", StatusCode: tt.status}
			r := Validate(fr)
			if r.IsOk() != tt.wantOk {
				t.Fatalf("Validate(%d) ok=%v, want %v", tt.status, r.IsOk(), tt.wantOk)
			}
			if tt.wantOk {
				if got := r.Value(); got != fr {
					t.Fatalf("Ok must pass the fetch result through unchanged")
				}
				return
			}
			if !strings.Contains(r.Error().Error(), tt.wantMsg) {
				t.Fatalf("error %q should contain %q", r.Error(), tt.wantMsg)
			}
		})
	}
}
