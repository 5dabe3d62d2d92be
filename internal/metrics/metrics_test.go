package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/woozymasta/zenit-dash/internal/dashboard"
)

func TestObserve(t *testing.T) {
	before := testutil.ToFloat64(events.WithLabelValues("refilter"))
	ObserveEvent(dashboard.EffectRefilter, time.Millisecond)
	if got := testutil.ToFloat64(events.WithLabelValues("refilter")); got != before+1 {
		t.Errorf("refilter events = %v, want %v", got, before+1)
	}

	failed := testutil.ToFloat64(deletes.WithLabelValues("error"))
	ObserveDelete(errors.New("boom"))
	if got := testutil.ToFloat64(deletes.WithLabelValues("error")); got != failed+1 {
		t.Errorf("failed deletes = %v", got)
	}

	SetSizes(10, 4)
	if testutil.ToFloat64(records) != 10 || testutil.ToFloat64(filtered) != 4 {
		t.Error("sizes not published")
	}
}

func TestHandler(t *testing.T) {
	ObservePing(nil)

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), "zenit_dash_pings_total") {
		t.Error("pings counter missing from exposition")
	}
}
