package observability

import (
	"testing"

	"github.com/danmuck/gatewayctl/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	before := testutil.ToFloat64(reconnects.WithLabelValues("liveness_failure"))
	RecordReconnect("liveness_failure")
	if got := testutil.ToFloat64(reconnects.WithLabelValues("liveness_failure")); got != before+1 {
		t.Fatalf("reconnect counter got=%v want=%v", got, before+1)
	}

	sentBefore := testutil.ToFloat64(heartbeatsSent)
	RecordHeartbeatSent()
	RecordHeartbeatAck()
	RecordHandshake("identify")
	RecordDispatch("MESSAGE_CREATE")
	RecordMalformedEnvelope()
	RecordTransportClose(false, 1006)
	if got := testutil.ToFloat64(heartbeatsSent); got != sentBefore+1 {
		t.Fatalf("heartbeat counter got=%v want=%v", got, sentBefore+1)
	}
}

func TestSetSessionStateIsExclusive(t *testing.T) {
	testlog.Start(t)
	all := []string{"idle", "active", "reconnecting"}
	SetSessionState("active", all)
	if got := testutil.ToFloat64(sessionState.WithLabelValues("active")); got != 1 {
		t.Fatalf("active gauge=%v", got)
	}
	SetSessionState("reconnecting", all)
	if got := testutil.ToFloat64(sessionState.WithLabelValues("active")); got != 0 {
		t.Fatalf("active gauge after transition=%v", got)
	}
	if got := testutil.ToFloat64(sessionState.WithLabelValues("reconnecting")); got != 1 {
		t.Fatalf("reconnecting gauge=%v", got)
	}
}
