package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDeviceRequest(t *testing.T) {
	before := testutil.ToFloat64(DeviceRequestsTotal.WithLabelValues("get_yearly", "error"))
	RecordDeviceRequest("get_yearly", 20*time.Millisecond, errors.New("timeout"))
	after := testutil.ToFloat64(DeviceRequestsTotal.WithLabelValues("get_yearly", "error"))

	if after-before != 1 {
		t.Errorf("error counter moved by %v, want 1", after-before)
	}
}

func TestRecordClamped(t *testing.T) {
	before := testutil.ToFloat64(CodecClampedValues)
	RecordClamped(0)
	RecordClamped(3)
	if got := testutil.ToFloat64(CodecClampedValues) - before; got != 3 {
		t.Errorf("clamped counter moved by %v, want 3", got)
	}
}

func TestRecordCurveEdit(t *testing.T) {
	before := testutil.ToFloat64(CurveEditsTotal.WithLabelValues("drag", "true"))
	RecordCurveEdit("drag", true)
	if got := testutil.ToFloat64(CurveEditsTotal.WithLabelValues("drag", "true")) - before; got != 1 {
		t.Errorf("edit counter moved by %v, want 1", got)
	}
}

func TestRecordDBQuery(t *testing.T) {
	before := testutil.ToFloat64(ArchiveQueriesTotal.WithLabelValues("INSERT", "profile_snapshots", "success"))
	RecordDBQuery("INSERT", "profile_snapshots", time.Millisecond, nil)
	if got := testutil.ToFloat64(ArchiveQueriesTotal.WithLabelValues("INSERT", "profile_snapshots", "success")) - before; got != 1 {
		t.Errorf("query counter moved by %v, want 1", got)
	}
}

func TestRecordArchivePool(t *testing.T) {
	RecordArchivePool(4, 1, 3)
	if got := testutil.ToFloat64(ArchivePool.WithLabelValues("idle")); got != 3 {
		t.Errorf("idle gauge = %v, want 3", got)
	}
	if got := testutil.ToFloat64(ArchivePool.WithLabelValues("in_use")); got != 1 {
		t.Errorf("in_use gauge = %v, want 1", got)
	}
}
