package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"robodelivery/internal/core/domain/model/order"
)

func TestNew_RegistersAllCollectors(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg)

	m.TransitionApplied(order.Pending, order.VendorApproved)
	m.TransitionRejected(order.Cancelled, "conflict")
	m.DispatchOutcome(DispatchAssigned)
	m.DeliveryCodeChecked("ok")
	m.NotifierFailed()
	m.TelemetryRecorded()

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 6)
}

func TestMetrics_CountsByLabel(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.TransitionApplied(order.Pending, order.VendorApproved)
	m.TransitionApplied(order.Pending, order.VendorApproved)
	m.TransitionApplied(order.VendorApproved, order.RobotAssigned)
	m.DispatchOutcome(DispatchNoRobot)
	m.NotifierFailed()

	require.InDelta(t, 2, testutil.ToFloat64(m.transitions.WithLabelValues("pending", "vendor_approved")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.transitions.WithLabelValues("vendor_approved", "robot_assigned")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.dispatch.WithLabelValues(DispatchNoRobot)), 0)
	require.InDelta(t, 0, testutil.ToFloat64(m.dispatch.WithLabelValues(DispatchAssigned)), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.notifierFailures), 0)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	require.NotPanics(t, func() {
		m.TransitionApplied(order.Pending, order.Cancelled)
		m.TransitionRejected(order.Cancelled, "forbidden")
		m.DispatchOutcome(DispatchSkipped)
		m.DeliveryCodeChecked("invalid")
		m.NotifierFailed()
		m.TelemetryRecorded()
	})
}
