package observability

import (
	"strings"
	"testing"
	"time"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObservePlannerOp("recompute", time.Millisecond, "ok")
	m.IncOverrideDropped()
	m.IncSave("ok")
	m.SetSaveQueueDepth(3)
	m.IncSchemaFetch("hit")
	if got := m.PlannerOps("recompute", "ok"); got != 0 {
		t.Fatalf("nil PlannerOps: want=0 got=%v", got)
	}
	var b strings.Builder
	if err := m.WritePrometheus(&b); err != nil || b.Len() != 0 {
		t.Fatalf("nil WritePrometheus: err=%v out=%q", err, b.String())
	}
}

func TestWritePrometheus(t *testing.T) {
	m := New()
	m.ObservePlannerOp("recompute", 2*time.Millisecond, "ok")
	m.ObservePlannerOp("recompute", 3*time.Millisecond, "ok")
	m.ObservePlannerOp("add_courses", time.Millisecond, "superseded")
	m.IncOverrideDropped()
	m.SetSaveQueueDepth(2)

	if got := m.PlannerOps("recompute", "ok"); got != 2 {
		t.Fatalf("PlannerOps: want=2 got=%v", got)
	}

	var b strings.Builder
	if err := m.WritePrometheus(&b); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := b.String()
	for _, want := range []string{
		"# TYPE planner_operations_total counter",
		`planner_operations_total{op="recompute",status="ok"} 2`,
		`planner_operations_total{op="add_courses",status="superseded"} 1`,
		`planner_operation_duration_seconds_bucket{op="recompute",le="0.005"} 2`,
		`planner_operation_duration_seconds_count{op="recompute"} 2`,
		"planner_superseded_total 1",
		"planner_overrides_dropped_total 1",
		"planner_save_queue_depth 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Index(out, `op="add_courses"`) > strings.Index(out, `op="recompute"`) {
		t.Fatalf("label sets not sorted:\n%s", out)
	}
}

func TestLabelEscaping(t *testing.T) {
	if got := labelString([]string{"plan"}, []string{`a"b\c`}); got != `{plan="a\"b\\c"}` {
		t.Fatalf("labelString: got %s", got)
	}
	if got := withLe("", "+Inf"); got != `{le="+Inf"}` {
		t.Fatalf("withLe: got %s", got)
	}
}
