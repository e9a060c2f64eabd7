package watcher

import (
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/sgescale/gridwatch/sge"
	"github.com/sgescale/gridwatch/stats"
)

type fakeNodeInfo struct {
	nodes map[string]*sge.ComputeNode
	err   error
}

func (f *fakeNodeInfo) ComputeNodes() (map[string]*sge.ComputeNode, error) {
	return f.nodes, f.err
}

type fakeJobInfo struct {
	jobs        []*sge.PendingJob
	err         error
	gotMaxSlots int
	gotSkip     string
}

func (f *fakeJobInfo) PendingJobs(maxSlotsFilter int, skipIfState string) ([]*sge.PendingJob, error) {
	f.gotMaxSlots = maxSlotsFilter
	f.gotSkip = skipIfState
	return f.jobs, f.err
}

func testFleet() (*fakeNodeInfo, *fakeJobInfo) {
	nodes := &fakeNodeInfo{nodes: map[string]*sge.ComputeNode{
		"node1": {Name: "node1", SlotsUsed: 4},
		"node2": {Name: "node2", SlotsUsed: 1, SlotsReserved: 1},
		"node3": {Name: "node3"},
	}}
	jobs := &fakeJobInfo{jobs: []*sge.PendingJob{
		{Number: "1", Slots: 1},
		{Number: "2", Slots: 3},
		{Number: "3", Slots: 5},
	}}
	return nodes, jobs
}

func TestRequiredNodes(t *testing.T) {
	nodes, jobs := testFleet()
	w := New(nodes, jobs, 4, 10, stats.NilStatsReceiver())

	required, err := w.RequiredNodes()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if required != 2 {
		t.Errorf("Expected 2 required nodes (5 unmet slots at 4 per node), got %d", required)
	}
	if jobs.gotMaxSlots != 40 {
		t.Errorf("Expected maxSlotsFilter of maxSize*slotsPerNode=40, got %d", jobs.gotMaxSlots)
	}
	if jobs.gotSkip != sge.HoldState {
		t.Errorf("Expected held jobs filtered, got skipIfState %q", jobs.gotSkip)
	}
}

func TestBusyNodes(t *testing.T) {
	nodes, jobs := testFleet()
	w := New(nodes, jobs, 4, 10, stats.NilStatsReceiver())

	busy, err := w.BusyNodes()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if busy != 2 {
		t.Errorf("Expected 2 busy nodes, got %d", busy)
	}
}

func TestDecide(t *testing.T) {
	nodes, jobs := testFleet()
	w := New(nodes, jobs, 4, 10, stats.NilStatsReceiver())

	d, err := w.Decide()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if d.RequiredNodes != 2 || d.BusyNodes != 2 {
		t.Errorf("Unexpected decision %+v", d)
	}
	if d.CycleID == "" {
		t.Error("Expected a cycle id")
	}
}

func TestWatcherErrorsPropagate(t *testing.T) {
	nodes, jobs := testFleet()
	nodes.err = errors.New("qmaster unreachable")
	w := New(nodes, jobs, 4, 10, stats.NilStatsReceiver())

	if _, err := w.RequiredNodes(); err == nil {
		t.Error("Expected node fetch error from RequiredNodes")
	}
	if _, err := w.BusyNodes(); err == nil {
		t.Error("Expected node fetch error from BusyNodes")
	}
	if _, err := w.Decide(); err == nil {
		t.Error("Expected node fetch error from Decide")
	}

	nodes.err = nil
	jobs.err = errors.New("qstat failed")
	if _, err := w.RequiredSlots(); err == nil {
		t.Error("Expected job fetch error from RequiredSlots")
	}
}

func TestPoller(t *testing.T) {
	nodes, jobs := testFleet()
	w := New(nodes, jobs, 4, 10, stats.NilStatsReceiver())
	p := NewPoller(w, time.Millisecond)

	select {
	case d, ok := <-p.Decisions():
		if !ok {
			t.Fatal("Decision channel closed unexpectedly")
		}
		if d.RequiredNodes != 2 {
			t.Errorf("Unexpected decision %+v", d)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected a decision within a second")
	}

	p.Close()
	for range p.Decisions() {
	}
}
