// Package watcher orchestrates one planning cycle: fetch fresh node and job
// snapshots from the scheduler adapters, run the capacity planner over them,
// and surface the scaling decision.
package watcher

import (
	"github.com/sgescale/gridwatch/planner"
	"github.com/sgescale/gridwatch/sge"
	"github.com/sgescale/gridwatch/stats"
)

// NodeInfoer supplies a fresh snapshot of the current execution hosts.
type NodeInfoer interface {
	ComputeNodes() (map[string]*sge.ComputeNode, error)
}

// JobInfoer supplies the pending queue, pre-filtered for held jobs and jobs
// the fleet can never fit. Each call must return a fresh snapshot; the
// planner assumes nothing is cached between cycles.
type JobInfoer interface {
	PendingJobs(maxSlotsFilter int, skipIfState string) ([]*sge.PendingJob, error)
}

// Watcher computes scaling decisions for a fleet of maxSize nodes carrying
// slotsPerNode slots each.
type Watcher struct {
	nodes        NodeInfoer
	jobs         JobInfoer
	slotsPerNode int
	maxSize      int
	stat         stats.StatsReceiver
}

func New(nodes NodeInfoer, jobs JobInfoer, slotsPerNode, maxSize int, stat stats.StatsReceiver) *Watcher {
	return &Watcher{
		nodes:        nodes,
		jobs:         jobs,
		slotsPerNode: slotsPerNode,
		maxSize:      maxSize,
		stat:         stat,
	}
}

// RequiredSlots returns the pending queue's slot demand that the current
// hosts cannot absorb.
func (w *Watcher) RequiredSlots() (int, error) {
	nodes, err := w.nodes.ComputeNodes()
	if err != nil {
		return 0, err
	}
	maxClusterSlots := w.maxSize * w.slotsPerNode
	pending, err := w.jobs.PendingJobs(maxClusterSlots, sge.HoldState)
	if err != nil {
		return 0, err
	}
	required := planner.RequiredSlots(w.slotsPerNode, nodes, pending)
	w.stat.Gauge("requiredSlots").Update(int64(required))
	return required, nil
}

// RequiredNodes returns how many nodes must be added to drain the queue.
func (w *Watcher) RequiredNodes() (int, error) {
	slots, err := w.RequiredSlots()
	if err != nil {
		return 0, err
	}
	required := planner.RequiredNodes(w.slotsPerNode, slots)
	w.stat.Gauge("requiredNodes").Update(int64(required))
	return required, nil
}

// BusyNodes returns how many current hosts are ineligible for scale-down.
func (w *Watcher) BusyNodes() (int, error) {
	nodes, err := w.nodes.ComputeNodes()
	if err != nil {
		return 0, err
	}
	busy := planner.BusyNodes(nodes)
	w.stat.Gauge("busyNodes").Update(int64(busy))
	return busy, nil
}
