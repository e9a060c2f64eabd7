// Package planner estimates unmet slot demand for the pending queue and
// counts nodes that are ineligible for scale-down.
package planner

import (
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/sgescale/gridwatch/sge"
)

// RequiredSlots computes the total slots pending jobs need beyond what the
// current hosts can absorb.
//
// Available slots per host are sorted ascending exactly once. Each pending
// job, in queue order, takes the first entry that still fits and decrements
// it in place; the list is never re-sorted, so a decremented entry keeps its
// original rank. Jobs that fit nowhere contribute their full demand to the
// returned total.
func RequiredSlots(slotsPerNode int, nodes map[string]*sge.ComputeNode, pending []*sge.PendingJob) int {
	availSlots := []int{}
	for _, node := range nodes {
		availSlots = append(availSlots, slotsPerNode-node.SlotsUsed-node.SlotsReserved)
	}
	sort.Ints(availSlots)
	log.Infof("slots before job match: %v", availSlots)
	required := matchSlots(availSlots, pending)
	log.Infof("slots after job match: %v", availSlots)

	return required
}

// matchSlots walks pending in queue order, fitting each job into the first
// availSlots entry with enough remaining capacity and decrementing it in
// place. Entries are scanned in index order even after decrements, and jobs
// that fit nowhere add their full demand to the returned total.
func matchSlots(availSlots []int, pending []*sge.PendingJob) int {
	required := 0
	for _, job := range pending {
		found := false
		for i := range availSlots {
			if job.Slots <= availSlots[i] {
				availSlots[i] -= job.Slots
				found = true
				break
			}
		}
		if !found {
			required += job.Slots
		}
	}
	return required
}

// RequiredNodes converts a slot requirement into a node count, rounding up.
func RequiredNodes(slotsPerNode, requiredSlots int) int {
	if requiredSlots <= 0 {
		return 0
	}
	return (requiredSlots + slotsPerNode - 1) / slotsPerNode
}

// BusyNodes counts hosts that have running or reserved work, or a state that
// blocks new job submission. Orphaned hosts are skipped: they are already
// outside the managed fleet and disappear once their jobs are deleted, so
// they must not block scale-down.
func BusyNodes(nodes map[string]*sge.ComputeNode) int {
	busy := 0
	for _, node := range nodes {
		if node.HasAnyState(sge.BusyStates) || node.SlotsUsed > 0 || node.SlotsReserved > 0 {
			if node.HasAnyState(sge.OrphanedState) {
				log.Infof("Skipping host %s since in orphaned state, hence not in the fleet. "+
					"Host will disappear when assigned jobs are deleted.", node.Name)
			} else {
				busy++
			}
		}
	}
	return busy
}
