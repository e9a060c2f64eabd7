// Package sge provides the Grid Engine domain records and the command
// adapters that build them from scheduler output.
package sge

import (
	"strings"

	"github.com/sgescale/gridwatch/mapper"
)

// Host state letters that make a node unusable for new work.
const BusyStates = "uCsdDEPo"

// Job state letter for held jobs, excluded from capacity planning.
const HoldState = "h"

// Host state letter for nodes already being drained out of the fleet.
const OrphanedState = "o"

// ComputeNode is one execution host, built from a row of the pipe-delimited
// node report. State holds the raw state letters ("au", "d", ...).
type ComputeNode struct {
	Name          string
	State         string
	SlotsUsed     int
	SlotsReserved int
	SlotsTotal    int
}

var computeNodeMapping = mapper.NewMapping(
	mapper.Map("name", mapper.FieldSpec{
		Assign: func(r mapper.Record, v interface{}) { r.(*ComputeNode).Name = v.(string) },
	}),
	mapper.Map("state", mapper.FieldSpec{
		Assign: func(r mapper.Record, v interface{}) { r.(*ComputeNode).State = v.(string) },
	}),
	mapper.Map("slots_used", mapper.FieldSpec{
		Transform: mapper.ToInt,
		Assign:    func(r mapper.Record, v interface{}) { r.(*ComputeNode).SlotsUsed = v.(int) },
	}),
	mapper.Map("slots_reserved", mapper.FieldSpec{
		Transform: mapper.ToInt,
		Assign:    func(r mapper.Record, v interface{}) { r.(*ComputeNode).SlotsReserved = v.(int) },
	}),
	mapper.Map("slots_total", mapper.FieldSpec{
		Transform: mapper.ToInt,
		Assign:    func(r mapper.Record, v interface{}) { r.(*ComputeNode).SlotsTotal = v.(int) },
	}),
)

func (n *ComputeNode) Mapping() mapper.Mapping { return computeNodeMapping }

func (n *ComputeNode) Fields() []mapper.Field {
	return []mapper.Field{
		{Name: "name", Value: n.Name},
		{Name: "state", Value: n.State},
		{Name: "slots_used", Value: n.SlotsUsed},
		{Name: "slots_reserved", Value: n.SlotsReserved},
		{Name: "slots_total", Value: n.SlotsTotal},
	}
}

func (n *ComputeNode) String() string { return mapper.Render(n) }

// HasAnyState reports whether any of the given state letters is set.
func (n *ComputeNode) HasAnyState(letters string) bool {
	return strings.ContainsAny(n.State, letters)
}

// PendingJob is one queued job, built from a qstat -xml job_list subtree.
// HardRequests holds the attribute-aggregated per-resource hard requests:
// a single {name: value} map, or an ordered slice of them.
type PendingJob struct {
	Number         string
	State          string
	SubmissionTime string
	NodeType       string
	ArrayIndex     string
	Hostname       string
	Slots          int
	HardRequests   interface{}
}

var pendingJobMapping = mapper.NewMapping(
	mapper.Map("JB_job_number", mapper.FieldSpec{
		Assign: func(r mapper.Record, v interface{}) { r.(*PendingJob).Number = v.(string) },
	}),
	mapper.Map("state", mapper.FieldSpec{
		Assign: func(r mapper.Record, v interface{}) { r.(*PendingJob).State = v.(string) },
	}),
	mapper.Map("JB_submission_time", mapper.FieldSpec{
		Assign: func(r mapper.Record, v interface{}) { r.(*PendingJob).SubmissionTime = v.(string) },
	}),
	mapper.Map("master", mapper.FieldSpec{
		Assign: func(r mapper.Record, v interface{}) { r.(*PendingJob).NodeType = v.(string) },
	}),
	mapper.Map("tasks", mapper.FieldSpec{
		Assign: func(r mapper.Record, v interface{}) { r.(*PendingJob).ArrayIndex = v.(string) },
	}),
	mapper.Map("queue_name", mapper.FieldSpec{
		Assign: func(r mapper.Record, v interface{}) { r.(*PendingJob).Hostname = v.(string) },
	}),
	mapper.Map("slots", mapper.FieldSpec{
		Transform: mapper.ToInt,
		Assign:    func(r mapper.Record, v interface{}) { r.(*PendingJob).Slots = v.(int) },
	}),
	mapper.Map("hard_request", mapper.FieldSpec{
		Assign: func(r mapper.Record, v interface{}) { r.(*PendingJob).HardRequests = v },
	}),
)

func (j *PendingJob) Mapping() mapper.Mapping { return pendingJobMapping }

func (j *PendingJob) Fields() []mapper.Field {
	return []mapper.Field{
		{Name: "number", Value: j.Number},
		{Name: "state", Value: j.State},
		{Name: "submission_time", Value: j.SubmissionTime},
		{Name: "node_type", Value: j.NodeType},
		{Name: "array_index", Value: j.ArrayIndex},
		{Name: "hostname", Value: j.Hostname},
		{Name: "slots", Value: j.Slots},
		{Name: "hard_requests", Value: j.HardRequests},
	}
}

func (j *PendingJob) String() string { return mapper.Render(j) }

// HasAnyState reports whether any of the given state letters is set
// ("hqw" has the hold letter, for instance).
func (j *PendingJob) HasAnyState(letters string) bool {
	return strings.ContainsAny(j.State, letters)
}
