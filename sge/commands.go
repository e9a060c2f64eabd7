package sge

import (
	"context"
	"os/exec"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/sgescale/gridwatch/mapper"
)

const (
	// DefaultNodeInfoCommand folds qstat's per-queue-instance listing into
	// the pipe-delimited node table the mapper understands. The resv/used/tot
	// column splits into the three slot counts.
	DefaultNodeInfoCommand = `qstat -f -u '*' | awk -F'[ /]+' 'BEGIN {print "name|state|slots_reserved|slots_used|slots_total"} /@/ {split($1, q, "@"); print q[2] "|" $8 "|" $3 "|" $4 "|" $5}'`

	// DefaultJobInfoCommand lists pending jobs with their resource requests.
	DefaultJobInfoCommand = `qstat -xml -g d -s p -u '*' -r`

	DefaultSeparator      = "|"
	DefaultCommandTimeout = 30 * time.Second
	DefaultMaxRetries     = 3
)

// Runner executes one scheduler command line and returns its stdout.
type Runner interface {
	Run(command string) (string, error)
}

type execRunner struct {
	timeout time.Duration
	retries uint64
	limiter *rate.Limiter
}

// NewExecRunner returns a Runner that shells out to the scheduler CLI.
// Each invocation is bounded by timeout and retried with exponential backoff
// on failure. The rate limiter caps qmaster queries when the caller polls
// aggressively; ratePerSec <= 0 disables the cap.
func NewExecRunner(timeout time.Duration, maxRetries uint64, ratePerSec float64) Runner {
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	return &execRunner{
		timeout: timeout,
		retries: maxRetries,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (r *execRunner) Run(command string) (string, error) {
	if err := r.limiter.Wait(context.Background()); err != nil {
		return "", err
	}
	var out []byte
	op := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		b, err := exec.CommandContext(ctx, "sh", "-c", command).Output()
		if err != nil {
			log.Errorf("Scheduler command failed, will retry: %v", err)
			return err
		}
		out = b
		return nil
	}
	err := backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), r.retries))
	if err != nil {
		return "", errors.Wrapf(err, "running %q", command)
	}
	return string(out), nil
}

// Client fetches node and job snapshots from the scheduler.
type Client struct {
	runner  Runner
	nodeCmd string
	jobCmd  string
	sep     string
}

func NewClient(runner Runner, nodeCmd, jobCmd, sep string) *Client {
	return &Client{runner: runner, nodeCmd: nodeCmd, jobCmd: jobCmd, sep: sep}
}

// DefaultClient returns a Client using the stock qstat command lines.
func DefaultClient(runner Runner) *Client {
	return NewClient(runner, DefaultNodeInfoCommand, DefaultJobInfoCommand, DefaultSeparator)
}

// ComputeNodes returns the current execution hosts keyed by host name.
func (c *Client) ComputeNodes() (map[string]*ComputeNode, error) {
	out, err := c.runner.Run(c.nodeCmd)
	if err != nil {
		return nil, errors.Wrap(err, "fetching node report")
	}
	recs, err := mapper.FromTable(out, c.sep, func() mapper.Record { return &ComputeNode{} })
	if err != nil {
		return nil, errors.Wrap(err, "mapping node report")
	}
	nodes := map[string]*ComputeNode{}
	for _, r := range recs {
		n := r.(*ComputeNode)
		nodes[n.Name] = n
	}
	return nodes, nil
}

// PendingJobs returns queued jobs in scheduler queue order, skipping jobs
// whose state contains any of skipIfState's letters and jobs requesting more
// than maxSlotsFilter slots (a demand the fleet can never satisfy).
// maxSlotsFilter <= 0 disables the slot filter.
func (c *Client) PendingJobs(maxSlotsFilter int, skipIfState string) ([]*PendingJob, error) {
	out, err := c.runner.Run(c.jobCmd)
	if err != nil {
		return nil, errors.Wrap(err, "fetching job report")
	}
	root, err := mapper.ParseDocument(out)
	if err != nil {
		return nil, err
	}
	var jobs []*PendingJob
	for _, el := range root.FindAll("job_list") {
		job := &PendingJob{}
		if err := mapper.FromElement(el, job); err != nil {
			return nil, errors.Wrap(err, "mapping job report")
		}
		if skipIfState != "" && job.HasAnyState(skipIfState) {
			log.Infof("Skipping job %s in state %s", job.Number, job.State)
			continue
		}
		if maxSlotsFilter > 0 && job.Slots > maxSlotsFilter {
			log.Infof("Skipping job %s requesting %d slots, above cluster max %d",
				job.Number, job.Slots, maxSlotsFilter)
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
