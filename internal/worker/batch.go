package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/edgarflat/internal/model"
	"github.com/ppiankov/edgarflat/internal/pipeline"
)

// ErrDuplicateUser rejects batch files that would run one user twice.
// Two runs for the same user would race on the same tables.
var ErrDuplicateUser = errors.New("user appears more than once")

// Processor runs one company selection for one user
type Processor interface {
	Process(ctx context.Context, cik string, user model.User) (*pipeline.RunSummary, error)
}

// UserLookup resolves a user id to the stored identity
type UserLookup interface {
	User(ctx context.Context, id string) (model.User, error)
}

// Request is one "<user> <cik>" line of a batch file
type Request struct {
	Line   int
	UserID string
	CIK    string
}

// RunJob executes one Request
type RunJob struct {
	Index     int
	Request   Request
	Processor Processor
	Users     UserLookup
}

// Execute resolves the user and runs the pipeline
func (j *RunJob) Execute(ctx context.Context) Result {
	res := &RunResult{Index: j.Index, Request: j.Request}
	user, err := j.Users.User(ctx, j.Request.UserID)
	if err != nil {
		res.Error = err
		return res
	}
	res.Summary, res.Error = j.Processor.Process(ctx, j.Request.CIK, user)
	return res
}

// RunResult is the outcome of one Request
type RunResult struct {
	Index   int
	Request Request
	Summary *pipeline.RunSummary
	Error   error
}

// GetError returns the run error
func (r *RunResult) GetError() error {
	return r.Error
}

// BatchProcessor fans requests out over a worker pool
type BatchProcessor struct {
	processor   Processor
	users       UserLookup
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(processor Processor, users UserLookup, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		users:       users,
		concurrency: concurrency,
	}
}

// ProcessRequests runs every request and returns results in input order.
// If ctx ends first the pool is shut down and requests that never reported
// carry the context error.
func (b *BatchProcessor) ProcessRequests(ctx context.Context, reqs []Request) []*RunResult {
	if len(reqs) == 0 {
		return []*RunResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	stop := context.AfterFunc(ctx, pool.Shutdown)
	defer stop()

	go func() {
		for i, req := range reqs {
			if !pool.Submit(&RunJob{Index: i, Request: req, Processor: b.processor, Users: b.users}) {
				break
			}
		}
		pool.Close()
	}()

	results := make([]*RunResult, len(reqs))
	for r := range pool.Results() {
		res := r.(*RunResult)
		results[res.Index] = res
	}
	for i, res := range results {
		if res == nil {
			results[i] = &RunResult{Index: i, Request: reqs[i], Error: fmt.Errorf("not run: %w", cause(ctx))}
		}
	}
	return results
}

func cause(ctx context.Context) error {
	if err := context.Cause(ctx); err != nil {
		return err
	}
	return context.Canceled
}

// ProcessFile reads a batch file and runs it
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]*RunResult, error) {
	reqs, err := ReadRequestsFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("read requests: %w", err)
	}
	return b.ProcessRequests(ctx, reqs), nil
}

// ReadRequestsFromFile parses a batch file
func ReadRequestsFromFile(path string) ([]Request, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return ParseRequests(file)
}

// ParseRequests reads "<user> <cik>" lines. Blank lines and # comments are
// skipped; any other malformed line, or a user listed twice, is an error.
func ParseRequests(r io.Reader) ([]Request, error) {
	var reqs []Request
	seen := make(map[string]int)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: want \"<user> <cik>\", got %q", line, text)
		}
		if err := model.ValidateUserID(fields[0]); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if first, ok := seen[fields[0]]; ok {
			return nil, fmt.Errorf("line %d: %w: %s (first on line %d)", line, ErrDuplicateUser, fields[0], first)
		}
		seen[fields[0]] = line
		reqs = append(reqs, Request{Line: line, UserID: fields[0], CIK: fields[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return reqs, nil
}
