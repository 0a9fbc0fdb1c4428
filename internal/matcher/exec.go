package matcher

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cli/safeexec"
	"golang.org/x/sync/semaphore"

	"github.com/repogrep/repogrep-mcp/internal/config"
	"github.com/repogrep/repogrep-mcp/pkg/types"
)

// maxLineBytes bounds a single output line. Minified files can produce
// multi-megabyte lines; anything over this is dropped, the rest of the
// stream is still read.
const maxLineBytes = 1024 * 1024

// waitDelay gives a killed child this long to exit before its pipes are
// forcibly closed. Keeps zombies from outliving the request.
const waitDelay = 2 * time.Second

// ExecRunner runs ripgrep as a child process, one process per attempt.
// A weighted semaphore caps how many children run at once across
// concurrent requests.
type ExecRunner struct {
	rgPath  string
	timeout time.Duration
	sem     *semaphore.Weighted
}

// NewExecRunner builds a runner from configuration. The binary is looked
// up per invocation, not here, so a missing ripgrep surfaces as a
// per-request ToolUnavailable outcome rather than a startup failure.
func NewExecRunner(cfg *config.Config) *ExecRunner {
	r := &ExecRunner{
		rgPath:  cfg.RgPath,
		timeout: cfg.AttemptTimeout,
	}
	if cfg.MaxConcurrentSearches > 0 {
		r.sem = semaphore.NewWeighted(int64(cfg.MaxConcurrentSearches))
	}
	return r
}

// Search implements Runner.
func (r *ExecRunner) Search(ctx context.Context, inv Invocation) (Result, error) {
	bin, err := safeexec.LookPath(r.rgPath)
	if err != nil {
		return Result{Outcome: types.OutcomeToolUnavailable, Stderr: err.Error()}, nil
	}

	if r.sem != nil {
		if err := r.sem.Acquire(ctx, 1); err != nil {
			return Result{}, err
		}
		defer r.sem.Release(1)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, bin, inv.Args...)
	cmd.Dir = inv.Root
	cmd.WaitDelay = waitDelay

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, err
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return Result{Outcome: types.OutcomeToolUnavailable, Stderr: err.Error()}, nil
		}
		return Result{}, fmt.Errorf("starting %s: %w", r.rgPath, err)
	}

	var (
		lines     []types.MatchLine
		rawLines  int
		truncated bool
		readErr   error
	)
	br := bufio.NewReaderSize(stdout, 64*1024)
	for {
		text, skipped, err := nextLine(br)
		if skipped {
			// An oversized line is dropped like any other unparsable
			// line; the rest of the stream still counts.
			rawLines++
		} else if err == nil || text != "" {
			rawLines++
			if ml, ok := parseMatchLine(text); ok {
				lines = append(lines, ml)
				if inv.MaxLines > 0 && len(lines) >= inv.MaxLines {
					// The cap is reached; killing the child is cheaper
					// than draining the rest of its output.
					truncated = true
					cancel()
					break
				}
			}
		}
		if err != nil {
			if err != io.EOF {
				readErr = err
			}
			break
		}
	}
	_, _ = io.Copy(io.Discard, stdout)
	waitErr := cmd.Wait()

	switch {
	case truncated:
		return Result{Outcome: types.OutcomeMatched, Lines: lines, Truncated: true, Stderr: stderr.String()}, nil
	case ctx.Err() != nil:
		// Caller cancellation; the child has already been killed.
		return Result{}, ctx.Err()
	case runCtx.Err() == context.DeadlineExceeded:
		return Result{Outcome: types.OutcomeTimeout, Stderr: stderr.String()}, nil
	}

	if waitErr == nil {
		if len(lines) == 0 {
			if readErr != nil {
				// The stream broke before anything parsed; that is an
				// I/O failure, not an output-contract violation.
				return Result{}, fmt.Errorf("reading matcher output: %w", readErr)
			}
			// Exit 0 promises matches. Zero parsable lines means the
			// output contract is broken, not that nothing matched.
			return Result{}, fmt.Errorf("%w (%d raw lines)", types.ErrMalformedOutput, rawLines)
		}
		return Result{Outcome: types.OutcomeMatched, Lines: lines, Stderr: stderr.String()}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if outcome, ok := classifyExit(exitErr.ExitCode(), stderr.String()); ok {
			return Result{Outcome: outcome, Stderr: stderr.String()}, nil
		}
		return Result{}, fmt.Errorf("%s exited %d: %s", r.rgPath, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
	}
	return Result{}, waitErr
}

// ListFiles implements Runner using rg --files.
func (r *ExecRunner) ListFiles(ctx context.Context, root string, hidden, ignored bool, max int) ([]string, error) {
	bin, err := safeexec.LookPath(r.rgPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrToolUnavailable, err)
	}

	if r.sem != nil {
		if err := r.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer r.sem.Release(1)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := []string{"--files"}
	if hidden {
		args = append(args, "--hidden")
	}
	if ignored {
		args = append(args, "--no-ignore")
	}

	cmd := exec.CommandContext(runCtx, bin, args...)
	cmd.Dir = root
	cmd.WaitDelay = waitDelay

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", r.rgPath, err)
	}

	var paths []string
	br := bufio.NewReaderSize(stdout, 64*1024)
	for {
		text, skipped, err := nextLine(br)
		if !skipped {
			if p := strings.TrimSpace(text); p != "" {
				paths = append(paths, p)
			}
		}
		if max > 0 && len(paths) >= max {
			cancel()
			break
		}
		if err != nil {
			break
		}
	}
	_, _ = io.Copy(io.Discard, stdout)
	waitErr := cmd.Wait()

	if max > 0 && len(paths) >= max {
		return paths, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if runCtx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("listing files timed out after %s", r.timeout)
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		// Exit 1 just means no files to list.
		if errors.As(waitErr, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		return nil, fmt.Errorf("listing files: %s: %s", waitErr, strings.TrimSpace(stderr.String()))
	}
	return paths, nil
}

// nextLine reads one newline-delimited line from r. A line longer than
// maxLineBytes is consumed to its newline and reported as skipped so
// that one oversized line cannot abort the rest of the stream. The
// final line of output without a trailing newline is returned together
// with io.EOF.
func nextLine(r *bufio.Reader) (string, bool, error) {
	var buf []byte
	tooLong := false
	for {
		frag, err := r.ReadSlice('\n')
		if !tooLong {
			buf = append(buf, frag...)
			if len(buf) > maxLineBytes {
				tooLong = true
				buf = nil
			}
		}
		switch {
		case err == nil:
			if tooLong {
				return "", true, nil
			}
			return strings.TrimRight(string(buf), "\r\n"), false, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if tooLong {
				return "", true, io.EOF
			}
			return strings.TrimRight(string(buf), "\r\n"), false, io.EOF
		default:
			return "", tooLong, err
		}
	}
}
