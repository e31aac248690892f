// Package shell runs external build tools and reports their outcome as a
// Result instead of raising, so callers decide what a failure means.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"golang.org/x/sys/execabs"
	"mvdan.cc/sh/v3/syntax"
)

// ErrExit is wrapped by Result.Check when a command exits non-zero.
var ErrExit = errors.New("command failed")

// Cmd describes a single external process invocation.
type Cmd struct {
	Name string
	Args []string
	Dir  string
	// Env overrides or extends the inherited environment.
	Env map[string]string
}

// Command returns a Cmd running name with args in dir.
func Command(dir, name string, args ...string) Cmd {
	return Cmd{Name: name, Args: args, Dir: dir}
}

// String renders c as a shell command line, with env assignments first.
func (c Cmd) String() string {
	var parts []string
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+"="+quote(c.Env[k]))
	}
	parts = append(parts, quote(c.Name))
	for _, a := range c.Args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return fmt.Sprintf("%q", s)
	}
	return q
}

// Result is the outcome of running a Cmd.
type Result struct {
	Cmd      Cmd
	ExitCode int
	Stdout   string
	Stderr   string
	// Err is set when the process could not be started or was interrupted.
	Err error
}

// Failed reports whether the command did not run to a zero exit.
func (r Result) Failed() bool {
	return r.Err != nil || r.ExitCode != 0
}

// Check converts a failed Result into an error. A non-zero exit yields an
// *ExitError, which matches ErrExit.
func (r Result) Check() error {
	if r.Err != nil {
		return fmt.Errorf("%s: %w", r.Cmd.Name, r.Err)
	}
	if r.ExitCode != 0 {
		return &ExitError{Name: r.Cmd.Name, Code: r.ExitCode, Stderr: lastLines(r.Stderr, 5)}
	}
	return nil
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Name   string
	Code   int
	Stderr string // last lines of stderr
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: exit status %d: %s", e.Name, e.Code, e.Stderr)
	}
	return fmt.Sprintf("%s: exit status %d", e.Name, e.Code)
}

// Is makes errors.Is(err, ErrExit) hold for every ExitError.
func (e *ExitError) Is(target error) bool { return target == ErrExit }

// Runner runs commands.
type Runner interface {
	Run(ctx context.Context, cmd Cmd) Result
}

// Exec is the Runner backed by real processes. Output is captured and also
// streamed to Stdout/Stderr when they are set.
type Exec struct {
	Stdout io.Writer
	Stderr io.Writer
}

var _ Runner = (*Exec)(nil)

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, c Cmd) Result {
	cmd := execabs.CommandContext(ctx, c.Name, c.Args...)
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	if len(c.Env) > 0 {
		cmd.Env = MergeEnv(os.Environ(), c.Env)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = tee(&stdout, e.Stdout)
	cmd.Stderr = tee(&stderr, e.Stderr)

	res := Result{Cmd: c}
	err := cmd.Run()
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr) && ctx.Err() == nil:
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
		res.Err = err
	}
	return res
}

func tee(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}

// MergeEnv returns base with every key in overrides replaced or appended.
func MergeEnv(base []string, overrides map[string]string) []string {
	out := make([]string, 0, len(base)+len(overrides))
	idx := make(map[string]int, len(base))
	for _, kv := range base {
		if k, _, ok := strings.Cut(kv, "="); ok {
			idx[k] = len(out)
		}
		out = append(out, kv)
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if i, ok := idx[k]; ok {
			out[i] = k + "=" + overrides[k]
		} else {
			out = append(out, k+"="+overrides[k])
		}
	}
	return out
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
