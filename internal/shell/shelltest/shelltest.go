// Package shelltest provides a scripted shell.Runner for tests.
package shelltest

import (
	"context"
	"strings"
	"sync"

	"github.com/goplus/xsltpkg/internal/shell"
)

// Recorder records every command it is asked to run and answers with the
// first matching scripted result, or a zero exit.
type Recorder struct {
	mu    sync.Mutex
	cmds  []shell.Cmd
	rules []rule
}

type rule struct {
	match  string
	result shell.Result
	hook   func(shell.Cmd)
}

var _ shell.Runner = (*Recorder)(nil)

// On scripts res for any command whose rendered line contains substr.
func (r *Recorder) On(substr string, res shell.Result) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{match: substr, result: res})
	return r
}

// Do calls fn for any command whose rendered line contains substr, before the
// command is answered. Tests use it to fake side effects of a tool.
func (r *Recorder) Do(substr string, fn func(shell.Cmd)) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{match: substr, hook: fn})
	return r
}

// Run implements shell.Runner.
func (r *Recorder) Run(ctx context.Context, cmd shell.Cmd) shell.Result {
	r.mu.Lock()
	r.cmds = append(r.cmds, cmd)
	rules := append([]rule(nil), r.rules...)
	r.mu.Unlock()

	line := cmd.String()
	res := shell.Result{Cmd: cmd}
	answered := false
	for _, ru := range rules {
		if !strings.Contains(line, ru.match) {
			continue
		}
		if ru.hook != nil {
			ru.hook(cmd)
			continue
		}
		if !answered {
			res = ru.result
			res.Cmd = cmd
			answered = true
		}
	}
	if err := ctx.Err(); err != nil && !answered {
		res.ExitCode, res.Err = -1, err
	}
	return res
}

// Cmds returns the commands run so far.
func (r *Recorder) Cmds() []shell.Cmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shell.Cmd(nil), r.cmds...)
}

// Lines returns the commands run so far as "name arg..." strings, without env.
func (r *Recorder) Lines() []string {
	var lines []string
	for _, c := range r.Cmds() {
		lines = append(lines, strings.Join(append([]string{c.Name}, c.Args...), " "))
	}
	return lines
}
