package shell

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCmdString(t *testing.T) {
	tests := []struct {
		cmd  Cmd
		want string
	}{
		{Command("", "make", "-j", "4"), "make -j 4"},
		{Command("", "sh", "/src dir/configure"), "sh '/src dir/configure'"},
		{Cmd{Name: "make", Args: []string{"install"}, Env: map[string]string{"B": "2", "A": "1"}}, "A=1 B=2 make install"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.cmd.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMergeEnv(t *testing.T) {
	base := []string{"PATH=/bin", "HOME=/root"}
	got := MergeEnv(base, map[string]string{"HOME": "/home/x", "XML_CONFIG": "/dep/bin/xml2-config"})
	want := []string{"PATH=/bin", "HOME=/home/x", "XML_CONFIG=/dep/bin/xml2-config"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("MergeEnv mismatch (-want +got):\n%s", diff)
	}
	if base[1] != "HOME=/root" {
		t.Fatalf("MergeEnv mutated base: %v", base)
	}
}

func TestResultCheck(t *testing.T) {
	ok := Result{Cmd: Command("", "true")}
	if ok.Failed() || ok.Check() != nil {
		t.Fatalf("zero exit should not fail: %+v", ok)
	}

	failed := Result{Cmd: Command("", "nmake"), ExitCode: 2, Stderr: "a\nb\nfatal error U1077\n"}
	if !failed.Failed() {
		t.Fatal("non-zero exit should fail")
	}
	err := failed.Check()
	if !errors.Is(err, ErrExit) {
		t.Fatalf("Check() = %v, want ErrExit", err)
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 2 {
		t.Fatalf("Check() = %v, want ExitError with code 2", err)
	}
	if !strings.Contains(err.Error(), "fatal error U1077") {
		t.Fatalf("Check() = %v, want stderr tail", err)
	}

	notFound := Result{Cmd: Command("", "cscript"), ExitCode: -1, Err: exec.ErrNotFound}
	if err := notFound.Check(); !errors.Is(err, exec.ErrNotFound) || errors.Is(err, ErrExit) {
		t.Fatalf("Check() = %v, want ErrNotFound only", err)
	}
}

func TestExecRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH")
	}

	var streamed strings.Builder
	e := &Exec{Stdout: &streamed}
	dir := t.TempDir()
	cmd := Command(dir, "sh", "-c", `echo "$GREETING"; pwd; echo oops >&2; exit 3`)
	cmd.Env = map[string]string{"GREETING": "hello"}

	res := e.Run(context.Background(), cmd)
	if res.Err != nil {
		t.Fatalf("Run() Err = %v", res.Err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("ExitCode = %d, want 3", res.ExitCode)
	}
	if !strings.HasPrefix(res.Stdout, "hello\n") {
		t.Fatalf("Stdout = %q, want greeting first", res.Stdout)
	}
	if strings.TrimSpace(res.Stderr) != "oops" {
		t.Fatalf("Stderr = %q, want oops", res.Stderr)
	}
	if streamed.String() != res.Stdout {
		t.Fatalf("streamed %q, captured %q", streamed.String(), res.Stdout)
	}
}

func TestExecRunNotFound(t *testing.T) {
	res := (&Exec{}).Run(context.Background(), Command("", "xsltpkg-no-such-tool"))
	if res.Err == nil || !res.Failed() {
		t.Fatalf("Run() = %+v, want start error", res)
	}
}
