package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/odvcencio/giit/pkg/object"
)

// giit runs the CLI against dir and fails the test on a non-zero exit.
func giit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, errOut, code := runCLI(t, dir, args...)
	if code != 0 {
		t.Fatalf("giit %s: exit %d\nstderr:\n%s", strings.Join(args, " "), code, errOut)
	}
	return out
}

func runCLI(t *testing.T, dir string, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"-C", dir}, args...)
	code := run(full, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func newTestRepo(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	giit(t, dir, "init")
	return dir
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestInitCmd(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	out := giit(t, dir, "init", "proj")
	if !strings.HasPrefix(out, "Initialized empty repository in ") {
		t.Fatalf("init output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "proj", ".git", "HEAD")); err != nil {
		t.Fatalf("HEAD missing: %v", err)
	}
	if _, _, code := runCLI(t, dir, "init", "proj"); code == 0 {
		t.Fatal("re-init of an existing repository should fail")
	}
}

func TestHashObjectAndCatFile(t *testing.T) {
	dir := newTestRepo(t)
	writeTestFile(t, filepath.Join(dir, "hello.txt"), "Hello world!\n")

	const want = "cd0875583aabe89ee197ea133980a9085d08e497"
	if got := strings.TrimSpace(giit(t, dir, "hash-object", "hello.txt")); got != want {
		t.Fatalf("hash-object = %q, want %q", got, want)
	}
	if _, _, code := runCLI(t, dir, "cat-file", "blob", want); code == 0 {
		t.Fatal("cat-file found an object that was never written")
	}

	giit(t, dir, "hash-object", "-w", "hello.txt")
	if got := giit(t, dir, "cat-file", "blob", want[:6]); got != "Hello world!\n" {
		t.Fatalf("cat-file = %q", got)
	}
}

func TestHashObjectRejectsMalformedCommit(t *testing.T) {
	dir := newTestRepo(t)
	writeTestFile(t, filepath.Join(dir, "bad"), "no blank line")
	_, errOut, code := runCLI(t, dir, "hash-object", "-t", "commit", "bad")
	if code == 0 {
		t.Fatal("malformed commit payload was accepted")
	}
	if !strings.Contains(errOut, object.ErrMalformedObject.Error()) {
		t.Fatalf("stderr = %q", errOut)
	}
}

func TestCommitLogAndRevParse(t *testing.T) {
	dir := newTestRepo(t)
	t.Setenv("GIIT_USER_NAME", "Ada")
	t.Setenv("GIIT_USER_EMAIL", "ada@example.com")

	writeTestFile(t, filepath.Join(dir, "a.txt"), "one\n")
	giit(t, dir, "commit", "-m", "first")
	writeTestFile(t, filepath.Join(dir, "a.txt"), "two\n")
	giit(t, dir, "commit", "-m", "second")

	head := strings.TrimSpace(giit(t, dir, "rev-parse", "HEAD"))
	if !object.Hash(head).Valid() {
		t.Fatalf("rev-parse HEAD = %q", head)
	}
	if got := strings.TrimSpace(giit(t, dir, "rev-parse", "master")); got != head {
		t.Fatalf("rev-parse master = %q, want %q", got, head)
	}
	if got := giit(t, dir, "cat-file", "commit", head); !strings.Contains(got, "author Ada <ada@example.com> ") {
		t.Fatalf("commit payload missing author:\n%s", got)
	}

	graph := giit(t, dir, "log")
	if !strings.HasPrefix(graph, "digraph giitlog{\n") || !strings.HasSuffix(graph, "}\n") {
		t.Fatalf("log output:\n%s", graph)
	}
	if strings.Count(graph, "->") != 1 {
		t.Fatalf("want one parent edge:\n%s", graph)
	}
	if !strings.Contains(graph, "c_"+head+" [label=\""+head[:7]+": second\"]") {
		t.Fatalf("head node missing:\n%s", graph)
	}

	oneline := giit(t, dir, "log", "--oneline")
	if lines := strings.Split(strings.TrimSpace(oneline), "\n"); len(lines) != 2 {
		t.Fatalf("log --oneline:\n%s", oneline)
	}

	tree := strings.TrimSpace(giit(t, dir, "rev-parse", "--type", "tree", "HEAD"))
	if got := giit(t, dir, "ls-tree", tree); got != "100644 blob "+string(object.HashObject(object.TypeBlob, []byte("two\n")))+"\ta.txt\n" {
		t.Fatalf("ls-tree = %q", got)
	}
}

func TestCommitUsesRepositoryUserSection(t *testing.T) {
	dir := newTestRepo(t)
	cfgPath := filepath.Join(dir, ".git", "config")
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	data = append(data, "\n[user]\n\tname = Jane Doe\n\temail = jane@example.com\n[remote \"origin\"]\n\turl = https://example.com/x.git\n"...)
	writeTestFile(t, cfgPath, string(data))

	writeTestFile(t, filepath.Join(dir, "a.txt"), "one\n")
	giit(t, dir, "commit", "-m", "first")
	head := strings.TrimSpace(giit(t, dir, "rev-parse", "HEAD"))
	if got := giit(t, dir, "cat-file", "commit", head); !strings.Contains(got, "author Jane Doe <jane@example.com> ") {
		t.Fatalf("commit payload missing repository identity:\n%s", got)
	}
}

func TestTagShowRefAndCheckout(t *testing.T) {
	dir := newTestRepo(t)
	writeTestFile(t, filepath.Join(dir, "src", "main.go"), "package main\n")
	giit(t, dir, "commit", "-m", "initial")
	head := strings.TrimSpace(giit(t, dir, "rev-parse", "HEAD"))

	giit(t, dir, "tag", "light")
	giit(t, dir, "tag", "-m", "release", "v1")
	if got := giit(t, dir, "tag"); got != "light\nv1\n" {
		t.Fatalf("tag list = %q", got)
	}
	if got := strings.TrimSpace(giit(t, dir, "rev-parse", "--type", "commit", "v1")); got != head {
		t.Fatalf("v1 peels to %q, want %q", got, head)
	}

	refs := giit(t, dir, "show-ref")
	for _, want := range []string{head + " refs/heads/master\n", head + " refs/tags/light\n", " refs/tags/v1\n"} {
		if !strings.Contains(refs, want) {
			t.Errorf("show-ref missing %q:\n%s", want, refs)
		}
	}

	target := filepath.Join(t.TempDir(), "co")
	giit(t, dir, "checkout", "v1", target)
	data, err := os.ReadFile(filepath.Join(target, "src", "main.go"))
	if err != nil || string(data) != "package main\n" {
		t.Fatalf("checked out main.go = %q, %v", data, err)
	}

	_, errOut, code := runCLI(t, dir, "checkout", "v1", target)
	if code == 0 || !strings.Contains(errOut, "not empty") {
		t.Fatalf("checkout into non-empty dir: code=%d stderr=%q", code, errOut)
	}
}

func TestBranchCmd(t *testing.T) {
	dir := newTestRepo(t)
	writeTestFile(t, filepath.Join(dir, "f"), "x")
	giit(t, dir, "commit", "-m", "initial")

	giit(t, dir, "branch", "feature")
	if got := giit(t, dir, "branch"); got != "  feature\n* master\n" {
		t.Fatalf("branch list = %q", got)
	}
	giit(t, dir, "branch", "-d", "feature")
	if got := giit(t, dir, "branch"); got != "* master\n" {
		t.Fatalf("branch list after delete = %q", got)
	}
}

func TestVerifyCmd(t *testing.T) {
	dir := newTestRepo(t)
	writeTestFile(t, filepath.Join(dir, "f"), "x")
	giit(t, dir, "commit", "-m", "initial")

	if out := giit(t, dir, "verify"); !strings.HasPrefix(out, "ok: verified 3 object(s)") {
		t.Fatalf("verify = %q", out)
	}

	blob := object.HashObject(object.TypeBlob, []byte("x"))
	p := filepath.Join(dir, ".git", "objects", string(blob[:2]), string(blob[2:]))
	if err := os.Chmod(p, 0o644); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	if err := os.WriteFile(p, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("corrupt object: %v", err)
	}
	out, _, code := runCLI(t, dir, "verify")
	if code == 0 || !strings.Contains(out, "bad "+string(blob)) {
		t.Fatalf("verify after corruption: code=%d out=%q", code, out)
	}
}

func TestAmbiguousRevParse(t *testing.T) {
	dir := newTestRepo(t)
	for _, rest := range []string{"14a0c7c4d8a2f5b0a6c8d9e1f203040506", "ab0c7c4d8a2f5b0a6c8d9e1f2030405060"} {
		writeTestFile(t, filepath.Join(dir, ".git", "objects", "e0", "695f"+rest), "")
	}
	_, errOut, code := runCLI(t, dir, "rev-parse", "e0695f")
	if code == 0 || !strings.Contains(errOut, "ambiguous") {
		t.Fatalf("code=%d stderr=%q", code, errOut)
	}
}

func TestUnknownLogLevel(t *testing.T) {
	dir := newTestRepo(t)
	t.Setenv("GIIT_LOG_LEVEL", "chatty")
	if _, _, code := runCLI(t, dir, "show-ref"); code == 0 {
		t.Fatal("invalid log level accepted")
	}
}
