package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runResult struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"xkycctl"}, args...), strings.NewReader(stdin), &stdout, &stderr)
	return runResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// fields 把 "key  value" 形式的输出解析为 map。
func fields(out string) map[string]string {
	m := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		k, v, ok := strings.Cut(line, " ")
		if ok {
			m[k] = strings.TrimSpace(v)
		}
	}
	return m
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		category  string
		retryable string
		matched   string
	}{
		{"throttling", []string{"--name", "ThrottlingException"}, "RATE_LIMIT", "true", "common"},
		{"validation", []string{"--name", "ValidationException"}, "VALIDATION", "false", "common"},
		{"objectstore code", []string{"--code", "SlowDown", "--service", "objectstore"}, "RATE_LIMIT", "true", "service"},
		{"eventbus", []string{"--name", "PutFailed", "--service", "EventBus"}, "TRANSIENT", "true", "service"},
		{"status 503", []string{"--status", "503"}, "SYSTEM", "true", "status"},
		{"pattern", []string{"--message", "connection reset by peer"}, "TRANSIENT", "true", "pattern"},
		{"allowlist", []string{"--name", "Weird", "--retryable", "Weird"}, "TRANSIENT", "true", "allowlist"},
		{"default", []string{"--name", "Mystery"}, "SYSTEM", "false", "default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, "", append([]string{"classify"}, tt.args...)...)
			require.Equal(t, 0, res.code, res.stderr)
			f := fields(res.stdout)
			assert.Equal(t, tt.category, f["category"])
			assert.Equal(t, tt.retryable, f["retryable"])
			assert.Equal(t, tt.matched, f["matched"])
		})
	}
}

func TestClassify_JSON(t *testing.T) {
	res := runCLI(t, "", "classify", "--name", "AccessDeniedException", "--json")
	require.Equal(t, 0, res.code, res.stderr)

	var out classifyOutput
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, "AUTHORIZATION", string(out.Category))
	assert.False(t, out.Retryable)
	assert.Equal(t, 403, out.HTTPStatus)
	assert.Equal(t, "generic", string(out.Service))
}

func TestClassify_UsageErrors(t *testing.T) {
	res := runCLI(t, "", "classify")
	assert.Equal(t, 2, res.code)
	assert.Contains(t, res.stderr, "参数错误")

	res = runCLI(t, "", "classify", "--name", "X", "--service", "queue")
	assert.Equal(t, 2, res.code)
	assert.Contains(t, res.stderr, `unknown service "queue"`)

	res = runCLI(t, "", "classify", "--bogus")
	assert.Equal(t, 2, res.code)
}

func TestBackoff_NoJitter(t *testing.T) {
	res := runCLI(t, "", "backoff", "--jitter", "none", "--base", "100ms", "--max", "1s", "--retries", "5")
	require.Equal(t, 0, res.code, res.stderr)

	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, []string{"retry", "delay", "ceiling"}, strings.Fields(lines[0]))
	want := []string{"100ms", "200ms", "400ms", "800ms", "1s"}
	for i, d := range want {
		cols := strings.Fields(lines[i+1])
		require.Len(t, cols, 3)
		assert.Equal(t, d, cols[1])
		assert.Equal(t, d, cols[2])
	}
	assert.Equal(t, []string{"total", "2.5s"}, strings.Fields(lines[6]))
}

func TestBackoff_JitterBounded(t *testing.T) {
	for _, j := range []string{"full", "equal", "decorrelated"} {
		t.Run(j, func(t *testing.T) {
			res := runCLI(t, "", "backoff", "--jitter", j, "--base", "10ms", "--max", "50ms", "--retries", "8")
			require.Equal(t, 0, res.code, res.stderr)
			lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
			require.Len(t, lines, 10)
		})
	}
}

func TestBackoff_UsageErrors(t *testing.T) {
	res := runCLI(t, "", "backoff", "--jitter", "chaotic")
	assert.Equal(t, 2, res.code)
	assert.Contains(t, res.stderr, "invalid jitter")

	res = runCLI(t, "", "backoff", "--retries", "-1")
	assert.Equal(t, 2, res.code)
}

const entriesJSONL = `{"source":"kyc.verifier","detail_type":"Verified","detail":{"applicant":"a-1"}}

{"source":"kyc.verifier","detail_type":"Rejected","detail":{"applicant":"a-2"},"bus":"kyc-rejected"}
{"source":"kyc.verifier","detail_type":"Verified","detail":{"applicant":"a-3"}}
`

// memURL 为每个用例生成独立的 mem 总线前缀，进程内的 mem topic 关闭后不可复用。
func memURL() string {
	return fmt.Sprintf("mem://t%d-", time.Now().UnixNano())
}

func decodeResults(t *testing.T, out string) []resultLine {
	t.Helper()
	var results []resultLine
	dec := json.NewDecoder(strings.NewReader(out))
	for dec.More() {
		var r resultLine
		require.NoError(t, dec.Decode(&r))
		results = append(results, r)
	}
	return results
}

func TestPublish_MemBusFromStdin(t *testing.T) {
	res := runCLI(t, entriesJSONL, "publish", "--bus", "mem", "--url", memURL(), "-f", "-", "--stats")
	require.Equal(t, 0, res.code, res.stderr)

	body, stats, _ := strings.Cut(res.stdout, "# ")
	results := decodeResults(t, body)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.True(t, r.Success)
		assert.NotEmpty(t, r.MessageID)
		assert.Zero(t, r.RetryCount)
	}
	assert.Contains(t, "# "+stats, "# xkyc.publish.results 3")
	assert.Contains(t, stats, "xkyc.retry.attempts 3")
}

func TestPublish_ConfigFileAndFailures(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "kyc.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
bus:
  kind: mem
  topic: ""
publish:
  timeout: 1s
  retry:
    max_retries: 1
    base_delay: 1ms
    jitter: none
log:
  level: error
`), 0o600))
	entriesPath := filepath.Join(dir, "entries.jsonl")
	require.NoError(t, os.WriteFile(entriesPath, []byte(entriesJSONL), 0o600))

	res := runCLI(t, "", "-c", cfgPath, "publish", "-f", entriesPath, "--url", memURL(), "--concurrency", "2")
	assert.Equal(t, 1, res.code)

	results := decodeResults(t, res.stdout)
	require.Len(t, results, 3)
	assert.False(t, results[0].Success)
	assert.NotEmpty(t, results[0].FailureReason)
	assert.True(t, results[1].Success)
	assert.False(t, results[2].Success)
}

func TestPublish_Archive(t *testing.T) {
	dir := t.TempDir()
	res := runCLI(t, entriesJSONL, "publish", "--bus", "mem", "--url", memURL(), "--topic", "kyc-archive", "-f", "-",
		"--archive", "file://"+filepath.ToSlash(dir))
	require.Equal(t, 0, res.code, res.stderr)

	matches, err := filepath.Glob(filepath.Join(dir, "publish-*.jsonl"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, res.stdout, string(data))
}

func TestPublish_Errors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		code  int
	}{
		{"missing file flag", "", []string{"publish"}, 2},
		{"bad json line", "{not json}\n", []string{"publish", "-f", "-"}, 2},
		{"unknown bus", entriesJSONL, []string{"publish", "--bus", "sqs", "-f", "-"}, 2},
		{"negative concurrency", entriesJSONL, []string{"publish", "--concurrency", "-1", "-f", "-"}, 2},
		{"missing entries file", "", []string{"publish", "-f", "/nonexistent/entries.jsonl"}, 1},
		{"missing config", "", []string{"-c", "/nonexistent/kyc.yaml", "publish", "-f", "-"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, tt.stdin, tt.args...)
			assert.Equal(t, tt.code, res.code, res.stderr)
		})
	}
}

func TestReadEntries(t *testing.T) {
	entries, err := readEntries(strings.NewReader(entriesJSONL))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Rejected", entries[1].DetailType)
	assert.Equal(t, "kyc-rejected", entries[1].Bus)
	assert.JSONEq(t, `{"applicant":"a-2"}`, string(entries[1].Body))

	_, err = readEntries(strings.NewReader("\n{\"source\":1}\n"))
	var usageErr *usageError
	require.ErrorAs(t, err, &usageErr)
	assert.Contains(t, usageErr.Error(), "line 2")
}

func TestErrorTypes(t *testing.T) {
	var target *usageError
	assert.True(t, errors.As(newUsageError("bad %d", 1), &target))
	assert.Equal(t, "bad 1", target.Error())
	assert.Empty(t, (&exitError{code: 1}).Error())
	assert.True(t, isCLIUsageError(errors.New("flag provided but not defined: -x")))
	assert.False(t, isCLIUsageError(errors.New("dial tcp: refused")))
}

func TestVersion(t *testing.T) {
	res := runCLI(t, "", "--version")
	assert.Equal(t, 0, res.code)
	assert.Contains(t, res.stdout, Version)
}
