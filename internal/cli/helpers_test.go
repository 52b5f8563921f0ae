package cli

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const telemetryJSON = `{
	"hasNvidiaSmi": true,
	"gpus": [
		{"index": 1, "name": "RTX 3090", "temperature": 85,
		 "utilization": {"gpu": 10}, "memory": {"total": 24576, "used": 2048}, "fan": {"speed": 40}},
		{"index": 0, "name": "RTX 4090", "temperature": 61,
		 "utilization": {"gpu": 87}, "memory": {"total": 24564, "used": 20100},
		 "power": {"draw": 312.5}, "fan": {"speed": 55}}
	]
}`

const jobsJSON = `{"jobs": [
	{"id": "a", "name": "lora-a", "status": "running", "step": 250, "gpu_ids": "0",
	 "queue_position": null, "job_config": "{\"config\":{\"process\":[{\"train\":{\"steps\":1000}}]}}"},
	{"id": "b", "name": "lora-b", "status": "queued", "step": 0, "gpu_ids": "0",
	 "queue_position": 1, "job_config": "{}"},
	{"id": "c", "name": "old-run", "status": "completed", "step": 10, "gpu_ids": "1",
	 "queue_position": null, "job_config": "{}"}
]}`

// fakeScheduler serves the scheduler API and records queue commands.
type fakeScheduler struct {
	mu       sync.Mutex
	running  map[string]bool
	commands []string
	failJobs bool
	failCmd  bool
}

func newFakeScheduler(t *testing.T) (*fakeScheduler, string) {
	t.Helper()
	f := &fakeScheduler{running: map[string]bool{"0": true, "1": false}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv.URL
}

func (f *fakeScheduler) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/api/gpu":
		fmt.Fprint(w, telemetryJSON)
	case r.URL.Path == "/api/jobs":
		if f.failJobs {
			http.Error(w, "database is locked", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, jobsJSON)
	case r.URL.Path == "/api/queue":
		fmt.Fprintf(w, `{"queues": [{"gpu_ids": "0", "is_running": %t}, {"gpu_ids": "1", "is_running": %t}]}`,
			f.running["0"], f.running["1"])
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/api/queue/"):
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/queue/"), "/")
		if len(parts) != 2 {
			http.NotFound(w, r)
			return
		}
		f.commands = append(f.commands, parts[1]+" "+parts[0])
		if f.failCmd {
			http.Error(w, "scheduler busy", http.StatusConflict)
			return
		}
		f.running[parts[0]] = parts[1] == "start"
		fmt.Fprint(w, `{}`)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeScheduler) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

// resetFlags restores every flag in the tree to its default so runs don't
// leak into each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runCLI executes the real command tree with args and returns its stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}
