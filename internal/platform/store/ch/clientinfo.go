package ch

import (
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo returns a ClientInfo describing this process and role.
// It shows up in system.query_log so enrichment runs can be told apart
func BuildClientInfo(role, tag string) clickhouse.ClientInfo {
	host, _ := os.Hostname()

	type kv = struct{ Name, Version string }

	products := []kv{
		{Name: "socstream", Version: tidy(tag)},
		{Name: "role", Version: tidy(role)},
		{Name: "go", Version: tidy(runtime.Version())},
		{Name: "commit", Version: tidy(vcsShortSHA())},
		{Name: "host", Version: tidy(host)},
	}

	return clickhouse.ClientInfo{Products: products}
}

func vcsShortSHA() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				return s.Value[:7]
			}
		}
	}
	return "unknown"
}

func tidy(s string) string { return strings.TrimSpace(s) }
