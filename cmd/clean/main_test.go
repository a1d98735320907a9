package main

import (
	"testing"

	"salesclean/internal/config"
)

func TestResolveMetricsBackend(t *testing.T) {
	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{"flag wins over env", "datadog", "pushgateway", "datadog"},
		{"env used when flag empty", "", "pushgateway", "pushgateway"},
		{"explicit none beats env", "none", "pushgateway", "none"},
		{"nothing set disables", "", "", "none"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("METRICS_BACKEND", tc.env)
			if got := resolveMetricsBackend(tc.flag); got != tc.want {
				t.Errorf("resolveMetricsBackend(%q) = %q, want %q", tc.flag, got, tc.want)
			}
		})
	}
}

func TestJobName(t *testing.T) {
	t.Parallel()

	if got := jobName(config.Pipeline{Job: "nightly"}); got != "nightly" {
		t.Errorf("jobName = %q, want nightly", got)
	}
	if got := jobName(config.Pipeline{}); got != "sales_clean" {
		t.Errorf("default jobName = %q, want sales_clean", got)
	}
}
