package topic

import "testing"

func TestBuilder(t *testing.T) {
	b := NewBuilder("gcs/v1")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"position topic", b.Build(SegPosition, "V001"), "gcs/v1/telemetry/position/V001"},
		{"waypoint wildcard", b.BuildWildcard(SegWaypoint), "gcs/v1/telemetry/waypoint/+"},
		{"command topic", b.Command("V001"), "gcs/v1/command/V001"},
		{"shared group", b.Shared("orchestrator").BuildWildcard(SegHeartbeat), "$share/orchestrator/gcs/v1/telemetry/heartbeat/+"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
