package gcsuploader

import "testing"

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantPrefix string
		wantErr    bool
	}{
		{uri: "gs://diag/screens", wantBucket: "diag", wantPrefix: "screens"},
		{uri: "gs://diag/screens/", wantBucket: "diag", wantPrefix: "screens"},
		{uri: "gs://diag", wantBucket: "diag"},
		{uri: "gs:///nobucket", wantErr: true},
		{uri: "/tmp/screens", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, prefix, err := ParseURI(tt.uri)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.uri)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if bucket != tt.wantBucket || prefix != tt.wantPrefix {
				t.Errorf("ParseURI(%q) = (%q, %q), want (%q, %q)", tt.uri, bucket, prefix, tt.wantBucket, tt.wantPrefix)
			}
		})
	}
}

func TestObjectName(t *testing.T) {
	if got := ObjectName("", "a.png"); got != "a.png" {
		t.Errorf("got %q", got)
	}
	if got := ObjectName("runs/2024", "a.png"); got != "runs/2024/a.png" {
		t.Errorf("got %q", got)
	}
}
