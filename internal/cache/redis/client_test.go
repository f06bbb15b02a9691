package redis

import "testing"

func TestKey(t *testing.T) {
	c := &Client{prefix: "optjournal:"}
	tests := []struct {
		ns, id, want string
	}{
		{"summary", "2026-02-05", "optjournal:summary:2026-02-05"},
		{"ratelimit", "10.0.0.1", "optjournal:ratelimit:10.0.0.1"},
		{"", "journal:day:2026-02-05", "optjournal:journal:day:2026-02-05"},
	}
	for _, tt := range tests {
		if got := c.Key(tt.ns, tt.id); got != tt.want {
			t.Errorf("Key(%q, %q) = %q, want %q", tt.ns, tt.id, got, tt.want)
		}
	}
}

func TestOptionsTLSServerName(t *testing.T) {
	opts := options(ClientConfig{Addr: "cache.internal:6380", TLSEnabled: true})
	if opts.TLSConfig == nil {
		t.Fatal("TLSConfig is nil")
	}
	if opts.TLSConfig.ServerName != "cache.internal" {
		t.Errorf("ServerName = %q, want cache.internal", opts.TLSConfig.ServerName)
	}
	if opts.ClientName != "optjournal" {
		t.Errorf("ClientName = %q", opts.ClientName)
	}

	plain := options(ClientConfig{Addr: "localhost:6379"})
	if plain.TLSConfig != nil {
		t.Error("TLSConfig set without TLSEnabled")
	}
}
