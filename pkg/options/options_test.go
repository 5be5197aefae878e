package options

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{"0.0.0.0:8080", false},
		{"localhost:9000", false},
		{":8080", false},
		{"no-port", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateAddress(tt.addr)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateAddress(%q) = %v, wantErr %v", tt.addr, err, tt.wantErr)
		}
	}
}

func TestDefaultsAreValid(t *testing.T) {
	groups := map[string]IOptions{
		"core": NewCoreOptions(),
		"http": NewHttpOptions(),
		"mqtt": NewMqttOptions(),
		"s3":   NewS3Options(),
	}
	for name, g := range groups {
		if errs := g.Validate(); len(errs) != 0 {
			t.Errorf("%s defaults invalid: %v", name, errs)
		}
	}
}

func TestCoreOptionsValidate(t *testing.T) {
	o := NewCoreOptions()
	o.EventLogCapacity = 0
	o.SnapshotInterval = 0
	if errs := o.Validate(); len(errs) != 2 {
		t.Errorf("got %d errors, want 2: %v", len(errs), errs)
	}
}

func TestMqttOptionsValidate(t *testing.T) {
	o := NewMqttOptions()
	o.Broker = "mqtt://broker:1883"
	o.TopicRoot = ""
	if errs := o.Validate(); len(errs) != 1 {
		t.Errorf("got %d errors, want 1: %v", len(errs), errs)
	}
	o.TopicRoot = "gcs/v1"
	if errs := o.Validate(); len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestS3OptionsValidate(t *testing.T) {
	o := NewS3Options()
	o.Endpoint = "minio.local:9000"
	o.BucketName = ""
	if errs := o.Validate(); len(errs) != 1 {
		t.Errorf("got %d errors, want 1: %v", len(errs), errs)
	}
}

func TestFlagBinding(t *testing.T) {
	o := NewHttpOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)

	if err := fs.Parse([]string{"--http.addr=127.0.0.1:9999"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if o.Addr != "127.0.0.1:9999" {
		t.Errorf("Addr = %q, want 127.0.0.1:9999", o.Addr)
	}
}

func TestMqttToClientConfig(t *testing.T) {
	o := NewMqttOptions()
	o.Broker = "mqtt://broker:1883"
	o.Username = "gcs"

	cfg := o.ToClientConfig()
	if cfg.BrokerURL != o.Broker || cfg.Username != "gcs" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.KeepAlive != 60 {
		t.Errorf("KeepAlive = %d, want 60", cfg.KeepAlive)
	}
}
