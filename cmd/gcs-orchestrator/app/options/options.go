// Package options aggregates all flag groups of the orchestrator binary.
package options

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/groundctl/groundctl/pkg/log"
	"github.com/groundctl/groundctl/pkg/options"
)

// Options is the full configuration surface. Flags override config-file
// values, which override defaults.
type Options struct {
	Core *options.CoreOptions `json:"core" mapstructure:"core"`
	Http *options.HttpOptions `json:"http" mapstructure:"http"`
	Mqtt *options.MqttOptions `json:"mqtt" mapstructure:"mqtt"`
	S3   *options.S3Options   `json:"s3" mapstructure:"s3"`
	Log  *log.Options         `json:"log" mapstructure:"log"`

	// ConfigFile is an optional YAML/JSON file overlaying the defaults.
	ConfigFile string `json:"-" mapstructure:"-"`
}

func NewOptions() *Options {
	return &Options{
		Core: options.NewCoreOptions(),
		Http: options.NewHttpOptions(),
		Mqtt: options.NewMqttOptions(),
		S3:   options.NewS3Options(),
		Log:  log.NewOptions(),
	}
}

func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigFile, "config", "c", o.ConfigFile, "Path to a configuration file. Flags override file values.")
	o.Core.AddFlags(fs)
	o.Http.AddFlags(fs)
	o.Mqtt.AddFlags(fs)
	o.S3.AddFlags(fs)
	o.Log.AddFlags(fs)
}

// Complete overlays the config file, if given. File keys mirror the dotted
// flag names (http.addr, core.zone-file, ...); a flag set explicitly on the
// command line always wins over the file.
func (o *Options) Complete(fs *pflag.FlagSet) error {
	if o.ConfigFile == "" {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(o.ConfigFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	for _, key := range v.AllKeys() {
		f := fs.Lookup(key)
		if f == nil || f.Changed {
			continue
		}
		if err := fs.Set(key, v.GetString(key)); err != nil {
			return fmt.Errorf("apply config key %s: %w", key, err)
		}
	}
	return nil
}

// Validate aggregates the per-group validations.
func (o *Options) Validate() error {
	var errs []error
	errs = append(errs, o.Core.Validate()...)
	errs = append(errs, o.Http.Validate()...)
	errs = append(errs, o.Mqtt.Validate()...)
	errs = append(errs, o.S3.Validate()...)
	errs = append(errs, o.Log.Validate()...)

	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
