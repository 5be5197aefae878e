package server

import "github.com/groundctl/groundctl/pkg/options"

// Config groups the sub-server options.
type Config struct {
	HttpOptions *options.HttpOptions
	MqttOptions *options.MqttOptions
}
