// Package autoload initializes the global logger from the environment on
// import.
package autoload

import (
	configx "github.com/corvid-labs/atlas/pkg/config"
	logx "github.com/corvid-labs/atlas/pkg/logger"
)

func init() {
	conf, err := configx.New[logx.Config]("LOG")
	if err != nil {
		conf = logx.DefaultConfig
	}
	logx.Init(*conf)
}
