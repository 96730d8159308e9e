// Package config loads logger factory settings with viper.
//
// Settings come from defaults, an optional YAML file and CONLOG_*
// environment variables (optionally seeded from a .env file):
//
//	level: info
//	color: auto
//	output: stdout,/var/log/app.log
//	disable: [debug]
//	sync: false
//	buffer_size: 4096
//
// NewFactory turns a Config into a ready logger.Factory; Apply updates the
// runtime switches of an existing one.
package config
