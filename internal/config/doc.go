// Package config loads sliderbind configuration files.
//
// The configuration lives in sliderbind.json, sliderbind.yaml or
// sliderbind.yml. Durations are written as Go duration strings.
//
//	server:
//	  address: ":8080"
//	  maxSessions: 500
//	  readTimeout: 60s
//	  heartbeatInterval: 30s
//	  defaultPage: demo
//	snapshot:
//	  kind: disk
//	  dir: ./snapshots
//	log:
//	  level: info
//	  format: text
//	metrics:
//	  namespace: sliderbind
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    errors.Fprint(os.Stderr, err)
//	    os.Exit(1)
//	}
//	srv, err := server.New(cfg.ServerConfig())
package config
