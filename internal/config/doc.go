// Package config loads route table documents.
//
// A document is YAML, or JSON when the file name ends in .json.
//
// # File Structure
//
//	mode: fragment          # or "path"
//	fallback: /404
//	autoInit: true
//	routes:
//	  - pattern: /
//	    name: home
//	  - pattern: /user/:id?tab
//	    name: user
//	  - /404                # shorthand for {pattern: /404}
//	server:
//	  addr: localhost:8080
//	  metricsNamespace: navroute
//
// # Usage
//
//	cfg, err := config.Load("routes.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	table, err := cfg.Table(nil)
package config
