// Package config defines configuration for the axel-search CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (AXEL_ prefix, also read from a .env file)
//   - YAML configuration file
//
// # Example
//
//	search_url: http://www.filesearching.com/cgi-bin/s
//	max_candidates: 15
//	max_concurrent_probes: 3
//	probe_timeout: 10s
//	launch_rate: 0
//	max_response_size: 4MB
//	log_level: info
//	http:
//	  timeout: 30s
//	  retry_attempts: 2
//	report:
//	  bucket: s3://reports?region=eu-west-1
//	  object: mirrors/latest.json
//	metrics_file: /var/lib/node_exporter/axel.prom
package config
