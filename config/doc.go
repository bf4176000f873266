// Package config loads docstruct settings from YAML.
//
// A file only needs the keys it changes; everything else keeps the value
// from [Default]. Unknown keys are an error. Durations are written as Go
// duration strings:
//
//	log:
//	  level: debug
//	  format: json
//	llm:
//	  enabled: true
//	  max_concurrency: 4
//	  retry_backoff: 250ms
//	tables:
//	  apply_merges: true
//	processors: [page_header, table_merge, table_quality, document_toc]
package config
