// Package main provides the entry point for synckit.
//
// synckit drives the concurrency primitives under load, checks their safety
// properties and can expose the resulting metrics for scraping:
//
//	synckit stress --workers 32 --ops 5000 all
//	synckit --config synckit.yaml stress --metrics-addr :9090 --hold limiter
//	synckit config show
package main
