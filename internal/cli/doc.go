// Package cli implements the trainq command-line interface.
//
// Commands:
//
//	watch       live dashboard (or --headless polling with --metrics)
//	status      one-shot summary of GPUs and queues
//	gpus        one-shot GPU table, optionally sampled for a trend
//	jobs        one-shot job list
//	queue       start or stop a GPU's queue
//	init        write a .trainq.yaml
//	version     build information
//	completion  shell completion scripts
//
// Global flags override the config file for a single invocation. Commands
// that take --json write a JSONEnvelope to stdout, errors included.
package cli
