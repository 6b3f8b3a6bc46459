// Package cli builds the sdsaudit command-line interface. It wires the root
// Cobra command, layered configuration with embedded defaults, and the zap
// logger shared by the verify command.
package cli
