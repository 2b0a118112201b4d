// Package integration holds end-to-end tests that drive the generator
// through the go command. They run only with INTEGRATION_TEST=1.
package integration
