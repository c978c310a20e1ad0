// Package testsupport provides builders shared by the package test suites:
// per-test configs backed by temp directories, store lifecycles, and seeded
// catalogue rows.
package testsupport
