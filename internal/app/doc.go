// Package app is the application layer - the only package that references
// multiple domain components. It orchestrates all use cases: directory
// fetches, login/signup/logout, and subscription purchase.
package app
