// Package sqlite stores desk sessions in a local SQLite database so sign-ins
// survive restarts of a single-instance deployment.
package sqlite
