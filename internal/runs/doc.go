// Package runs records download run history in a local SQLite database so
// past results stay inspectable after the terminal scrolls away.
package runs
