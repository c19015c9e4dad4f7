// Package main provides the multibuild CLI, which builds a project for
// several platforms in one run and restores the active platform afterwards.
package main

func main() {
	Execute()
}
