// Package main provides the composer CLI for assembling and commissioning
// component containers.
package main

func main() {
	Execute()
}
