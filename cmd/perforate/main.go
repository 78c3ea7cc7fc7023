// Command perforate lowers Go source to the loop IR and runs loop passes
// (loop reporting and loop perforation) over it.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
