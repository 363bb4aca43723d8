// Command makilint lints, formats, and exports FHIR Shorthand projects.
package main

import "os"

func main() {
	os.Exit(Execute(os.Args[1:]))
}
