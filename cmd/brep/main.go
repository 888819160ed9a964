// Command brep inspects and checks topological B-rep models.
package main

import "github.com/mesh-intelligence/brep/internal/cli"

func main() {
	cli.Execute()
}
