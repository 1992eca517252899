// Command protoengine runs protocol engine simulations.
package main

import "github.com/sarchlab/protoengine/cmd"

func main() {
	cmd.Execute()
}
