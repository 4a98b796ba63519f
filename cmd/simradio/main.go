// Command simradio is the command-line entry of the simradio connector.
package main

import "github.com/sarchlab/simradio/cmd"

func main() {
	cmd.Execute()
}
