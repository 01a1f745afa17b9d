// Command sc2melee runs games between bots on local game instances.
package main

import "github.com/sarchlab/sc2melee/sc2melee/cmd"

func main() {
	cmd.Execute()
}
