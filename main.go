package main

import "github.com/ignitionstack/rfcbridge/cmd"

func main() {
	cmd.Execute()
}
