package main

import "github.com/atti-agent/attikb/cmd"

func main() {
	cmd.Execute()
}
