package main

import "github.com/obsly/session-replay/cmd"

func main() {
	cmd.Execute()
}
