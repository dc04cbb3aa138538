package main

import "github.com/agentic-research/songdb/cmd"

func main() {
	cmd.Execute()
}
