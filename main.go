package main

import "melechmcp/cmd"

func main() {
	cmd.Execute()
}
