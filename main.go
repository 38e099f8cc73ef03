package main

import "supersonic/cmd"

func main() {
	cmd.Execute()
}
