package main

import "github.com/RyanBlaney/chipper/cmd"

func main() {
	cmd.Execute()
}
