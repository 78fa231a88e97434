package main

import "github.com/zjrosen/urlpad/cmd"

func main() {
	cmd.Execute()
}
