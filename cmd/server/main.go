package main

import "github.com/Togather-Foundation/meetups/cmd/server/cmd"

func main() {
	cmd.Execute()
}
