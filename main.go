package main

import "github.com/maxvaer/confscan/cmd"

func main() {
	cmd.Execute()
}
