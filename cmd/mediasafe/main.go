package main

import "github.com/jmcleod/mediasafe/cmd/mediasafe/cmd"

func main() {
	cmd.Execute()
}
