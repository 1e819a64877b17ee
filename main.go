package main

import "github.com/DGHeroin/HostStats/cmd"

func main() {
	cmd.Run()
}
