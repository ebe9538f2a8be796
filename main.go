package main

import "github.com/billdonner/server-monitor/cmd"

func main() {
	cmd.Execute()
}
