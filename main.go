package main

import "github.com/vibast-solutions/ms-go-dispatcher/cmd"

func main() {
	cmd.Execute()
}
