package main

import "github.com/SafeMPC/identity-core/cmd"

func main() {
	cmd.Execute()
}
