package main

import "github.com/dbchat/dbchat/internal/cli"

func main() {
	cli.Execute()
}
