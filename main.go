package main

import "sitemeter/cmd"

func main() {
	cmd.Execute()
}
