package main

import "github.com/Mohsinsiddi/w3giveaway/cmd"

func main() {
	cmd.Execute()
}
