package main

import "github.com/frahmantamala/expense-console/cmd"

func main() {
	cmd.Execute()
}
