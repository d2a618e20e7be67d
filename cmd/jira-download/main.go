package main

import "go-jira-download/cmd/jira-download/cmd"

func main() {
	cmd.Execute()
}
