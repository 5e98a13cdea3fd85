package main

import "github.com/serverlessresearch/s3connector/cmd"

func main() {
	cmd.Execute()
}
