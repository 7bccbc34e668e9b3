// Package main is the entry point for the apkstore CLI.
package main

import "github.com/sakif/apk-store/internal/cli"

func main() {
	cli.Execute()
}
