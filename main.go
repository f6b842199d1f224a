/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/wordbank/dictionary/cmd"

func main() {
	cmd.Execute()
}
