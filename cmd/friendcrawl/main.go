// Package main provides the entry point for the friendcrawl CLI.
//
// friendcrawl collects a bounded friend graph from the public Roblox users
// and friends APIs. It picks a seed user with enough friends, walks the
// graph breadth-first within an iteration budget while staying under the
// upstream rate limit, and writes the collected users to a JSON or SQLite file.
//
// Usage:
//
//	friendcrawl crawl --start 1000 -o graph.json
//	friendcrawl edges graph.json -o edges.csv
//	friendcrawl report graph.json --markdown
//
// See --help for all available options.
package main

// main is the entry point for friendcrawl.
func main() {
	Execute()
}
