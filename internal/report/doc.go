// Package report writes crawl results.
//
// This package contains writers for different output formats:
//   - GraphJSONWriter: the collected graph as {"<id>": {user_info, friends}}
//   - EdgeCSVWriter: one row per (user, friend) pair for spreadsheet tools
//   - TextSummaryWriter: tables for terminal display
//   - MarkdownSummaryWriter: the same summary as a Markdown document
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output. ReadGraphJSON reads
// a graph file back so that summaries and edge lists can be produced after
// the crawl.
package report
