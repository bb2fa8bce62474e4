// Command wordcrawl crawls web sites or local directories and writes
// every word it finds to a dictionary file.
package main

func main() {
	Execute()
}
