// Command reclink runs the record-linkage engine: match produces the
// pairwise accepted-candidate stream, resolve turns that stream into a
// final crosswalk, and serve exposes match-run status over HTTP.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
