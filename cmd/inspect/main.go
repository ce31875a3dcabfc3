// Command inspect dumps the contents of a board database as JSON lines,
// one record per line. Useful for poking at a data directory without
// starting the server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"noticeboard/pkg/logger"
	"noticeboard/pkg/store"
)

func main() {
	var p string
	var what string
	flag.StringVar(&p, "db", "", "path to the pebble database")
	flag.StringVar(&what, "what", "all", "what to dump: messages, polls or all")
	flag.Parse()
	if p == "" {
		fmt.Fprintln(os.Stderr, "--db required")
		os.Exit(2)
	}
	logger.Init("error")

	st, err := store.Open(p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", p, err)
		os.Exit(1)
	}
	defer st.Close()

	enc := json.NewEncoder(os.Stdout)
	if what == "messages" || what == "all" {
		msgs, err := st.ListMessages()
		if err != nil {
			fmt.Fprintf(os.Stderr, "list messages: %v\n", err)
			os.Exit(1)
		}
		for _, m := range msgs {
			_ = enc.Encode(m)
		}
	}
	if what == "polls" || what == "all" {
		polls, err := st.ListPolls()
		if err != nil {
			fmt.Fprintf(os.Stderr, "list polls: %v\n", err)
			os.Exit(1)
		}
		for _, pl := range polls {
			_ = enc.Encode(pl)
		}
	}
}
