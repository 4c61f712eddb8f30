package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
)

func defaultAddr() string {
	if addr := os.Getenv("SEQ_SERVER_ADDR"); addr != "" {
		return addr
	}
	return ":8080"
}

func main() {
	addr := flag.String("addr", defaultAddr(), "listen address (env SEQ_SERVER_ADDR)")
	flag.Parse()

	server := NewServer()

	fmt.Printf("API server starting on %s\n", *addr)
	fmt.Printf("WebSocket API: ws://localhost%s/ws?seq=<id>\n", *addr)
	log.Fatal(http.ListenAndServe(*addr, server.Router()))
}
