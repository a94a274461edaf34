package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/tmater/boostprobe/internal/server"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	limitKB := flag.Int64("limit-kb", server.DefaultMaxBodyBytes>>10, "maximum request body size in KB")
	apiKey := flag.String("api-key", os.Getenv("BOOST_MOCK_API_KEY"), "required x-api-key value; empty accepts any key")
	flag.Parse()

	cfg := server.Config{MaxBodyBytes: *limitKB << 10}
	if *apiKey != "" {
		hash, err := server.HashKey(*apiKey, bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("failed to hash api key: %s", err)
		}
		cfg.APIKeyHash = hash
	}

	h := server.New(cfg)

	log.Printf("boost-mock listening on %s limit=%dKB auth=%v", *addr, *limitKB, *apiKey != "")
	log.Printf("endpoints: POST /boost")
	if err := http.ListenAndServe(*addr, h.Routes()); err != nil {
		log.Fatalf("mock server error: %s", err)
	}
}
