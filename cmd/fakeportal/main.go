// Command fakeportal runs a standalone fake marking portal for manual
// testing. Usage: go run ./cmd/fakeportal
//
// Point the client at it with KONTUR_BASE_URL and any non-empty auth.sid
// cookie. Orders progress available -> processing -> released as their
// status is polled.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/kirillbelykh/kontur-api/testfixtures/portal"
)

func main() {
	port := flag.Int("port", 8444, "Port to listen on")
	sid := flag.String("sid", "", "Require this auth.sid cookie value (default: accept any)")
	thumbprint := flag.String("thumbprint", "", "Pre-register a certificate thumbprint")
	flag.Parse()

	p := portal.NewStandalone()
	if *sid != "" {
		p.RequireSession(*sid)
	}
	if *thumbprint != "" {
		p.RegisterCertificate(*thumbprint, "CN=Manual Testing")
	}

	addr := fmt.Sprintf("127.0.0.1:%d", *port)
	log.Printf("Fake marking portal listening on http://%s", addr)
	log.Printf("export KONTUR_BASE_URL=http://%s and use any cookie file to try the CLI", addr)
	log.Fatal(http.ListenAndServe(addr, p.Handler()))
}
