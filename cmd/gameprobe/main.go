package main

import (
	"flag"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// Drives a full wager round against a running server: bet, a few random
// reveals, then cash out. Useful for eyeballing the message flow.

type Message struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

func main() {
	var (
		url       = flag.String("url", "ws://localhost:8888/api/v1/ws/game", "websocket endpoint")
		sessionID = flag.String("session", "", "session id cookie value")
		authHdr   = flag.String("auth", "", "Wallet address:signature header value")
		wallet    = flag.String("wallet", "operator", "wallet adapter name")
		reveals   = flag.Int("reveals", 6, "random reveals before cashing out")
	)
	flag.Parse()

	header := http.Header{}
	if *sessionID != "" {
		header.Add("X-Session-ID", *sessionID)
	}
	if *authHdr != "" {
		header.Add("Authorization", "Wallet "+*authHdr)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*url, header)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer conn.Close()

	messageQueue := make(chan Message)

	go func() {
		for {
			_, p, err := conn.ReadMessage()
			if err != nil {
				log.Println("read error:", err)
				return
			}
			log.Printf("Received:\n%s\n", p)
		}
	}()

	go func() {
		for message := range messageQueue {
			mJson, err := json.MarshalIndent(message, "", "  ")
			if err != nil {
				log.Println("json marshal error:", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, mJson); err != nil {
				log.Println("write error:", err)
				return
			}
			log.Printf("Sent:\n%s\n", string(mJson))
		}
	}()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	betPlaced := false
	revealed := 0
	ticker := time.NewTicker(3 * time.Second)

	for range ticker.C {
		switch {
		case !betPlaced:
			messageQueue <- Message{Type: "game_start", Payload: map[string]any{"wallet": *wallet}}
			betPlaced = true

		case revealed < *reveals:
			messageQueue <- Message{Type: "reveal", Payload: map[string]any{
				"row": rng.Intn(10),
				"col": rng.Intn(10),
			}}
			revealed++

		default:
			messageQueue <- Message{Type: "cash_out"}
			time.Sleep(1 * time.Second)
			return
		}
	}
}
