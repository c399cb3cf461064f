package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
)

// chatprobe connects to a room's WebSocket feed, prints every snapshot
// frame, and can push a message. Useful for poking at a running backend
// without a browser.
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	_ = godotenv.Load()

	addr := flag.String("addr", envOrDefault("CHATPROBE_ADDR", "localhost:8080"), "backend host:port")
	room := flag.String("room", "global", "room id to join")
	userID := flag.String("user", "", "user id sent as X-User-ID")
	send := flag.String("send", "", "message text to send after connecting")
	listen := flag.Duration("listen", 10*time.Second, "how long to keep printing frames")

	flag.Parse()

	if *userID == "" {
		flag.Usage()
		log.Fatal("a -user id is required")
	}

	wsURL := url.URL{Scheme: "ws", Host: *addr, Path: fmt.Sprintf("/api/rooms/%s/ws", *room)}
	header := http.Header{"X-User-ID": []string{*userID}}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), header)
	if err != nil {
		log.Fatalf("dial %s: %v", wsURL.String(), err)
	}
	defer conn.Close()
	log.Printf("connected to %s as %s", wsURL.String(), *userID)

	if text := strings.TrimSpace(*send); text != "" {
		if err := conn.WriteJSON(map[string]string{"type": "message", "text": text}); err != nil {
			log.Fatalf("send failed: %v", err)
		}
		log.Printf("sent: %q", text)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	deadline := time.After(*listen)
	frames := make(chan map[string]interface{})
	go func() {
		defer close(frames)
		for {
			var frame map[string]interface{}
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			frames <- frame
		}
	}()

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				log.Print("connection closed by server")
				return
			}
			log.Printf("frame: %v", frame)
		case <-deadline:
			log.Print("listen window elapsed")
			return
		case <-interrupt:
			log.Print("interrupted")
			return
		}
	}
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
