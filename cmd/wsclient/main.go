// Command wsclient is a manual test client: it authenticates, connects to
// the server, streams a PCM file as live audio, and drives the listening or
// enrollment protocol while printing every event the server emits.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
)

type tokenRequest struct {
	ClientID string `json:"client_id"`
}

type tokenResponse struct {
	Token    string `json:"token"`
	ClientID string `json:"client_id"`
}

var (
	server     = flag.String("server", "localhost:8080", "server host:port")
	pcmPath    = flag.String("pcm", "sample_audio.pcm", "raw 16-bit LE PCM file to stream")
	enrollName = flag.String("enroll", "", "enroll the audio under this speaker name instead of listening")
	dance      = flag.Bool("dance", false, "run a dance capture instead of listening")
	chunkMs    = flag.Int("chunk-ms", 100, "milliseconds of audio per chunk")
	sampleRate = flag.Int("rate", 16000, "sample rate of the PCM file")
)

func main() {
	flag.Parse()

	token, err := fetchToken()
	if err != nil {
		log.Fatal("Failed to fetch token:", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	u := url.URL{Scheme: "ws", Host: *server, Path: "/ws"}
	log.Printf("connecting to %s", u.String())

	headers := http.Header{}
	if token != "" {
		headers.Add("Authorization", "Bearer "+token)
	}

	c, _, err := websocket.DefaultDialer.Dial(u.String(), headers)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer c.Close()

	done := make(chan struct{})
	go readEvents(c, done)

	switch {
	case *enrollName != "":
		runEnrollment(c)
	case *dance:
		runDance(c)
	default:
		runListening(c)
	}

	select {
	case <-done:
		return
	case <-interrupt:
		log.Println("interrupt")
		err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		if err != nil {
			log.Println("write close:", err)
			return
		}
		select {
		case <-done:
		case <-time.After(time.Second):
		}
		return
	}
}

func fetchToken() (string, error) {
	jsonData, err := json.Marshal(tokenRequest{ClientID: fmt.Sprintf("wsclient-%d", time.Now().Unix())})
	if err != nil {
		return "", err
	}

	resp, err := http.Post("http://"+*server+"/api/v1/auth/token", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request failed: %s", string(body))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", err
	}
	return tok.Token, nil
}

func readEvents(c *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			log.Println("read:", err)
			return
		}
		log.Printf("<- %s", message)
	}
}

func runListening(c *websocket.Conn) {
	send(c, map[string]interface{}{"type": "start_listening"})
	streamAudio(c)
	send(c, map[string]interface{}{"type": "stop_listening"})
}

func runEnrollment(c *websocket.Conn) {
	send(c, map[string]interface{}{"type": "start_enrollment", "name": *enrollName})
	streamAudio(c)
	send(c, map[string]interface{}{"type": "complete_enrollment", "name": *enrollName})
}

func runDance(c *websocket.Conn) {
	send(c, map[string]interface{}{"type": "start_dance"})
	streamAudio(c)
	send(c, map[string]interface{}{"type": "finish_dance"})
	// Leave time for generation before the connection drops.
	time.Sleep(15 * time.Second)
}

// streamAudio plays the PCM file to the server in real-time sized chunks.
func streamAudio(c *websocket.Conn) {
	data, err := os.ReadFile(*pcmPath)
	if err != nil {
		log.Printf("Error reading audio file: %v", err)
		return
	}

	chunkBytes := *sampleRate * 2 * *chunkMs / 1000
	totalChunks := (len(data) + chunkBytes - 1) / chunkBytes
	log.Printf("streaming %d bytes in %d chunks", len(data), totalChunks)

	for start := 0; start < len(data); start += chunkBytes {
		end := start + chunkBytes
		if end > len(data) {
			end = len(data)
		}
		if err := c.WriteMessage(websocket.BinaryMessage, data[start:end]); err != nil {
			log.Printf("Error sending audio chunk: %v", err)
			return
		}
		time.Sleep(time.Duration(*chunkMs) * time.Millisecond)
	}
	log.Printf("finished streaming")
}

func send(c *websocket.Conn, message map[string]interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("marshal: %v", err)
		return
	}
	log.Printf("-> %s", data)
	if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("write: %v", err)
	}
}
