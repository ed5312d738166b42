// luna-server exposes the UCI loop over a websocket so browser GUIs and
// remote match runners can drive the engine without a child process.
package main

import (
	"bytes"
	"flag"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/nicolasnotcage/luna/internal/engine"
	"github.com/nicolasnotcage/luna/internal/uci"
)

var addr = flag.String("addr", "localhost:8002", "listen address")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsLineWriter forwards each output line as one websocket text message.
type wsLineWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
	buf  bytes.Buffer
}

func (w *wsLineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Partial line: keep it buffered for the next write.
			w.buf.WriteString(line)
			break
		}
		if err := w.conn.WriteMessage(websocket.TextMessage, []byte(line[:len(line)-1])); err != nil {
			return len(p), err
		}
	}
	return len(p), nil
}

func serveUCI(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}
	defer conn.Close()

	// One engine per connection; sessions are fully isolated.
	eng := engine.NewEngine(engine.DefaultHashSizeMB)
	protocol := uci.New(eng)
	protocol.SetOutput(&wsLineWriter{conn: conn})

	log.Printf("session started: %s", conn.RemoteAddr())

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("session closed: %s", conn.RemoteAddr())
			return
		}
		for _, line := range bytes.Split(message, []byte("\n")) {
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			if quit := protocol.HandleCommand(string(bytes.TrimSpace(line))); quit {
				return
			}
		}
	}
}

func main() {
	flag.Parse()

	router := mux.NewRouter()
	router.HandleFunc("/uci", serveUCI)

	log.Printf("listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, router))
}
