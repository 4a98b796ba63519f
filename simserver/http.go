package simserver

import (
	"encoding/json"
	"log"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/sarchlab/simradio/channel"
)

// EndpointPath is where websocket clients connect.
const EndpointPath = "/ons"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Router returns the HTTP routes of the server: the websocket endpoint and a
// small read-only API.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc(EndpointPath, s.upgrade)
	r.HandleFunc("/api/clients", s.listClients).Methods(http.MethodGet)
	r.HandleFunc("/api/field/{name}", s.getField).Methods(http.MethodGet)

	return r
}

// ListenAndServe serves websocket clients on the TCP address. It blocks until
// the listener fails.
func (s *Server) ListenAndServe(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}

	s.logger.Printf("[INFO] simserver: listening on ws://%s%s",
		listener.Addr(), EndpointPath)

	return http.Serve(listener, s.Router())
}

func (s *Server) upgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("[WARN] simserver: upgrade failed: %v", err)
		return
	}

	err = s.Serve(channel.NewWebSocketChannel(conn))
	if err != nil {
		s.logger.Printf("[WARN] simserver: %v", err)
	}
}

func (s *Server) listClients(w http.ResponseWriter, _ *http.Request) {
	rsp, err := json.Marshal(s.Clients())
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(rsp)
	dieOnErr(err)
}

func (s *Server) getField(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	v, ok := s.Field(name)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	rsp, err := json.Marshal(map[string]string{"name": name, "value": v})
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(rsp)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
