// Package debugserver exposes a small read-only gin HTTP server over a
// SealClient's resolved key server list (plus a /ping liveness route), for
// operators diagnosing a stuck deployment - never anything that can
// mutate client state, following the teacher's ping/pong controller as
// the template for "a gin endpoint with one handler and nothing else".
package debugserver

import (
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seal-ibe/seal-go/internal/sealclient"
)

// KeyServerView is what /keyservers reports for one resolved server.
type KeyServerView struct {
	ObjectID string `json:"objectId"`
	Name     string `json:"name"`
	URL      string `json:"url"`
}

// Server wraps a gin.Engine bound to one SealClient's read-only views.
type Server struct {
	engine *gin.Engine
	client *sealclient.SealClient
}

// New builds the debug server's router. It does not start listening.
func New(client *sealclient.SealClient) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{engine: engine, client: client}

	engine.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	engine.GET("/keyservers", s.listKeyServers)

	return s
}

// Run starts listening on addr, blocking until the server stops.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) listKeyServers(c *gin.Context) {
	servers, err := s.client.DebugKeyServers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	views := make([]KeyServerView, len(servers))
	for i, ks := range servers {
		views[i] = KeyServerView{ObjectID: hex.EncodeToString(ks.ObjectID[:]), Name: ks.Name, URL: ks.URL}
	}
	c.JSON(http.StatusOK, gin.H{"keyServers": views})
}
