// Dev client for troubleshooting a running incident board.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"incident-board/api"
	"incident-board/models"

	"github.com/apex/log"
	"github.com/gorilla/websocket"
)

const contentType = "application/json"

var (
	server      = flag.String("server", "http://127.0.0.1:5000", "Base URL of the incident board server.")
	category    = flag.String("category", "", "Category of the report to submit, one of violation, criminal, threat.")
	description = flag.String("description", "", "Description of the report to submit.")
	listen      = flag.Bool("listen", false, "Tail updateGraph events until interrupted.")
)

func doReport() {
	log.Infof("doReport(%s)", *category)
	buf, err := json.Marshal(api.ReportArgs{
		Category:    *category,
		Description: *description,
	})
	if err != nil {
		log.Errorf("Failed to marshal the report: %v", err)
		return
	}

	resp, err := http.Post(*server+api.ReportEndpoint, contentType, bytes.NewBuffer(buf))
	if err != nil {
		log.Errorf("Failed to call the server with %v", err)
		return
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	log.Infof("Done, %s: %v", resp.Status, string(body))
}

func doGraph() {
	log.Info("doGraph()")
	resp, err := http.Get(*server + api.GraphEndpoint)
	if err != nil {
		log.Errorf("Failed to call the server with %v", err)
		return
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	log.Infof("Done, %s: %v", resp.Status, string(body))
}

func listenURL() (string, error) {
	u, err := url.Parse(*server)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(u.Scheme, "https") {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = api.ListenEndpoint
	return u.String(), nil
}

func doListen() {
	wsURL, err := listenURL()
	if err != nil {
		log.Errorf("Bad server URL %q: %v", *server, err)
		return
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Errorf("Failed to connect to %s: %v", wsURL, err)
		return
	}
	defer conn.Close()
	log.Infof("Listening on %s, press Ctrl+C to stop", wsURL)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	for {
		var msg struct {
			Type string               `json:"type"`
			Data models.CountSnapshot `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			log.Infof("Stream closed: %v", err)
			return
		}
		if msg.Type != models.EventUpdateGraph {
			continue
		}
		log.WithFields(log.Fields{
			"violation": msg.Data.Violation,
			"criminal":  msg.Data.Criminal,
			"threat":    msg.Data.Threat,
		}).Info(msg.Type)
	}
}

func main() {
	flag.Parse()

	if *category != "" || *description != "" {
		doReport()
	}
	doGraph()
	if *listen {
		doListen()
	}
}
