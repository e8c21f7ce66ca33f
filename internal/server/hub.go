// Package server hosts the websocket editor backend: a hub tracking the
// connected clients and one command loop per client session.
package server

import (
	"log"

	"github.com/gridwhale/gridsheet/internal/sheet"
)

// Hub tracks the set of active clients. Clients register on connect and
// unregister when their read pump exits; broadcast fans a message out to
// every client.
type Hub struct {
	clients map[*Client]bool

	broadcast chan []byte

	register chan *Client

	unregister chan *Client

	// store is the shared workbook store; nil runs in-memory only.
	store *sheet.Store
}

func NewHub(store *sheet.Store) *Hub {
	return &Hub{
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		store:      store,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			log.Println("ws client registered:", client.id)
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				log.Println("ws client unregistered:", client.id)
				delete(h.clients, client)
				close(client.send)
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}
