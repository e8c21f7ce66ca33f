package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/NYTimes/gziphandler"

	"github.com/gridwhale/gridsheet/internal/server"
	"github.com/gridwhale/gridsheet/internal/sheet"
)

var (
	addr       = flag.String("addr", "", "http service address (overrides config)")
	configPath = flag.String("config", "", "path to YAML config file")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	store, err := sheet.OpenStore(cfg.DatabasePath)
	if err != nil {
		log.Fatal("opening workbook store: ", err)
	}
	defer store.Close()

	fs := http.FileServer(http.Dir(cfg.StaticDir))
	http.Handle("/", gziphandler.GzipHandler(fs))

	hub := server.NewHub(store)
	go hub.Run()

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		server.ServeWS(hub, w, r)
	})

	log.Println("gridsheet listening on " + cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, nil))
}
