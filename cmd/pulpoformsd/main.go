package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	configPath := flag.String("config-path", "", "YAML config path")
	listen := flag.String("listen", "", "listen address, e.g. :8080")
	schemaDir := flag.String("schema-dir", "", "directory holding the schema documents")
	locale := flag.String("locale", "", "default locale of answer messages")
	catalogDir := flag.String("catalog-dir", "", "directory with <locale>.yaml catalogs merged over the built-in ones")
	watch := flag.Bool("watch", false, "reload the schema directory when its files change")
	loglevel := flag.String("loglevel", "", "log level. debug|info|warn|error|off")
	flag.Parse()

	conf, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("can not read configuration: %s", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			conf.Listen = *listen
		case "schema-dir":
			conf.SchemaDir = *schemaDir
		case "locale":
			conf.Locale = *locale
		case "catalog-dir":
			conf.CatalogDir = *catalogDir
		case "watch":
			conf.Watch = *watch
		case "loglevel":
			conf.LogLevel = *loglevel
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := newServer(ctx, conf)
	if err != nil {
		log.Fatalf("can not start: %s", err)
	}
	e := srv.echo

	if conf.Watch {
		go func() {
			if err := srv.library.Watch(ctx, 0, nil); err != nil {
				e.Logger.Errorf("watch stopped: %s", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := e.Shutdown(graceful); err != nil {
			e.Logger.Errorf("error on shutdown: %s", err)
		}
	}()

	log.Println("registered routes:")
	for _, r := range e.Routes() {
		log.Println(r.Method, r.Path)
	}
	if err := e.Start(conf.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		e.Logger.Fatal(err)
	}
}
