package main

import (
	"context"
	"flag"
	"log"

	"github.com/gigapi/gigagroup/config"
	"github.com/gigapi/gigagroup/server"
	"github.com/gigapi/gigagroup/source"
)

// initFlags initializes the command line flags
func initFlags() *string {
	configFile := flag.String("config", "", "Configuration file path. Default to none.")
	flag.Parse()
	return configFile
}

func main() {
	configFile := initFlags()
	config.InitConfig(*configFile)

	srv := server.New(
		config.Config.Group.FanIn,
		config.Config.Group.Ddof,
		config.Config.Group.Parallelism,
		config.Config.Group.Method,
	)

	if config.Config.Tables != "" {
		if err := preloadTables(srv, config.Config.Tables); err != nil {
			log.Fatalf("failed to preload tables: %v", err)
		}
	}

	addr := config.Config.HTTP.Host + ":" + config.Config.HTTP.Port
	log.Printf("GigaGroup API Running: %s", addr)
	if err := srv.Run(addr); err != nil {
		log.Fatal(err)
	}
}

// preloadTables registers the tables declared in the yaml file and
// loads their parquet data where a file is given.
func preloadTables(srv *server.Server, file string) error {
	defs, err := config.LoadTables(file)
	if err != nil {
		return err
	}
	for _, def := range defs.Tables {
		schema := def.Schema
		if err := srv.CreateTable(def.Name, &schema); err != nil {
			return err
		}
		if def.Parquet == "" {
			continue
		}
		tbl, err := source.ReadParquet(def.Parquet)
		if err != nil {
			return err
		}
		chunk, err := tbl.Collect(context.Background())
		if err != nil {
			return err
		}
		if err := srv.AppendTable(def.Name, chunk); err != nil {
			return err
		}
		log.Printf("table %s: loaded %d rows from %s", def.Name, chunk.NumRows(), def.Parquet)
	}
	return nil
}
