package main

import (
	"context"
	"flag"
	"os"

	"github.com/apex/log"

	"github.com/jengzang/transit-reports-backend-go/internal/config"
	"github.com/jengzang/transit-reports-backend-go/internal/database"
	"github.com/jengzang/transit-reports-backend-go/internal/logging"
	"github.com/jengzang/transit-reports-backend-go/internal/repository"
	"github.com/jengzang/transit-reports-backend-go/internal/routeimport"
)

func main() {
	file := flag.String("file", "", "GeoJSON FeatureCollection of stop points")
	flag.Parse()

	cfg := config.Load()
	logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	if *file == "" {
		log.Fatal("usage: importroutes -file stops.geojson")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.WithError(err).Fatal("failed to read input")
	}
	routes, err := routeimport.Parse(data)
	if err != nil {
		log.WithError(err).Fatal("failed to parse input")
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.Migrate(ctx, db, cfg.Database.Driver); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	n, err := routeimport.Import(ctx, repository.NewRouteRepository(db), routes)
	if err != nil {
		log.WithError(err).WithField("imported", n).Fatal("import failed")
	}
	log.WithField("routes", n).Info("import complete")
}
