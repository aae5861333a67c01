package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"policyflow/claim"
	"policyflow/config"
	"policyflow/db"
	"policyflow/httpapi"
	"policyflow/idgen"
	"policyflow/metrics"
	"policyflow/policy"
)

func main() {
	ctx := context.Background()

	cfg := config.FromEnv()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("bootstrap database pool: %v", err)
	}
	defer pool.Close()

	m := metrics.New()

	policyRepo := policy.NewRepository(pool)
	claimRepo := claim.NewRepository(pool)

	policyService := policy.NewService(pool, policyRepo, idgen.New()).WithMetrics(m)
	claimService := claim.NewService(pool, claimRepo, policyRepo, idgen.New()).WithMetrics(m)

	server := httpapi.NewServer(policyService, claimService)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("policyflow api listening on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("http server: %v", err)
	}
}
