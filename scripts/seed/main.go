package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/alumnihub/alumnihub/internal/actors"
	"github.com/alumnihub/alumnihub/internal/app"
	"github.com/alumnihub/alumnihub/internal/branches"
	"github.com/alumnihub/alumnihub/internal/platform/db"
	"github.com/alumnihub/alumnihub/internal/rbac"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.StoreDriver != app.StoreDriverPostgres {
		log.Fatalf("seed requires STORE_DRIVER=postgres, got %q", cfg.StoreDriver)
	}
	logger := app.NewLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	fmt.Println("→ Applying migrations...")
	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	fmt.Println("→ Seeding permission catalog...")
	catalog, err := rbac.LoadCatalogFile(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("load catalog: %v", err)
	}
	branchService := branches.NewService(branches.NewRepository(pool), logger)
	actorService := actors.NewService(actors.NewRepository(pool), branchService, logger)
	access := rbac.NewService(rbac.NewPostgresRepository(pool), nil, logger).WithActors(actorService)
	res, err := access.Seed(ctx, catalog)
	if err != nil {
		log.Fatalf("seed catalog: %v", err)
	}
	fmt.Printf("  %d permissions, %d roles created, %d grants\n", res.Permissions, res.RolesCreated, res.Grants)

	if names := demoBranches(); len(names) > 0 {
		fmt.Println("→ Seeding branches...")
		if err := seedBranches(ctx, branchService, names); err != nil {
			log.Fatalf("seed branches: %v", err)
		}
	}

	if cfg.BootstrapActor != "" {
		fmt.Println("→ Seeding bootstrap actor...")
		actor, err := actorService.Bootstrap(ctx, access, cfg.BootstrapActor, cfg.BootstrapRole)
		if err != nil {
			log.Fatalf("bootstrap actor: %v", err)
		}
		fmt.Printf("  actor %d (%s) holds %s; send %s: %d\n", actor.ID, actor.DisplayName, cfg.BootstrapRole, cfg.IdentityHeader, actor.ID)
	}

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

// demoBranches reads SEED_BRANCHES, a comma separated list of branch names.
func demoBranches() []string {
	var names []string
	for _, name := range strings.Split(os.Getenv("SEED_BRANCHES"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func seedBranches(ctx context.Context, svc *branches.Service, names []string) error {
	for _, name := range names {
		b, err := svc.Create(ctx, branches.BranchForm{Name: name})
		if errors.Is(err, branches.ErrNameTaken) {
			fmt.Printf("  %s already exists\n", name)
			continue
		}
		if err != nil {
			return err
		}
		fmt.Printf("  %s → %d\n", b.Name, b.ID)
	}
	return nil
}
