// Package pg bootstraps the PostgreSQL layer: a pgx/v5 connection pool with
// retrying startup, embedded goose migrations, a health probe, and error
// classification helpers shared by the billing stores.
//
// Typical wiring:
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, migrations.FS, cfg, log); err != nil {
//		return err
//	}
//
// Configuration comes from environment variables; see the field tags on
// Config for names and defaults.
package pg
