package data

import (
	"database/sql"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	_ "github.com/lib/pq"

	"github.com/iWorld-y/niche_radar/app/display/internal/conf"
)

const schema = `
	CREATE TABLE IF NOT EXISTS niche_reports (
		id BIGSERIAL PRIMARY KEY,
		run_id TEXT NOT NULL UNIQUE,
		query TEXT NOT NULL,
		opportunity_count INTEGER NOT NULL DEFAULT 0,
		total_subscribers BIGINT NOT NULL DEFAULT 0,
		result JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

type Data struct {
	db *sql.DB
}

// NewData 连接归档库，未配置数据源时返回 nil
func NewData(c *conf.Data, logger log.Logger) (*Data, func(), error) {
	if c == nil || c.Database == nil || c.Database.Source == "" {
		log.NewHelper(logger).Warn("report archive disabled: no database source")
		return nil, func() {}, nil
	}
	driver := c.Database.Driver
	if driver == "" {
		driver = "postgres"
	}

	db, err := sql.Open(driver, c.Database.Source)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to init niche_reports table: %w", err)
	}

	cleanup := func() {
		log.NewHelper(logger).Info("closing the data resources")
		db.Close()
	}
	return &Data{db: db}, cleanup, nil
}
