package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/niche_radar/app/display/internal/biz"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/model"
)

type reportRepo struct {
	data *Data
	log  *log.Helper
}

// NewReportRepo 创建报告仓库，data 为 nil 时返回 nil 表示不归档
func NewReportRepo(data *Data, logger log.Logger) biz.ReportRepo {
	if data == nil {
		return nil
	}
	return &reportRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *reportRepo) SaveReport(ctx context.Context, res *model.ResearchResult) (int64, error) {
	payload, err := json.Marshal(res)
	if err != nil {
		return 0, fmt.Errorf("marshal result: %w", err)
	}

	var id int64
	err = r.data.db.QueryRowContext(ctx, `
		INSERT INTO niche_reports (run_id, query, opportunity_count, total_subscribers, result)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		res.Metadata.RunID, res.Query, len(res.Opportunities), res.TotalSubscribers, payload,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	r.log.WithContext(ctx).Infof("archived report %d (run %s)", id, res.Metadata.RunID)
	return id, nil
}

func (r *reportRepo) ListReports(ctx context.Context, page, pageSize int) ([]*biz.ReportSummary, int, error) {
	offset := (page - 1) * pageSize

	rows, err := r.data.db.QueryContext(ctx, `
		SELECT id, run_id, query, opportunity_count, total_subscribers, created_at
		FROM niche_reports
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var summaries []*biz.ReportSummary
	for rows.Next() {
		s := &biz.ReportSummary{}
		if err := rows.Scan(&s.ID, &s.RunID, &s.Query, &s.Opportunities, &s.TotalSubscribers, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.data.db.QueryRowContext(ctx, `SELECT count(*) FROM niche_reports`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

func (r *reportRepo) GetReportByID(ctx context.Context, id int64) (*biz.Report, error) {
	rp := &biz.Report{}
	var payload []byte
	err := r.data.db.QueryRowContext(ctx, `
		SELECT id, run_id, query, opportunity_count, total_subscribers, created_at, result
		FROM niche_reports WHERE id = $1`, id,
	).Scan(&rp.ID, &rp.RunID, &rp.Query, &rp.Opportunities, &rp.TotalSubscribers, &rp.CreatedAt, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, biz.ErrReportNotFound
		}
		return nil, err
	}

	rp.Result = &model.ResearchResult{}
	if err := json.Unmarshal(payload, rp.Result); err != nil {
		return nil, fmt.Errorf("unmarshal report %d: %w", id, err)
	}
	return rp, nil
}
