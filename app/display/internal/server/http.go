package server

import (
	"context"
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/niche_radar/app/display/internal/conf"
	"github.com/iWorld-y/niche_radar/app/display/internal/service"
)

const (
	operationResearch    = "/niche.v1.Niche/Research"
	operationHealth      = "/niche.v1.Niche/Health"
	operationListReports = "/niche.v1.Niche/ListReports"
	operationGetReport   = "/niche.v1.Niche/GetReport"
)

func NewHTTPServer(c *conf.Server, s *service.NicheService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
	}
	if c != nil && c.Http != nil {
		if c.Http.Addr != "" {
			opts = append(opts, http.Address(c.Http.Addr))
		}
		if c.Http.Timeout != "" {
			if d, err := time.ParseDuration(c.Http.Timeout); err == nil {
				opts = append(opts, http.Timeout(d))
			}
		}
	}

	srv := http.NewServer(opts...)
	RegisterNicheHTTPServer(srv, s)
	return srv
}

// RegisterNicheHTTPServer 注册调研相关路由
func RegisterNicheHTTPServer(srv *http.Server, s *service.NicheService) {
	r := srv.Route("/")
	r.POST("/v1/research", researchHandler(s))
	r.GET("/v1/health", healthHandler(s))
	r.GET("/v1/reports", listReportsHandler(s))
	r.GET("/v1/reports/{id}", getReportHandler(s))
}

func researchHandler(s *service.NicheService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in service.ResearchRequest
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, operationResearch)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return s.Research(ctx, req.(*service.ResearchRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(nethttp.StatusOK, out)
	}
}

func healthHandler(s *service.NicheService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		http.SetOperation(ctx, operationHealth)
		h := ctx.Middleware(func(ctx context.Context, _ interface{}) (interface{}, error) {
			return s.Health(ctx)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(nethttp.StatusOK, out)
	}
}

func listReportsHandler(s *service.NicheService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in service.ListReportsRequest
		q := ctx.Query()
		if v := q.Get("page"); v != "" {
			in.Page, _ = strconv.Atoi(v)
		}
		if v := q.Get("page_size"); v != "" {
			in.PageSize, _ = strconv.Atoi(v)
		}
		http.SetOperation(ctx, operationListReports)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return s.ListReports(ctx, req.(*service.ListReportsRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(nethttp.StatusOK, out)
	}
}

func getReportHandler(s *service.NicheService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		id, err := strconv.ParseInt(ctx.Vars().Get("id"), 10, 64)
		if err != nil {
			return errors.BadRequest("INVALID_ID", "report id must be an integer")
		}
		http.SetOperation(ctx, operationGetReport)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return s.GetReport(ctx, req.(int64))
		})
		out, err := h(ctx, id)
		if err != nil {
			return err
		}
		return ctx.Result(nethttp.StatusOK, out)
	}
}
