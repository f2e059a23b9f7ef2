package server

import (
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/iWorld-y/niche_radar/app/display/internal/conf"
)

// NewHealthServer 标准 grpc.health.v1 服务，按数据源名报告状态
func NewHealthServer() *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return hs
}

func NewGRPCServer(c *conf.Server, hs *health.Server, logger log.Logger) *grpc.Server {
	var opts = []grpc.ServerOption{
		grpc.Middleware(
			recovery.Recovery(),
		),
		// 使用自己的健康服务，状态由数据源探测结果决定
		grpc.CustomHealth(),
	}
	if c != nil && c.Grpc != nil {
		if c.Grpc.Addr != "" {
			opts = append(opts, grpc.Address(c.Grpc.Addr))
		}
		if c.Grpc.Timeout != "" {
			if d, err := time.ParseDuration(c.Grpc.Timeout); err == nil {
				opts = append(opts, grpc.Timeout(d))
			}
		}
	}

	srv := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(srv, hs)
	return srv
}
