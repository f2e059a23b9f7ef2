package main

import (
	"context"
	"flag"
	"os"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/grpc"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/niche_radar/app/display/internal/biz"
	"github.com/iWorld-y/niche_radar/app/display/internal/conf"
	"github.com/iWorld-y/niche_radar/app/display/internal/data"
	"github.com/iWorld-y/niche_radar/app/display/internal/server"
	"github.com/iWorld-y/niche_radar/app/display/internal/service"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name 是服务的名称
	Name string = "niche_display"
	// Version 是服务的版本号
	Version string
	// flagconf 是配置文件的路径命令行参数
	flagconf string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "app/display/configs/config.yaml", "config path, eg: -conf config.yaml")
}

func newApp(logger log.Logger, hs *http.Server, gs *grpc.Server) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(hs, gs),
	)
}

// initApp 手动组装依赖
func initApp(bc *conf.Bootstrap, logger log.Logger) (*kratos.App, func(), error) {
	eng, err := server.NewNicheEngine(context.Background(), bc.Niche, logger)
	if err != nil {
		return nil, nil, err
	}

	d, cleanup, err := data.NewData(bc.Data, logger)
	if err != nil {
		return nil, nil, err
	}
	repo := data.NewReportRepo(d, logger)
	uc := biz.NewResearchUseCase(eng, repo, bc.Niche.AnalysisConfig, logger)

	healthServer := server.NewHealthServer()
	svc := service.NewNicheService(uc, healthServer, logger)

	// 启动时先探测一次，gRPC 健康状态随后在每次 /v1/health 时刷新
	report, _ := svc.Health(context.Background())
	log.NewHelper(logger).Infof("initial health: healthy=%v services=%d", report.Healthy, len(report.Services))

	hs := server.NewHTTPServer(bc.Server, svc, logger)
	gs := server.NewGRPCServer(bc.Server, healthServer, logger)
	return newApp(logger, hs, gs), cleanup, nil
}

func main() {
	flag.Parse()
	// 初始化日志记录器，包含时间戳、调用者信息、服务ID等上下文
	logger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
	)

	// 初始化配置加载器
	c := config.New(
		config.WithSource(
			file.NewSource(flagconf),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		panic(err)
	}

	// 扫描配置到 Bootstrap 结构体
	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		panic(err)
	}

	app, cleanup, err := initApp(&bc, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	if err := app.Run(); err != nil {
		panic(err)
	}
}
