package conf

import "github.com/iWorld-y/niche_radar/app/niche_radar/pkg/config"

type Bootstrap struct {
	Server *Server        `json:"server"`
	Data   *Data          `json:"data"`
	Niche  *config.Config `json:"niche"`
}

type Server struct {
	Http *HTTP `json:"http"`
	Grpc *GRPC `json:"grpc"`
}

type HTTP struct {
	Addr    string `json:"addr"`
	Timeout string `json:"timeout"`
}

type GRPC struct {
	Addr    string `json:"addr"`
	Timeout string `json:"timeout"`
}

type Data struct {
	Database *Database `json:"database"`
}

// Database 报告归档库，Source 为空时不归档
type Database struct {
	Driver string `json:"driver"`
	Source string `json:"source"`
}
