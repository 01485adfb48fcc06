package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/velodex/route-advisor/internal/advisor"
	"github.com/velodex/route-advisor/internal/common"
	"github.com/velodex/route-advisor/internal/config"
	"github.com/velodex/route-advisor/internal/http"
	"github.com/velodex/route-advisor/internal/services/router"
)

func main() {
	common.InitRuntime()

	// .env is optional; deployed instances configure through the environment.
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	generalConf := &config.GeneralConfig{}
	conf := container.NewConf(
		generalConf,
		&config.RouterConfig{},
		&config.StoreConfig{},
	)

	dic, err := container.New(
		conf,

		&router.Graph{},
		&advisor.Service{},
		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	common.InitLogger(generalConf.LogFormat)

	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("shutdown complete")
}
