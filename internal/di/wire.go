//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"jamsocial/internal/config"
	"jamsocial/internal/media"
)

// wire generates the real bodies in wire_gen.go.

func InitializeApplication(cfg *config.Config) (*Application, func(), error) {
	wire.Build(
		storageSet,
		profileSet,
		httpSet,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil, nil
}

func InitializeMediaServer(cfg *config.Config) (*media.HTTPServer, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMongo,
		ProvideObjectSigner,
		ProvideObjectStore,
		ProvideMediaServer,
	)
	return nil, nil, nil
}
