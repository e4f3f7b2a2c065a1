package app

import (
	"vss-tools/internal/adapters"
	"vss-tools/internal/ports"
)

type Service struct {
	Vspec    ports.VspecSourcePort
	Units    ports.UnitSourcePort
	Exporter ports.ExportPort
}

func NewService() Service {
	return Service{
		Vspec:    adapters.NewVspecFileAdapter(),
		Units:    adapters.NewUnitsFileAdapter(),
		Exporter: adapters.NewExportFileAdapter(),
	}
}
