package workbook

import (
	"context"

	"github.com/tudusp/excel-data-analyzer/internal/pkg/pkgconfig"
	"github.com/tudusp/excel-data-analyzer/internal/pkg/pkgrouter"
	"github.com/tudusp/excel-data-analyzer/internal/pkg/pkgroutine"
	"github.com/tudusp/excel-data-analyzer/internal/pkg/pkguid"
	"github.com/tudusp/excel-data-analyzer/internal/workbook/inbound"
	"github.com/tudusp/excel-data-analyzer/internal/workbook/store"
	"github.com/tudusp/excel-data-analyzer/internal/workbook/usecase"
)

type Dependency struct {
	Config    pkgconfig.Config
	Goroutine *pkgroutine.Manager
	Router    *pkgrouter.Router
	Context   context.Context
	ID        pkguid.StringID
}

func New(dep Dependency) (func(context.Context) error, error) {
	storage := store.NewInMemoryStore()

	janitor := store.NewJanitor(storage,
		dep.Config.GetDuration("modules.workbook.janitor_interval"),
		dep.Config.GetDuration("modules.workbook.session_ttl"))
	dep.Goroutine.Go(dep.Context, janitor.Run)

	if dep.ID == nil {
		dep.ID = pkguid.NewUUID()
	}

	revisionID, err := pkguid.NewSnowflake()
	if err != nil {
		return nil, err
	}

	uc := usecase.New(usecase.Dependency{
		Store:          storage,
		Clock:          nil,
		ID:             dep.ID,
		Revision:       revisionID,
		PreviewMaxRows: int(dep.Config.GetInt("modules.workbook.preview_max_rows")),
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.Config.GetInt("modules.workbook.max_upload_bytes"))

	return janitor.Stop, nil
}
