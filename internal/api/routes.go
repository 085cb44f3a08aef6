package api

import (
	"net/http"

	"github.com/lehen20/dpr-auto/internal/config"
	"github.com/lehen20/dpr-auto/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) {
	routes.Register(
		mux,
		domain.Documents.Handler().WithMaxUploadSize(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Projects.Handler().Routes(),
		domain.Pipeline.Handler().Routes(),
	)
}
