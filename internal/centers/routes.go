package centers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	// Read-only; center records change through the seed and backfill cmds.
	r.Get("/", ListCentersHandler)
	r.Get("/near", NearHandler)
	r.Get("/zip/{zip}", ZipHandler)
	r.Get("/zip/{zip}/coverage", CoverageHandler)
	r.Get("/{id}", GetCenterHandler)

	return r
}
