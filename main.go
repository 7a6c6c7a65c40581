package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/alexbeattie/chla-map-backend/internal/auth"
	"github.com/alexbeattie/chla-map-backend/internal/centers"
	"github.com/alexbeattie/chla-map-backend/internal/db"
	"github.com/alexbeattie/chla-map-backend/internal/middleware"
	"github.com/alexbeattie/chla-map-backend/internal/providers"
	"github.com/alexbeattie/chla-map-backend/internal/search"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}

	auth.Init()
	providers.Init()
	centers.Init()

	// search.Init builds the first snapshot, so the tables must exist first.
	search.Init()

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)

	r.Mount("/auth", auth.SetupRoutes())
	r.Mount("/providers", providers.SetupRoutes())
	r.Mount("/centers", centers.SetupRoutes())
	r.Mount("/search", search.SetupRoutes())

	fmt.Println("Server listening on port :" + port + "...")

	http.ListenAndServe("0.0.0.0:"+port, r)
}
