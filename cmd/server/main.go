package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/evamarketing/elife/internal/api"
	"github.com/evamarketing/elife/internal/db"
	"github.com/evamarketing/elife/internal/middleware"
	"github.com/evamarketing/elife/internal/utils"
)

const version = "1.0.0"

func main() {
	importSnapshot := flag.String("import-snapshot", "", "import a JSON snapshot into the sqlite database and exit")
	flag.Parse()

	addr := utils.SafeEnv("ELIFE_ADDR", ":8080")
	sqlitePath := utils.SafeEnv("ELIFE_SQLITE_PATH", "")
	snapshotPath := utils.SafeEnv("ELIFE_DB_PATH", "elife.json")
	staticDir := utils.SafeEnv("ELIFE_STATIC_DIR", "")
	migrationsDir := utils.SafeEnv("ELIFE_MIGRATIONS_DIR", "")

	var store api.Store
	if sqlitePath != "" {
		st, err := db.Open(sqlitePath, migrationsDir)
		if err != nil {
			log.Fatalf("open sqlite %s: %v", sqlitePath, err)
		}
		defer st.Close()
		store = st
		log.Printf("storage: sqlite at %s", sqlitePath)

		if *importSnapshot != "" {
			n, err := importFromSnapshot(st, *importSnapshot)
			if err != nil {
				log.Fatalf("import snapshot %s: %v", *importSnapshot, err)
			}
			log.Printf("imported %d records from %s", n, *importSnapshot)
			return
		}
	} else {
		st, err := api.NewMemoryStoreFromPath(snapshotPath)
		if err != nil {
			log.Fatalf("load snapshot %s: %v", snapshotPath, err)
		}
		store = st
		log.Printf("storage: memory with snapshot at %s", snapshotPath)
	}

	mux := http.NewServeMux()
	router := api.NewRouter(store, middleware.SignToken)
	router.Register(mux)

	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		locale := middleware.LocaleFromContext(r.Context())
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`{"status":"` + utils.T(locale, "health.ok") + `","version":"` + version + `"}`))
	})

	if staticDir != "" {
		if _, err := os.Stat(staticDir); err != nil {
			log.Printf("static dir %s not readable: %v", staticDir, err)
		}
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}

	handler := middleware.CORS(
		middleware.SecureHeaders(
			middleware.NoStore(
				middleware.LocaleMiddleware(
					middleware.WithAuth(mux)))))

	log.Printf("listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
