package main

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"bulletin/internal/database"
	"bulletin/internal/middleware"
	"bulletin/internal/modules/auth"
	"bulletin/internal/modules/board"
	"bulletin/internal/pkg/imagex"
	jwtsvc "bulletin/internal/pkg/jwt"
	"bulletin/internal/repository"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "bulletin.db"
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is empty")
	}
	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	mediaDir := os.Getenv("MEDIA_DIR")
	if mediaDir == "" {
		mediaDir = board.MediaBaseDir
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	if err := writePlaceholder(mediaDir); err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)

	j := jwtsvc.New(secret, 1*time.Hour)

	authService := auth.NewService(userRepo, tokenRepo, j, 14*24*time.Hour)
	authHandler := auth.NewHandler(authService)

	hub := board.NewHub()
	defer hub.Close()

	boardService := board.NewService(postRepo, hub, mediaDir, board.StaticURLBase)
	boardHandler := board.NewHandler(boardService, hub)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	r.Static(board.StaticURLBase, mediaDir)
	r.StaticFile(board.PlaceholderURL, filepath.Join(mediaDir, "placeholder.png"))

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterRoutes(v1)
		boardHandler.RegisterPublicRoutes(v1)

		// protected (post create/update)
		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(j))
		{
			boardHandler.RegisterProtectedRoutes(protected)
		}
	}

	if err := r.Run(addr); err != nil {
		log.Fatal(err)
	}
}

// writePlaceholder materializes the 1x1 transparent "no image" PNG so it can
// be served statically.
func writePlaceholder(mediaDir string) error {
	if err := os.MkdirAll(mediaDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(mediaDir, "placeholder.png"), imagex.TransparentPlaceholder(), 0644)
}
