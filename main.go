package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devgreact/go-todo/docs"
	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/penglongli/gin-metrics/ginmetrics"
	log "github.com/sirupsen/logrus"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @contact.name devgreact
// @contact.email support@devgreact.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /api/v1

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	/////////////////////////////////////////////////////////////////////////////////////////////////
	//////////////////////////////////////////Sentry////////////////////////////////////////////
	app := gin.Default()
	store, _ := redis.NewStore(10, "tcp", envOr("REDIS_ENDPOINT", "redis:6379"), "", []byte(envOr("SESSION_SECRET", "secret")))
	app.Use(sessions.Sessions("todosession", store))
	app.Use(gzip.Gzip(gzip.DefaultCompression))
	app.Use(sentrygin.New(sentrygin.Options{
		Repanic: true,
	}))
	if err := sentry.Init(sentry.ClientOptions{
		Dsn: os.Getenv("SENTRY_DSN"),
	}); err != nil {
		log.Fatalf("Sentry initialization failed: %v\n", err)
	}
	defer sentry.Flush(2 * time.Second)

	/////////////////////////////////////////////////////////////////////////////////////////////////
	///////////////////////Core//////////////////////////////////////
	client, err := getConnection()
	if err != nil {
		log.Fatalf("MongoDB initialization failed: %v", err)
	}
	tasks := &taskGroup{}
	recordStore := NewRecordStore()
	remote := NewRemoteGateway(newMongoDocuments(client), tasks)
	session := NewSessionGateway(newMongoIdentities(client), tasks)
	synchronizer := NewSynchronizer(recordStore, remote, tasks)
	s := &server{sync: synchronizer, session: session}

	if err := synchronizer.LoadInitial(context.Background()); err != nil {
		log.Errorf("initial fetch failed: %v", err)
	}

	/////////////////////////////////////////////////////////////////////////////////////////////////
	///////////////////////Swagger//////////////////////////////////////
	docs.SwaggerInfo.Title = "go-todo API"
	docs.SwaggerInfo.Description = "To-do list API backed by MongoDB"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}
	docs.SwaggerInfo.BasePath = "/api/v1"

	/////////////////////////////////////////////////////////////////////////////////////////////////
	///////////////////////Routes//////////////////////////////////////
	app.GET("/healthz", handleHealthz)
	app.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
	v1 := app.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", s.handleLogin)
			auth.POST("/join", s.handleJoin)
			auth.POST("/logout", s.handleLogout)
			auth.DELETE("/account", s.handleDeleteAccount)
			auth.GET("/session", s.handleSessionState)
		}
		todos := v1.Group("/todos", s.requireLogin)
		{
			todos.GET("", s.handleGetTodos)
			todos.POST("", s.handleAddTodo)
			todos.PUT("/:id", s.handleUpdateTodo)
			todos.DELETE("/:id", s.handleDeleteTodo)
			todos.DELETE("", s.handleClearTodos)
			todos.POST("/sort", s.handleSortTodos)
		}
	}

	/////////////////////////////////////////////////////////////////////////////////////////////////
	///////////////////////Metrics//////////////////////////////////////
	metricRouter := gin.Default()
	metrics := ginmetrics.GetMonitor()
	metrics.SetMetricPath("/metrics")
	metrics.SetSlowTime(10)
	metrics.SetDuration([]float64{0.1, 0.3, 1.2, 5, 10})
	metrics.UseWithoutExposingEndpoint(app)
	metrics.Expose(metricRouter)
	go func() {
		_ = metricRouter.Run(envOr("METRICS_ADDR", ":8081"))
	}()

	/////////////////////////////////////////////////////////////////////////////////////////////////
	///////////////////////Serve//////////////////////////////////////
	srv := &http.Server{
		Addr:    envOr("LISTEN_ADDR", ":8080"),
		Handler: app,
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		log.Infof("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
	// Remote writes dispatched before shutdown still need to land.
	tasks.Wait()
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.Errorf("mongo disconnect: %v", err)
	}
}
