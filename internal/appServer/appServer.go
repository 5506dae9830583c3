// launching the http server for uploads and batch runs
package appServer

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tallyfy/denizen-assets/config"
	"github.com/tallyfy/denizen-assets/internal/transport"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	httpServer *http.Server
}

func NewServer(cfg *config.Config, handler http.Handler) *Server {
	return &Server{httpServer: &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}}
}

func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Serve blocks until ctx is cancelled, then shuts the server down.
func (a *App) Serve(ctx context.Context) error {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	if a.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	assetHandler := transport.NewAssetHandler(a.Service, a.cfg.Server.MaxUpload)

	srv := NewServer(a.cfg, transport.InitRoutes(assetHandler))
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logrus.WithField("port", a.cfg.Server.Port).Info("App Started")

	select {
	case err, ok := <-errCh:
		if ok {
			logrus.Errorf("error occured while running http server: %s", err.Error())
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logrus.Info("App Shutting Down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
		return err
	}
	return nil
}
