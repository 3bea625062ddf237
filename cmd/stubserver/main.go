// stubserver runs the in-memory chat backend stand-in with a seeded demo
// conversation, for developing the client without the real portal.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/czefenglim/bluecollar-chat/internal/config"
	"github.com/czefenglim/bluecollar-chat/internal/devserver"
	"github.com/czefenglim/bluecollar-chat/internal/models"
	"github.com/czefenglim/bluecollar-chat/pkg/logger"
)

func main() {
	config.LoadConfig()
	logger.Init(config.AppConfig.Environment)

	srv := devserver.New("stub-secret")

	// Demo data: one job seeker, one employer, one thread.
	srv.SeedUser(models.Sender{ID: 1, Name: "Aisha", Role: "JOB_SEEKER"})
	srv.SeedUser(models.Sender{ID: 2, Name: "BuildRight Ltd", Role: "EMPLOYER"})
	srv.SeedConversation(models.Conversation{
		ID:        1,
		JobSeeker: models.Participant{ID: 1, Name: "Aisha", Role: "JOB_SEEKER"},
		Employer:  models.Participant{ID: 2, Name: "BuildRight Ltd", Role: "EMPLOYER", CompanyName: "BuildRight"},
		Job:       models.JobRef{ID: 12, Title: "Site Electrician"},
		CreatedAt: time.Now(),
	})
	srv.SeedMessage(1, 2, "Thanks for applying! When could you start?", time.Now().Add(-2*time.Hour))

	fmt.Println("Demo tokens:")
	fmt.Printf("  job seeker: %s\n", srv.IssueToken(1, "JOB_SEEKER"))
	fmt.Printf("  employer:   %s\n", srv.IssueToken(2, "EMPLOYER"))

	httpServer := &http.Server{
		Addr:         config.AppConfig.StubServerBind,
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("Stub chat backend listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start stub server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down stub server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Forced shutdown")
	}
}
