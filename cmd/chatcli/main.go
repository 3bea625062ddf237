package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/czefenglim/bluecollar-chat/internal/api"
	"github.com/czefenglim/bluecollar-chat/internal/config"
	"github.com/czefenglim/bluecollar-chat/internal/live"
	"github.com/czefenglim/bluecollar-chat/internal/session"
	"github.com/czefenglim/bluecollar-chat/internal/storage"
	"github.com/czefenglim/bluecollar-chat/internal/tui"
	apperrors "github.com/czefenglim/bluecollar-chat/pkg/errors"
	"github.com/czefenglim/bluecollar-chat/pkg/logger"
	"github.com/czefenglim/bluecollar-chat/pkg/utils"
)

func main() {
	conversationID := flag.Int64("conversation", 0, "conversation id to open")
	loginToken := flag.String("login", "", "store this bearer token on the device and exit")
	logout := flag.Bool("logout", false, "clear the stored credential and exit")
	flag.Parse()

	config.LoadConfig()
	logger.Init(config.AppConfig.Environment)

	device, err := storage.Open(config.AppConfig.DeviceDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open device store")
	}

	if *logout {
		if err := device.ClearCredential(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to clear credential")
		}
		fmt.Println("Logged out.")
		return
	}

	if *loginToken != "" {
		claims, err := utils.ParseToken(*loginToken)
		if err != nil {
			logger.Fatal().Err(err).Msg("Token rejected")
		}
		if err := device.SaveCredential(*loginToken, claims.UserID, "", claims.Role); err != nil {
			logger.Fatal().Err(err).Msg("Failed to store credential")
		}
		fmt.Printf("Logged in as user %d.\n", claims.UserID)
		return
	}

	if *conversationID == 0 {
		fmt.Fprintln(os.Stderr, "usage: chatcli -conversation <id>  (or -login <token> / -logout)")
		os.Exit(2)
	}

	cred, err := device.LoadCredential()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Not logged in. Run: chatcli -login <token>")
		os.Exit(1)
	}
	claims, err := utils.ParseToken(cred.Token)
	if err != nil {
		// Expired or mangled token: same as not logged in.
		fmt.Fprintln(os.Stderr, "Session expired. Run: chatcli -login <token>")
		os.Exit(1)
	}

	restClient := api.New(config.AppConfig.APIBaseURL, cred.Token, config.AppConfig.HTTPTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	channel, err := live.Dial(ctx, config.AppConfig.SocketURL, cred.Token)
	if err != nil {
		// REST-only fallback still works; sends go through POST.
		logger.Warn().Err(err).Msg("Live channel unavailable, running REST-only")
		channel = nil
	}

	var liveChannel live.Channel
	if channel != nil {
		liveChannel = channel
		defer channel.Close()
	} else {
		liveChannel = live.Offline{}
	}

	sess, err := session.Open(ctx, restClient, liveChannel, session.Options{
		ConversationID: *conversationID,
		UserID:         claims.UserID,
		PageSize:       config.AppConfig.PageSize,
		TypingTTL:      config.AppConfig.TypingTTL,
	})
	if err != nil {
		if apperrors.IsAuth(err) {
			fmt.Fprintln(os.Stderr, "Session expired. Run: chatcli -login <token>")
			os.Exit(1)
		}
		logger.Fatal().Err(err).Msg("Failed to open conversation")
	}
	defer sess.Close()

	p := tea.NewProgram(tui.NewChatModel(sess, device, claims.UserID), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Fatal().Err(err).Msg("UI crashed")
	}
}
