// Package mockserver is an in-process stand-in for the chat backend. It
// implements every route the client calls, stores data with gorm on sqlite,
// and simulates bot replies after a broadcast.
package mockserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Server struct {
	db     *gorm.DB
	logger zerolog.Logger
	router *gin.Engine

	// after schedules simulated bot replies; tests swap it for a
	// synchronous version.
	after func(d time.Duration, f func())

	mu     sync.Mutex
	online map[int64]bool
}

func New(db *gorm.DB, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		db:     db,
		logger: logger,
		after:  func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		online: make(map[int64]bool),
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	auth := r.Group("/api/auth")
	{
		auth.GET("/get-initial-contacts/:from", s.getInitialContacts)
		auth.POST("/add-batch-users", s.addBatchUsers)
		auth.DELETE("/delete-batch-users/:startId", s.deleteBatchUsers)
		auth.POST("/message/broadcast", s.broadcast)

		auth.GET("/get-replies", s.getReplies)
		auth.POST("/add-reply", s.addReply)
		auth.PUT("/update-reply/:id", s.updateReply)
		auth.DELETE("/delete-reply/:id", s.deleteReply)

		auth.DELETE("/deleteMessagesByUser/:messageId", s.deleteMessage)
	}
	r.GET("/api/messages/get-messages/:from/:to", s.getMessages)
	r.POST("/api/validate-whatsapp-profiles", s.validateProfiles)

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// SetOnline marks a user as online or offline.
func (s *Server) SetOnline(userID int64, online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if online {
		s.online[userID] = true
	} else {
		delete(s.online, userID)
	}
}

func (s *Server) onlineIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.online))
	for id := range s.online {
		ids = append(ids, id)
	}
	return ids
}

// Seed fills an empty database with the current user, one contact, a short
// conversation and a few bot replies.
func (s *Server) Seed() error {
	var count int64
	if err := s.db.Model(&User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		users := []User{
			{ID: 1, Name: "You", PhoneNumber: "+15550000001", About: "Hey there! I am using WhatsApp."},
			{ID: 2, Name: "Alice Support", PhoneNumber: "+15550000002", About: "Available"},
		}
		if err := tx.Create(&users).Error; err != nil {
			return err
		}

		now := time.Now()
		messages := []Message{
			{SenderID: 2, RecieverID: 1, Message: "Welcome aboard!", Type: "text", MessageStatus: "read", CreatedAt: now.Add(-2 * time.Minute)},
			{SenderID: 1, RecieverID: 2, Message: "Thanks, glad to be here.", Type: "text", MessageStatus: "delivered", CreatedAt: now.Add(-time.Minute)},
		}
		if err := tx.Create(&messages).Error; err != nil {
			return err
		}

		replies := []Reply{
			{Content: "Thanks for reaching out!"},
			{Content: "We'll get back to you shortly."},
			{Content: "Have a great day!"},
		}
		return tx.Create(&replies).Error
	})
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("mock backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
