package mockserver

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/saravenpi/wavechat/internal/contacts"
	"github.com/saravenpi/wavechat/internal/logging"
)

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("invalid %s", name)})
		return 0, false
	}
	return id, true
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.logger.Error().Err(err).Str(logging.FieldPath, c.Request.URL.Path).Msg("mock backend failure")
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
}

func (s *Server) getInitialContacts(c *gin.Context) {
	from, ok := idParam(c, "from")
	if !ok {
		return
	}
	s.SetOnline(from, true)

	users := []User{}
	if err := s.db.Where("id <> ?", from).Order("name").Find(&users).Error; err != nil {
		s.internalError(c, err)
		return
	}

	online := s.onlineIDs()
	sort.Slice(online, func(i, j int) bool { return online[i] < online[j] })

	c.JSON(http.StatusOK, gin.H{"users": users, "onlineUsers": online})
}

type batchUser struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
}

type batchUsersRequest struct {
	StartingID int64       `json:"startingId"`
	Users      []batchUser `json:"users"`
}

func (s *Server) addBatchUsers(c *gin.Context) {
	var req batchUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if len(req.Users) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No users to import"})
		return
	}
	if req.StartingID <= 0 {
		req.StartingID = 1
	}

	var created []User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing []User
		if err := tx.Select("id", "phone_number").Find(&existing).Error; err != nil {
			return err
		}
		takenIDs := make(map[int64]bool, len(existing))
		takenPhones := make(map[string]bool, len(existing))
		for _, u := range existing {
			takenIDs[u.ID] = true
			takenPhones[u.PhoneNumber] = true
		}

		next := req.StartingID
		for _, u := range req.Users {
			phone := strings.TrimSpace(u.PhoneNumber)
			if !contacts.ValidPhone(phone) || takenPhones[phone] {
				continue
			}
			for takenIDs[next] {
				next++
			}

			name := strings.TrimSpace(u.Name)
			if name == "" {
				name = phone
			}
			created = append(created, User{ID: next, Name: name, PhoneNumber: phone, About: "Imported contact"})
			takenIDs[next] = true
			takenPhones[phone] = true
		}

		if len(created) == 0 {
			return nil
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		s.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%d users imported successfully", len(created)),
		"count":   len(created),
	})
}

func (s *Server) deleteBatchUsers(c *gin.Context) {
	startID, ok := idParam(c, "startId")
	if !ok {
		return
	}

	var deleted int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sender_id >= ? OR reciever_id >= ?", startID, startID).Delete(&Message{}).Error; err != nil {
			return err
		}
		res := tx.Where("id >= ?", startID).Delete(&User{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		s.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%d users deleted successfully", deleted),
		"count":   deleted,
	})
}

type broadcastRequest struct {
	Message  string  `json:"message"`
	SenderID int64   `json:"senderId"`
	BotCount int     `json:"botCount"`
	Delays   []int64 `json:"delays"`
}

func (s *Server) broadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Message cannot be empty"})
		return
	}

	var sender User
	if err := s.db.First(&sender, req.SenderID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Sender not found"})
		return
	}

	var recipients []User
	if err := s.db.Where("id <> ?", sender.ID).Order("id").Find(&recipients).Error; err != nil {
		s.internalError(c, err)
		return
	}

	now := time.Now()
	messages := make([]Message, 0, len(recipients))
	for _, r := range recipients {
		messages = append(messages, Message{
			SenderID:      sender.ID,
			RecieverID:    r.ID,
			Message:       req.Message,
			Type:          "text",
			MessageStatus: "sent",
			CreatedAt:     now,
		})
	}
	if len(messages) > 0 {
		if err := s.db.Create(&messages).Error; err != nil {
			s.internalError(c, err)
			return
		}
	}

	var replies []Reply
	if err := s.db.Order("id").Find(&replies).Error; err != nil {
		s.internalError(c, err)
		return
	}
	s.scheduleBotReplies(sender.ID, recipients, replies, req.BotCount, req.Delays)

	s.logger.Info().
		Int64(logging.FieldUserID, sender.ID).
		Int(logging.FieldCount, len(recipients)).
		Msg("broadcast stored")

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Broadcast sent to %d contacts", len(recipients)),
		"count":   len(recipients),
	})
}

// scheduleBotReplies makes every recipient answer with the first botCount
// replies, each after its own delay (milliseconds; missing delays are 0).
func (s *Server) scheduleBotReplies(senderID int64, recipients []User, replies []Reply, botCount int, delays []int64) {
	n := botCount
	if n > len(replies) {
		n = len(replies)
	}

	for _, r := range recipients {
		for i := 0; i < n; i++ {
			var delay time.Duration
			if i < len(delays) && delays[i] > 0 {
				delay = time.Duration(delays[i]) * time.Millisecond
			}

			reply := Message{
				SenderID:      r.ID,
				RecieverID:    senderID,
				Message:       replies[i].Content,
				Type:          "text",
				MessageStatus: "delivered",
			}
			s.after(delay, func() {
				reply.CreatedAt = time.Now()
				if err := s.db.Create(&reply).Error; err != nil {
					s.logger.Warn().Err(err).Int64(logging.FieldUserID, reply.SenderID).Msg("bot reply failed")
				}
			})
		}
	}
}

func (s *Server) getReplies(c *gin.Context) {
	replies := []Reply{}
	if err := s.db.Order("id").Find(&replies).Error; err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"replies": replies})
}

type replyRequest struct {
	Content string `json:"content"`
}

func bindReply(c *gin.Context) (string, bool) {
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return "", false
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Reply content cannot be empty"})
		return "", false
	}
	return content, true
}

func (s *Server) addReply(c *gin.Context) {
	content, ok := bindReply(c)
	if !ok {
		return
	}

	reply := Reply{Content: content}
	if err := s.db.Create(&reply).Error; err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Reply added", "reply": reply})
}

func (s *Server) updateReply(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	content, ok := bindReply(c)
	if !ok {
		return
	}

	res := s.db.Model(&Reply{}).Where("id = ?", id).Update("content", content)
	if res.Error != nil {
		s.internalError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Reply not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reply updated"})
}

func (s *Server) deleteReply(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	res := s.db.Delete(&Reply{}, id)
	if res.Error != nil {
		s.internalError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Reply not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reply deleted"})
}

// deleteMessage answers 200 with status false for unknown ids; the client
// only trusts the status flag.
func (s *Server) deleteMessage(c *gin.Context) {
	id, ok := idParam(c, "messageId")
	if !ok {
		return
	}

	res := s.db.Delete(&Message{}, id)
	if res.Error != nil {
		s.internalError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusOK, gin.H{"status": false, "message": "Message not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": true, "message": "Message deleted"})
}

func (s *Server) getMessages(c *gin.Context) {
	from, ok := idParam(c, "from")
	if !ok {
		return
	}
	to, ok := idParam(c, "to")
	if !ok {
		return
	}

	messages := []Message{}
	err := s.db.
		Where("(sender_id = ? AND reciever_id = ?) OR (sender_id = ? AND reciever_id = ?)", from, to, to, from).
		Order("created_at, id").
		Find(&messages).Error
	if err != nil {
		s.internalError(c, err)
		return
	}

	err = s.db.Model(&Message{}).
		Where("sender_id = ? AND reciever_id = ? AND message_status <> ?", to, from, "read").
		Update("message_status", "read").Error
	if err != nil {
		s.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

type validateRequest struct {
	Numbers []string `json:"numbers"`
}

type profileCheck struct {
	Number string `json:"number"`
	Valid  bool   `json:"valid"`
}

// validateProfiles accepts numbers that pass the client pattern and fit in
// E.164 (at most 15 digits).
func (s *Server) validateProfiles(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	results := make([]profileCheck, 0, len(req.Numbers))
	for _, n := range req.Numbers {
		digits := strings.TrimPrefix(strings.TrimSpace(n), "+")
		results = append(results, profileCheck{
			Number: n,
			Valid:  contacts.ValidPhone(n) && len(digits) <= 15,
		})
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
