package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/saravenpi/wavechat/internal/models"
)

// Backend routes. Every path is relative to the configured base URL.
const (
	RouteInitialContacts  = "/api/auth/get-initial-contacts/%d"
	RouteAddBatchUsers    = "/api/auth/add-batch-users"
	RouteDeleteBatchUsers = "/api/auth/delete-batch-users/%d"
	RouteBroadcast        = "/api/auth/message/broadcast"
	RouteGetReplies       = "/api/auth/get-replies"
	RouteAddReply         = "/api/auth/add-reply"
	RouteUpdateReply      = "/api/auth/update-reply/%d"
	RouteDeleteReply      = "/api/auth/delete-reply/%d"
	RouteDeleteMessage    = "/api/auth/deleteMessagesByUser/%d"
	RouteGetMessages      = "/api/messages/get-messages/%d/%d"
	RouteValidateProfiles = "/api/validate-whatsapp-profiles"
)

// Result is the generic acknowledgement most bulk endpoints return.
type Result struct {
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

type ContactsResponse struct {
	Users       []models.Contact `json:"users"`
	OnlineUsers []int64          `json:"onlineUsers"`
}

// GetInitialContacts fetches the contact list of userID. Online flags are
// filled in from the onlineUsers id list.
func (c *Client) GetInitialContacts(ctx context.Context, userID int64) (*ContactsResponse, error) {
	var resp ContactsResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf(RouteInitialContacts, userID), nil, &resp); err != nil {
		return nil, err
	}

	online := make(map[int64]bool, len(resp.OnlineUsers))
	for _, id := range resp.OnlineUsers {
		online[id] = true
	}
	for i := range resp.Users {
		resp.Users[i].Online = online[resp.Users[i].ID]
	}
	return &resp, nil
}

type BatchUsersRequest struct {
	StartingID int64                `json:"startingId"`
	Users      []models.ImportEntry `json:"users"`
}

func (c *Client) AddBatchUsers(ctx context.Context, req BatchUsersRequest) (*Result, error) {
	var res Result
	if err := c.do(ctx, http.MethodPost, RouteAddBatchUsers, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// DeleteBatchUsers removes every user with id >= startID.
func (c *Client) DeleteBatchUsers(ctx context.Context, startID int64) (*Result, error) {
	var res Result
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf(RouteDeleteBatchUsers, startID), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type BroadcastRequest struct {
	Message  string  `json:"message"`
	SenderID int64   `json:"senderId"`
	BotCount int     `json:"botCount"`
	Delays   []int64 `json:"delays"` // milliseconds, one per bot reply
}

func (c *Client) Broadcast(ctx context.Context, req BroadcastRequest) (*Result, error) {
	if req.Delays == nil {
		req.Delays = []int64{}
	}
	var res Result
	if err := c.do(ctx, http.MethodPost, RouteBroadcast, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type repliesResponse struct {
	Replies []models.Reply `json:"replies"`
}

type replyRequest struct {
	Content string `json:"content"`
}

func (c *Client) GetReplies(ctx context.Context) ([]models.Reply, error) {
	var resp repliesResponse
	if err := c.do(ctx, http.MethodGet, RouteGetReplies, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Replies == nil {
		resp.Replies = []models.Reply{}
	}
	return resp.Replies, nil
}

func (c *Client) AddReply(ctx context.Context, content string) error {
	return c.do(ctx, http.MethodPost, RouteAddReply, replyRequest{Content: content}, nil)
}

func (c *Client) UpdateReply(ctx context.Context, id int64, content string) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf(RouteUpdateReply, id), replyRequest{Content: content}, nil)
}

func (c *Client) DeleteReply(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf(RouteDeleteReply, id), nil, nil)
}

// DeleteResult is the deleteMessagesByUser acknowledgement. Status false
// means the backend refused without an HTTP error.
type DeleteResult struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

func (c *Client) DeleteMessage(ctx context.Context, messageID int64) (*DeleteResult, error) {
	var res DeleteResult
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf(RouteDeleteMessage, messageID), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type messagesResponse struct {
	Messages []models.Message `json:"messages"`
}

// GetMessages returns the conversation between userID and otherID, oldest
// first as the backend orders it.
func (c *Client) GetMessages(ctx context.Context, userID, otherID int64) ([]models.Message, error) {
	var resp messagesResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf(RouteGetMessages, userID, otherID), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Messages == nil {
		resp.Messages = []models.Message{}
	}
	return resp.Messages, nil
}

type ProfileCheck struct {
	Number string `json:"number"`
	Valid  bool   `json:"valid"`
}

type validateRequest struct {
	Numbers []string `json:"numbers"`
}

type validateResponse struct {
	Results []ProfileCheck `json:"results"`
}

// ValidateWhatsAppProfiles asks the backend which numbers have a WhatsApp
// profile.
func (c *Client) ValidateWhatsAppProfiles(ctx context.Context, numbers []string) ([]ProfileCheck, error) {
	var resp validateResponse
	if err := c.do(ctx, http.MethodPost, RouteValidateProfiles, validateRequest{Numbers: numbers}, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}
