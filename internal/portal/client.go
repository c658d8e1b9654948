// Package portal implements the JSON-over-HTTPS client for the incubation
// portal's chat endpoints. It satisfies chat.Backend and adds the directory
// and file calls the create and attachment flows need.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/itelinc/incuchat/internal/chat"
	"github.com/itelinc/incuchat/internal/logging"
)

var (
	// ErrSessionExpired reports a 401 from the portal. The caller should
	// prompt for re-authentication instead of retrying.
	ErrSessionExpired = errors.New("portal session expired")

	ErrPortalStatus = errors.New("portal returned failure status")
)

// historyChatID is the sentinel the portal accepts for a full transcript.
const historyChatID = "ALL"

// Config carries what the client needs to talk to one portal deployment.
type Config struct {
	BaseURL string
	Token   string
	Session chat.Session

	// AuditModule is sent as the X-Module header on every call. The portal
	// logs it server side; it is never read back.
	AuditModule string

	Timeout time.Duration
}

// Client is the production chat.Backend.
type Client struct {
	baseURL string
	token   string
	session chat.Session
	module  string

	http   *http.Client
	logger zerolog.Logger
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	module := cfg.AuditModule
	if module == "" {
		module = "chat"
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		session: cfg.Session,
		module:  module,
		http:    &http.Client{Timeout: timeout},
		logger:  logging.Component("portal"),
	}
}

// envelope is the portal's uniform response shape.
type envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

// post sends one JSON call and decodes the envelope's data field into out.
// A nil out discards the data.
func (c *Client) post(ctx context.Context, path, action string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("userid", strconv.FormatInt(c.session.UserID, 10))
	req.Header.Set("X-Module", c.module)
	req.Header.Set("X-Action", action)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrSessionExpired
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("portal call failed")
		return fmt.Errorf("%w: %s %d", ErrPortalStatus, path, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode %s envelope: %w", path, err)
	}
	if env.StatusCode != 0 && (env.StatusCode < 200 || env.StatusCode > 299) {
		if env.StatusCode == http.StatusUnauthorized {
			return ErrSessionExpired
		}
		return fmt.Errorf("%w: %s %d %s", ErrPortalStatus, path, env.StatusCode, env.Message)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", path, err)
	}
	return nil
}

// ListConversations implements chat.Backend.
func (c *Client) ListConversations(ctx context.Context) ([]chat.Conversation, error) {
	payload := map[string]any{
		"userId":    c.session.UserID,
		"incUserId": c.session.IncUserID,
	}
	var conversations []chat.Conversation
	if err := c.post(ctx, "/generic/getchatlist", "list-chats", payload, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// CreateConversation implements chat.Backend.
func (c *Client) CreateConversation(ctx context.Context, typeID chat.Type, to int64, subject string) (chat.Conversation, error) {
	payload := map[string]any{
		"chattype": int(typeID),
		"from":     c.session.UserID,
		"to":       to,
		"subject":  subject,
	}
	var conversation chat.Conversation
	if err := c.post(ctx, "/chat/initiate", "initiate-chat", payload, &conversation); err != nil {
		return chat.Conversation{}, err
	}
	return conversation, nil
}

// Messages implements chat.Backend.
func (c *Client) Messages(ctx context.Context, conversationID int64) ([]chat.Message, error) {
	return c.chatDetails(ctx, strconv.FormatInt(conversationID, 10))
}

// History implements chat.Backend: the full transcript across conversations.
func (c *Client) History(ctx context.Context) ([]chat.Message, error) {
	return c.chatDetails(ctx, historyChatID)
}

// chatDetails fetches message snapshots. The chatId field is a string on the
// wire because the history sentinel shares the endpoint.
func (c *Client) chatDetails(ctx context.Context, chatID string) ([]chat.Message, error) {
	payload := map[string]any{
		"userId":    c.session.UserID,
		"chatId":    chatID,
		"incuserid": c.session.IncUserID,
	}
	var messages []chat.Message
	if err := c.post(ctx, "/generic/getchatdetails", "chat-details", payload, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// Send implements chat.Backend. The attachment payload travels base64 encoded
// in the path field; the portal stores it and rewrites the path server side.
func (c *Client) Send(ctx context.Context, req chat.SendRequest) (chat.Message, error) {
	payload := map[string]any{
		"chatdetailstypeid":  int(req.TypeID),
		"chatdetailslistid":  req.ConversationID,
		"chatdetailsfrom":    req.From,
		"chatdetailsto":      req.To,
		"chatdetailsmessage": req.Body,
	}
	if req.AttachmentData != "" {
		payload["chatdetailsattachmentpath"] = req.AttachmentData
		payload["chatdetailsattachmentname"] = req.AttachmentName
	}
	if req.ReplyFor != nil {
		payload["chatdetailsreplyfor"] = *req.ReplyFor
	}
	var sent chat.Message
	if err := c.post(ctx, "/chat/send", "send-message", payload, &sent); err != nil {
		return chat.Message{}, err
	}
	return sent, nil
}

// MarkRead implements chat.Backend.
func (c *Client) MarkRead(ctx context.Context, messageID, conversationID int64, typeID chat.Type) error {
	payload := map[string]any{
		"messageId":         messageID,
		"chatdetailslistid": conversationID,
		"chatdetailstypeid": int(typeID),
	}
	return c.post(ctx, "/chat/markread", "mark-read", payload, nil)
}

// CloseConversation implements chat.Backend.
func (c *Client) CloseConversation(ctx context.Context, conversationID int64) error {
	payload := map[string]any{
		"chatdetailsfrom": c.session.UserID,
		"userIncId":       c.session.IncUserID,
		"chatrecid":       conversationID,
	}
	return c.post(ctx, "/chat/close", "close-chat", payload, nil)
}

// ResolveFileURL implements chat.Backend: exchanges a stored attachment path
// for a short-lived fetchable URL.
func (c *Client) ResolveFileURL(ctx context.Context, path string) (string, error) {
	payload := map[string]any{
		"userid":    c.session.UserID,
		"incUserId": c.session.IncUserID,
		"url":       path,
	}
	var url string
	if err := c.post(ctx, "/generic/getfileurl", "get-file-url", payload, &url); err != nil {
		return "", err
	}
	return url, nil
}

// DownloadAttachment resolves a stored path and fetches the bytes.
func (c *Client) DownloadAttachment(ctx context.Context, path string) ([]byte, error) {
	url, err := c.ResolveFileURL(ctx, path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download attachment: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: download %d", ErrPortalStatus, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 64<<20))
}

// Users fetches the recipient directory.
func (c *Client) Users(ctx context.Context) ([]chat.User, error) {
	var users []chat.User
	if err := c.post(ctx, "/generic/getusers", "list-users", map[string]any{"userId": c.session.UserID}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SPOCs fetches the single-point-of-contact directory.
func (c *Client) SPOCs(ctx context.Context) ([]chat.User, error) {
	var spocs []chat.User
	if err := c.post(ctx, "/generic/getspocs", "list-spocs", map[string]any{"userId": c.session.UserID}, &spocs); err != nil {
		return nil, err
	}
	return spocs, nil
}

// ChatTypes fetches the conversation-type directory.
func (c *Client) ChatTypes(ctx context.Context) ([]chat.ChatTypeInfo, error) {
	var types []chat.ChatTypeInfo
	if err := c.post(ctx, "/generic/getchattype", "list-chat-types", map[string]any{"userId": c.session.UserID}, &types); err != nil {
		return nil, err
	}
	return types, nil
}

// Recipients fetches users and SPOCs in parallel for the create flow. A SPOC
// fetch failure degrades to an empty list; a user fetch failure aborts.
func (c *Client) Recipients(ctx context.Context) (users, spocs []chat.User, err error) {
	var wg sync.WaitGroup
	var spocErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		users, err = c.Users(ctx)
	}()
	go func() {
		defer wg.Done()
		spocs, spocErr = c.SPOCs(ctx)
	}()
	wg.Wait()

	if err != nil {
		return nil, nil, err
	}
	if spocErr != nil {
		c.logger.Warn().Err(spocErr).Msg("spoc directory unavailable, continuing without")
		spocs = nil
	}
	return users, spocs, nil
}
