// Package mailbox watches an inbox for recruitment traffic and feeds
// relevant messages to the reconciliation engine.
package mailbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/anigil002/trackerupdates/internal/models"
)

// Source delivers not-yet-seen messages from a mailbox. Implementations
// own their de-duplication; Fetch never returns the same message twice.
type Source interface {
	Fetch(ctx context.Context) ([]models.EmailMessage, error)
}

// GmailSource reads the inbox through the Gmail API. Attachment bodies
// are never downloaded; only their names and sizes are carried.
type GmailSource struct {
	service *gmail.Service
	query   string
	seen    map[string]bool
	log     *slog.Logger
}

// NewGmailSource builds a source from an OAuth client credentials file
// and a cached token file. A missing token triggers the interactive
// consent flow on stdin, after which the token is cached for reuse.
func NewGmailSource(ctx context.Context, credentialsPath, tokenPath string, logger *slog.Logger) (*GmailSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}
	config, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	client, err := oauthClient(ctx, config, tokenPath)
	if err != nil {
		return nil, err
	}
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail client: %w", err)
	}

	return &GmailSource{
		service: srv,
		query:   "in:inbox newer_than:1d",
		seen:    map[string]bool{},
		log:     logger,
	}, nil
}

// Fetch lists recent inbox messages and returns the ones not delivered
// before.
func (g *GmailSource) Fetch(ctx context.Context) ([]models.EmailMessage, error) {
	listing, err := g.service.Users.Messages.List("me").Q(g.query).MaxResults(50).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list messages: %w", err)
	}

	var messages []models.EmailMessage
	for _, ref := range listing.Messages {
		if g.seen[ref.Id] {
			continue
		}
		full, err := g.service.Users.Messages.Get("me", ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			g.log.Warn("mailbox.fetch_message_failed", "id", ref.Id, "error", err)
			continue
		}
		g.seen[ref.Id] = true
		messages = append(messages, convertMessage(full))
	}
	return messages, nil
}

func oauthClient(ctx context.Context, config *oauth2.Config, tokenPath string) (*http.Client, error) {
	tok, err := tokenFromFile(tokenPath)
	if err != nil {
		tok, err = tokenFromWeb(ctx, config)
		if err != nil {
			return nil, err
		}
		if err := saveToken(tokenPath, tok); err != nil {
			return nil, err
		}
	}
	return config.Client(ctx, tok), nil
}

func tokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser then type the authorization code:\n%v\n", authURL)

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		return nil, fmt.Errorf("unable to read authorization code: %w", err)
	}
	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token: %w", err)
	}
	return tok, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

func convertMessage(msg *gmail.Message) models.EmailMessage {
	out := models.EmailMessage{
		Folder:       "Inbox",
		ReceivedTime: time.UnixMilli(msg.InternalDate),
	}
	if msg.Payload == nil {
		return out
	}

	for _, header := range msg.Payload.Headers {
		switch header.Name {
		case "Subject":
			out.Subject = header.Value
		case "From":
			out.SenderName, out.Sender = parseAddress(header.Value)
		case "To":
			for _, part := range strings.Split(header.Value, ",") {
				name, email := parseAddress(part)
				if email != "" {
					out.Recipients = append(out.Recipients, models.Recipient{Name: name, Email: email})
				}
			}
		}
	}

	out.Body = extractBody(msg.Payload)
	collectAttachments(msg.Payload, &out.Attachments)
	return out
}

// parseAddress splits a "Name <email@example.com>" header value.
func parseAddress(value string) (name, email string) {
	value = strings.TrimSpace(value)
	if idx := strings.Index(value, "<"); idx >= 0 {
		name = strings.Trim(strings.TrimSpace(value[:idx]), `"`)
		email = strings.TrimSuffix(value[idx+1:], ">")
		return name, strings.TrimSpace(email)
	}
	return "", value
}

// extractBody walks the MIME tree preferring text/plain over text/html.
func extractBody(payload *gmail.MessagePart) string {
	if body := findPart(payload, "text/plain"); body != "" {
		return body
	}
	return findPart(payload, "text/html")
}

func findPart(part *gmail.MessagePart, mimeType string) string {
	if part == nil {
		return ""
	}
	if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
		decoded, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			return ""
		}
		return string(decoded)
	}
	for _, child := range part.Parts {
		if body := findPart(child, mimeType); body != "" {
			return body
		}
	}
	return ""
}

func collectAttachments(part *gmail.MessagePart, out *[]models.Attachment) {
	if part == nil {
		return
	}
	if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
		*out = append(*out, models.Attachment{Filename: part.Filename, Size: part.Body.Size})
	}
	for _, child := range part.Parts {
		collectAttachments(child, out)
	}
}
