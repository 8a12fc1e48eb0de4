package discord

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	discordpkg "github.com/sambhavnoobcoder/solvent-ai/internal/discord"
)

// Client talks to the Discord REST API only; no gateway connection is opened.
type Client struct {
	token string

	mu      sync.Mutex
	session *discordgo.Session
}

func NewClient(token string) *Client {
	return &Client{token: token}
}

func (c *Client) Enabled() bool {
	return c.token != ""
}

func (c *Client) getSession() (*discordgo.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return c.session, nil
	}
	s, err := discordgo.New("Bot " + c.token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	c.session = s
	return s, nil
}

func (c *Client) SendChannelMessage(channelID, content string) error {
	if !c.Enabled() {
		return nil
	}
	s, err := c.getSession()
	if err != nil {
		return err
	}
	_, err = s.ChannelMessageSend(channelID, content)
	return err
}

func (c *Client) SendChannelMessageWithFile(msg discordpkg.FileMessage) error {
	if !c.Enabled() {
		return nil
	}
	s, err := c.getSession()
	if err != nil {
		return err
	}
	_, err = s.ChannelMessageSendComplex(msg.ChannelID, &discordgo.MessageSend{
		Content: msg.Content,
		Files: []*discordgo.File{
			{Name: msg.Filename, ContentType: "text/plain", Reader: bytes.NewReader(msg.FileBody)},
		},
	})
	return err
}

// ChannelName resolves a channel name, falling back to the id.
func (c *Client) ChannelName(channelID string) string {
	if !c.Enabled() {
		return channelID
	}
	s, err := c.getSession()
	if err != nil {
		return channelID
	}
	if s.State != nil {
		ch, err := s.State.Channel(channelID)
		if err == nil && ch != nil && ch.Name != "" {
			return ch.Name
		}
	}
	ch, err := s.Channel(channelID)
	if err != nil || ch == nil || ch.Name == "" {
		return channelID
	}
	return ch.Name
}
