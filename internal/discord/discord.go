package discord

// MessageLimit is the longest message content Discord accepts.
const MessageLimit = 2000

type FileMessage struct {
	ChannelID string
	Content   string
	Filename  string
	FileBody  []byte
}

// Client posts to Discord text channels over REST. Implementations with no
// token configured accept every call and send nothing.
type Client interface {
	Enabled() bool
	SendChannelMessage(channelID, content string) error
	SendChannelMessageWithFile(msg FileMessage) error
	ChannelName(channelID string) string
}
