package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ifuryst/postpilot/pkg/util"
)

// snippetLength is how much of the post is quoted in a connection note.
const snippetLength = 50

type MessageRequest struct {
	MessageID   string
	Name        string
	Caption     string
	PostContent string
}

type GeneratedMessage struct {
	MessageID string
	Message   string
}

// MessageGenerator writes connection notes from a fixed template.
type MessageGenerator struct{}

func NewMessageGenerator() *MessageGenerator {
	return &MessageGenerator{}
}

func (g *MessageGenerator) Generate(req MessageRequest) GeneratedMessage {
	id := req.MessageID
	if id == "" {
		id = uuid.NewString()
	}

	firstName := util.FirstName(req.Name)
	if firstName == "" {
		firstName = "there"
	}
	caption := strings.TrimSpace(req.Caption)
	if caption == "" {
		caption = "working on interesting things"
	}

	message := fmt.Sprintf(
		"Hi %s, I noticed your reaction to my post about \"%s...\". I see you're %s. "+
			"I'd love to connect and share insights about our common interests in tech and innovation.",
		firstName,
		util.Truncate(strings.TrimSpace(req.PostContent), snippetLength),
		caption,
	)

	return GeneratedMessage{MessageID: id, Message: message}
}
