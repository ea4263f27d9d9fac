package agent

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifuryst/postpilot/internal/models"
)

type staticFeed []Reactor

func (f staticFeed) Reactors(context.Context, string) ([]Reactor, error) {
	return f, nil
}

type recordingConnector struct {
	mu       sync.Mutex
	fail     map[string]bool
	messages map[string]string
}

func (c *recordingConnector) Connect(_ context.Context, profileURL, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail[profileURL] {
		return errors.New("invitation limit reached")
	}
	if c.messages == nil {
		c.messages = map[string]string{}
	}
	c.messages[profileURL] = message
	return nil
}

// profileServer answers the profile requests the outreach runner makes.
// Only "known" already exists.
func profileServer(msg frame) []frame {
	switch msg["type"] {
	case "check_profiles_batch":
		var existing, missing []string
		for _, u := range msg["profileUrls"].([]any) {
			if u == "known" {
				existing = append(existing, u.(string))
			} else {
				missing = append(missing, u.(string))
			}
		}
		return []frame{{"type": "profiles_status_batch", "existing": existing, "notExisting": missing}}
	case "save_profile":
		return []frame{{"type": "profile_saved", "created": true,
			"profile": frame{"profileUrl": msg["profileUrl"], "name": msg["name"]}}}
	case "generate_message":
		name := msg["profile"].(map[string]any)["name"].(string)
		return []frame{{"type": "message_generated", "messageId": msg["messageId"], "message": "Hi " + name}}
	case "update_connection_status":
		return []frame{{"type": "connection_status_updated",
			"profile": frame{"profileUrl": msg["profileUrl"], "connectionSent": true}}}
	}
	return nil
}

func TestRunOutreachContactsOnlyNewReactors(t *testing.T) {
	fs := newFakeServer(t, profileServer)
	feed := staticFeed{
		{ProfileURL: "known", Name: "Kim"},
		{ProfileURL: "new", Name: "Nia", ReactionType: models.EngagerTypeComment, Caption: "a designer"},
		{ProfileURL: "new", Name: "Nia"},
		{ProfileURL: "blocked", Name: "Bo"},
	}
	connector := &recordingConnector{fail: map[string]bool{"blocked": true}}
	a := startAgent(t, fs, newFakePublisher("", nil), WithOutreach(feed, connector))

	res, err := a.RunOutreach(context.Background(), models.Post{
		ID:      "p1",
		Content: "Launch notes",
		PostURL: "https://www.linkedin.com/feed/update/1",
	})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Reactors)
	assert.Equal(t, 2, res.Known)
	assert.Equal(t, 1, res.Contacted)
	assert.Equal(t, []string{"blocked"}, res.Failed)
	assert.Equal(t, map[string]string{"new": "Hi Nia"}, connector.messages)

	engager := fs.expect(t, "new_engager")
	assert.Equal(t, "p1", engager["postId"])
	assert.Equal(t, map[string]any{"profileUrl": "new", "name": "Nia", "type": "comment"}, engager["engager"])

	mark := fs.expect(t, "update_connection_status")
	assert.Equal(t, "new", mark["profileUrl"])
}

func TestRunOutreachNeedsPublishedPost(t *testing.T) {
	fs := newFakeServer(t, profileServer)
	a := startAgent(t, fs, newFakePublisher("", nil), WithOutreach(staticFeed{}, &recordingConnector{}))

	_, err := a.RunOutreach(context.Background(), models.Post{ID: "p1"})
	assert.Error(t, err)
}
