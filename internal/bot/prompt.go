package bot

import (
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

type promptKey struct {
	channelID string
	userID    string
}

// prompts routes a user's next numeric message in a channel to a command
// that is waiting for it.
type prompts struct {
	mu      sync.Mutex
	waiting map[promptKey]chan string
}

func newPrompts() *prompts {
	return &prompts{waiting: map[promptKey]chan string{}}
}

// open registers a waiter. A second open for the same key replaces the first.
func (p *prompts) open(channelID, userID string) (<-chan string, func()) {
	key := promptKey{channelID: channelID, userID: userID}
	ch := make(chan string, 1)
	p.mu.Lock()
	p.waiting[key] = ch
	p.mu.Unlock()
	return ch, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.waiting[key] == ch {
			delete(p.waiting, key)
		}
	}
}

// deliver hands m to a waiter and reports whether it was consumed.
func (p *prompts) deliver(m *discordgo.Message) bool {
	content := strings.TrimSpace(m.Content)
	if !isDigits(content) {
		return false
	}
	key := promptKey{channelID: m.ChannelID, userID: m.Author.ID}
	p.mu.Lock()
	ch, ok := p.waiting[key]
	if ok {
		delete(p.waiting, key)
	}
	p.mu.Unlock()
	if !ok {
		return false
	}
	ch <- content
	return true
}
