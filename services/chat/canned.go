package chat

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"healthpulse/models"
)

var cannedReplies = []string{
	"Thanks for sharing. Small steps each day add up.",
	"Good question. A short walk and a glass of water are a great start.",
	"I'm here to help. Tell me a bit more about how you're feeling today.",
}

// CannedReplier answers from a fixed set; used when no model is configured
// or the model fails.
type CannedReplier struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCannedReplier(rnd *rand.Rand) *CannedReplier {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &CannedReplier{rnd: rnd}
}

func (c *CannedReplier) Reply(_ context.Context, _ []models.ChatMessage, text string) (string, error) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "water") || strings.Contains(lower, "hydrat"):
		return "Aim for about eight glasses of water spread through the day.", nil
	case strings.Contains(lower, "sleep"):
		return "Try keeping a steady bedtime and putting screens away an hour before.", nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return cannedReplies[c.rnd.Intn(len(cannedReplies))], nil
}
